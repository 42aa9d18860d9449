package game

import "testing"

func TestNewWagerID(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		id := newWagerID()
		if !ValidWagerID(id) {
			t.Fatalf("generated id %q is not valid", id)
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestValidWagerID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"679f1c2b8a3d4e5f6a7b8c9d", true},
		{"679F1C2B8A3D4E5F6A7B8C9D", true},
		{"679f1c2b8a3d4e5f6a7b8c9", false},
		{"679f1c2b8a3d4e5f6a7b8c9dd", false},
		{"zzzf1c2b8a3d4e5f6a7b8c9d", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidWagerID(tt.id); got != tt.want {
			t.Fatalf("ValidWagerID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
