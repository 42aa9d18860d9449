package game

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Wager ids are 24 hex digits: 4 byte unix seconds followed by 8 random
// bytes. The clients already treat bet ids as opaque 24-char hex strings,
// so the persisted layout keeps that shape.
func newWagerID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(b[4:]); err != nil {
		binary.BigEndian.PutUint64(b[4:], uint64(time.Now().UnixNano()))
	}
	return hex.EncodeToString(b[:])
}

func ValidWagerID(id string) bool {
	if len(id) != 24 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
