package game

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hega4444/btcgame/internal/models"
	"github.com/hega4444/btcgame/internal/repository"
)

// memStore is an in-memory stand-in for the gorm store. CompleteWager
// holds the mutex across the check-and-set so it gives the same
// conditional-write guarantee as the SQL UPDATE ... WHERE status='active'.
type memStore struct {
	mu      sync.Mutex
	ticks   map[string][]models.PriceTick
	wagers  map[string]models.Wager
	records map[string]models.SettlementRecord
	users   map[string]models.UserAccount

	statsCalls  int
	completeErr map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		ticks:       map[string][]models.PriceTick{},
		wagers:      map[string]models.Wager{},
		records:     map[string]models.SettlementRecord{},
		users:       map[string]models.UserAccount{},
		completeErr: map[string]error{},
	}
}

func (m *memStore) InsertPriceTicks(_ context.Context, items []models.PriceTick) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		m.ticks[it.Currency] = append(m.ticks[it.Currency], it)
	}
	return nil
}

func (m *memStore) LatestPriceTick(_ context.Context, currency string) (*models.PriceTick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	series := m.ticks[currency]
	if len(series) == 0 {
		return nil, nil
	}
	best := series[0]
	for _, t := range series[1:] {
		if t.Timestamp.After(best.Timestamp) {
			best = t
		}
	}
	return &best, nil
}

func (m *memStore) PriceTickAtOrAfter(_ context.Context, currency string, at time.Time) (*models.PriceTick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.PriceTick
	for _, t := range m.ticks[currency] {
		if t.Timestamp.Before(at) {
			continue
		}
		if found == nil || t.Timestamp.Before(found.Timestamp) {
			cp := t
			found = &cp
		}
	}
	return found, nil
}

func (m *memStore) ListPriceTicksSince(_ context.Context, currency string, since time.Time, limit int) ([]models.PriceTick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PriceTick
	for _, t := range m.ticks[currency] {
		if !t.Timestamp.Before(since) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) DeletePriceTicksBefore(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for cur, series := range m.ticks {
		kept := series[:0]
		for _, t := range series {
			if t.Timestamp.Before(before) {
				n++
				continue
			}
			kept = append(kept, t)
		}
		m.ticks[cur] = kept
	}
	return n, nil
}

func (m *memStore) InsertWager(_ context.Context, item *models.Wager) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wagers[item.ID] = *item
	return nil
}

func (m *memStore) GetWagerByID(_ context.Context, id string) (*models.Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wagers[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (m *memStore) GetActiveWagerByOwner(_ context.Context, ownerID string) (*models.Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wagers {
		if w.OwnerID == ownerID && w.Status == models.WagerStatusActive {
			cp := w
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListActiveWagersPlacedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Wager
	for _, w := range m.wagers {
		if w.Status == models.WagerStatusActive && !w.PlacedAt.After(cutoff) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.Before(out[j].PlacedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CompleteWager(_ context.Context, id string, settlement repository.WagerSettlement) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.completeErr[id]; err != nil {
		return false, err
	}
	w, ok := m.wagers[id]
	if !ok || w.Status != models.WagerStatusActive {
		return false, nil
	}
	won := settlement.Won
	price := settlement.SettlementPrice
	completedAt := settlement.CompletedAt
	w.Status = models.WagerStatusCompleted
	w.Won = &won
	w.SettlementPrice = &price
	w.CompletedAt = &completedAt
	m.wagers[id] = w
	return true, nil
}

func (m *memStore) InsertSettlementRecord(_ context.Context, item *models.SettlementRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[item.WagerID] = *item
	return nil
}

func (m *memStore) GetSettlementRecordByWagerID(_ context.Context, wagerID string) (*models.SettlementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[wagerID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memStore) InsertUser(_ context.Context, item *models.UserAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[item.OwnerID] = *item
	return nil
}

func (m *memStore) GetUserByOwnerID(_ context.Context, ownerID string) (*models.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[ownerID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*models.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdateUsername(_ context.Context, ownerID, username string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[ownerID]
	if !ok {
		return false, nil
	}
	u.Username = username
	u.LastUpdated = at
	m.users[ownerID] = u
	return true, nil
}

func (m *memStore) UpdateUserStats(_ context.Context, ownerID string, score, wins, losses int, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsCalls++
	u, ok := m.users[ownerID]
	if !ok {
		return false, nil
	}
	u.Score = score
	u.Wins = wins
	u.Losses = losses
	u.LastUpdated = at
	m.users[ownerID] = u
	return true, nil
}

func (m *memStore) ListTopUsers(_ context.Context, limit int) ([]models.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UserAccount
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CountUsers(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *memStore) EraseOwner(_ context.Context, ownerID string) (repository.EraseResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result repository.EraseResult
	if _, ok := m.users[ownerID]; ok {
		delete(m.users, ownerID)
		result.Users = 1
	}
	for id, w := range m.wagers {
		if w.OwnerID == ownerID {
			delete(m.wagers, id)
			result.Wagers++
		}
	}
	for id, r := range m.records {
		if r.OwnerID == ownerID {
			delete(m.records, id)
			result.Records++
		}
	}
	return result, nil
}

func (m *memStore) statsCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statsCalls
}
