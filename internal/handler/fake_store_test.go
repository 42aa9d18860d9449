package handler

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/hega4444/btcgame/internal/models"
	"github.com/hega4444/btcgame/internal/repository"
)

// fakeStore is an in-memory repository.Repository for handler tests.
// Handlers run serially under httptest, so no locking is needed here.
type fakeStore struct {
	ticks   []models.PriceTick
	wagers  map[string]*models.Wager
	records map[string]*models.SettlementRecord
	users   map[string]*models.UserAccount
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		wagers:  make(map[string]*models.Wager),
		records: make(map[string]*models.SettlementRecord),
		users:   make(map[string]*models.UserAccount),
	}
}

func (s *fakeStore) InsertPriceTicks(_ context.Context, items []models.PriceTick) error {
	s.ticks = append(s.ticks, items...)
	return nil
}

func (s *fakeStore) LatestPriceTick(_ context.Context, currency string) (*models.PriceTick, error) {
	var latest *models.PriceTick
	for i := range s.ticks {
		tick := s.ticks[i]
		if tick.Currency != currency {
			continue
		}
		if latest == nil || tick.Timestamp.After(latest.Timestamp) {
			latest = &tick
		}
	}
	return latest, nil
}

func (s *fakeStore) PriceTickAtOrAfter(_ context.Context, currency string, at time.Time) (*models.PriceTick, error) {
	var best *models.PriceTick
	for i := range s.ticks {
		tick := s.ticks[i]
		if tick.Currency != currency || tick.Timestamp.Before(at) {
			continue
		}
		if best == nil || tick.Timestamp.Before(best.Timestamp) {
			best = &tick
		}
	}
	return best, nil
}

func (s *fakeStore) ListPriceTicksSince(_ context.Context, currency string, since time.Time, limit int) ([]models.PriceTick, error) {
	var out []models.PriceTick
	for _, tick := range s.ticks {
		if tick.Currency == currency && !tick.Timestamp.Before(since) {
			out = append(out, tick)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) DeletePriceTicksBefore(_ context.Context, before time.Time) (int64, error) {
	kept := s.ticks[:0]
	var n int64
	for _, tick := range s.ticks {
		if tick.Timestamp.Before(before) {
			n++
			continue
		}
		kept = append(kept, tick)
	}
	s.ticks = kept
	return n, nil
}

func (s *fakeStore) InsertWager(_ context.Context, item *models.Wager) error {
	cp := *item
	s.wagers[item.ID] = &cp
	return nil
}

func (s *fakeStore) GetWagerByID(_ context.Context, id string) (*models.Wager, error) {
	wager, ok := s.wagers[id]
	if !ok {
		return nil, nil
	}
	cp := *wager
	return &cp, nil
}

func (s *fakeStore) GetActiveWagerByOwner(_ context.Context, ownerID string) (*models.Wager, error) {
	for _, wager := range s.wagers {
		if wager.OwnerID == ownerID && wager.Status == models.WagerStatusActive {
			cp := *wager
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListActiveWagersPlacedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.Wager, error) {
	var out []models.Wager
	for _, wager := range s.wagers {
		if wager.Status == models.WagerStatusActive && wager.PlacedAt.Before(cutoff) {
			out = append(out, *wager)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) CompleteWager(_ context.Context, id string, settlement repository.WagerSettlement) (bool, error) {
	wager, ok := s.wagers[id]
	if !ok || wager.Status != models.WagerStatusActive {
		return false, nil
	}
	won := settlement.Won
	price := settlement.SettlementPrice
	at := settlement.CompletedAt
	wager.Status = models.WagerStatusCompleted
	wager.Won = &won
	wager.SettlementPrice = &price
	wager.CompletedAt = &at
	return true, nil
}

func (s *fakeStore) InsertSettlementRecord(_ context.Context, item *models.SettlementRecord) error {
	cp := *item
	s.records[item.WagerID] = &cp
	return nil
}

func (s *fakeStore) GetSettlementRecordByWagerID(_ context.Context, wagerID string) (*models.SettlementRecord, error) {
	record, ok := s.records[wagerID]
	if !ok {
		return nil, nil
	}
	cp := *record
	return &cp, nil
}

func (s *fakeStore) InsertUser(_ context.Context, item *models.UserAccount) error {
	for _, user := range s.users {
		if user.Username == item.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *item
	s.users[item.OwnerID] = &cp
	return nil
}

func (s *fakeStore) GetUserByOwnerID(_ context.Context, ownerID string) (*models.UserAccount, error) {
	user, ok := s.users[ownerID]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (s *fakeStore) GetUserByUsername(_ context.Context, username string) (*models.UserAccount, error) {
	for _, user := range s.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) UpdateUsername(_ context.Context, ownerID, username string, at time.Time) (bool, error) {
	user, ok := s.users[ownerID]
	if !ok {
		return false, nil
	}
	user.Username = username
	user.LastUpdated = at
	return true, nil
}

func (s *fakeStore) UpdateUserStats(_ context.Context, ownerID string, score, wins, losses int, at time.Time) (bool, error) {
	user, ok := s.users[ownerID]
	if !ok {
		return false, nil
	}
	user.Score = score
	user.Wins = wins
	user.Losses = losses
	user.LastUpdated = at
	return true, nil
}

func (s *fakeStore) ListTopUsers(_ context.Context, limit int) ([]models.UserAccount, error) {
	out := make([]models.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) CountUsers(_ context.Context) (int64, error) {
	return int64(len(s.users)), nil
}

func (s *fakeStore) EraseOwner(_ context.Context, ownerID string) (repository.EraseResult, error) {
	var result repository.EraseResult
	if _, ok := s.users[ownerID]; ok {
		delete(s.users, ownerID)
		result.Users = 1
	}
	for id, wager := range s.wagers {
		if wager.OwnerID == ownerID {
			delete(s.wagers, id)
			result.Wagers++
		}
	}
	for id, record := range s.records {
		if record.OwnerID == ownerID {
			delete(s.records, id)
			result.Records++
		}
	}
	return result, nil
}

func (s *fakeStore) InTx(_ context.Context, _ func(tx *gorm.DB) error) error {
	return nil
}
