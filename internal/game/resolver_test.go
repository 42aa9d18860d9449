package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hega4444/btcgame/internal/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var testStart = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

func newTestResolver(store *memStore, clock *fakeClock) *Resolver {
	ledger := &Ledger{Users: store, Logger: zap.NewNop(), Now: clock.Now}
	return &Resolver{
		Prices:         store,
		Wagers:         store,
		Ledger:         ledger,
		Logger:         zap.NewNop(),
		SettleDuration: 60 * time.Second,
		Now:            clock.Now,
	}
}

func addTick(t *testing.T, store *memStore, currency string, price int64, ts time.Time) {
	t.Helper()
	err := store.InsertPriceTicks(context.Background(), []models.PriceTick{{
		Currency:  currency,
		Price:     decimal.NewFromInt(price),
		Timestamp: ts,
	}})
	require.NoError(t, err)
}

func TestPlaceWager_NoPriceAvailable(t *testing.T) {
	store := newMemStore()
	r := newTestResolver(store, newFakeClock(testStart))

	_, err := r.PlaceWager(context.Background(), "owner-1", "usd", "up")
	require.ErrorIs(t, err, ErrNoPriceAvailable)
}

func TestPlaceWager_InvalidDirection(t *testing.T) {
	store := newMemStore()
	r := newTestResolver(store, newFakeClock(testStart))

	_, err := r.PlaceWager(context.Background(), "owner-1", "usd", "sideways")
	require.ErrorIs(t, err, ErrInvalidDirection)
}

func TestPlaceWager_PinsLatestTick(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock(testStart)
	r := newTestResolver(store, clock)
	addTick(t, store, "usd", 44000, testStart.Add(-30*time.Second))
	addTick(t, store, "usd", 45000, testStart.Add(-5*time.Second))

	w, err := r.PlaceWager(context.Background(), "owner-1", "USD", "Up")
	require.NoError(t, err)
	require.True(t, ValidWagerID(w.ID))
	require.Equal(t, models.WagerStatusActive, w.Status)
	require.Equal(t, "usd", w.Currency)
	require.Equal(t, models.DirectionUp, w.Direction)
	require.True(t, w.PriceAtPlacement.Equal(decimal.NewFromInt(45000)))
	require.Equal(t, testStart, w.PlacedAt)
}

func TestPlaceWager_SecondActiveRejected(t *testing.T) {
	store := newMemStore()
	r := newTestResolver(store, newFakeClock(testStart))
	addTick(t, store, "usd", 45000, testStart)
	addTick(t, store, "eur", 42000, testStart)

	_, err := r.PlaceWager(context.Background(), "owner-1", "usd", "up")
	require.NoError(t, err)

	// Rejected regardless of currency or direction.
	_, err = r.PlaceWager(context.Background(), "owner-1", "eur", "down")
	require.ErrorIs(t, err, ErrActiveWagerExists)

	// A different owner is unaffected.
	_, err = r.PlaceWager(context.Background(), "owner-2", "usd", "down")
	require.NoError(t, err)
}

func TestTrySettle_NotRipe(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock(testStart)
	r := newTestResolver(store, clock)
	addTick(t, store, "usd", 45000, testStart)

	w, err := r.PlaceWager(context.Background(), "owner-1", "usd", "up")
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	record, err := r.TrySettle(context.Background(), w.ID)
	require.NoError(t, err)
	require.Nil(t, record)

	got, err := store.GetWagerByID(context.Background(), w.ID)
	require.NoError(t, err)
	require.Equal(t, models.WagerStatusActive, got.Status)
}

func TestTrySettle_DeferredWithoutSettlementTick(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock(testStart)
	r := newTestResolver(store, clock)
	addTick(t, store, "usd", 45000, testStart)

	w, err := r.PlaceWager(context.Background(), "owner-1", "usd", "up")
	require.NoError(t, err)

	// Ripe, but the only tick predates the settlement time: deferred,
	// not an error, and no state changes.
	clock.Advance(61 * time.Second)
	record, err := r.TrySettle(context.Background(), w.ID)
	require.NoError(t, err)
	require.Nil(t, record)

	got, _ := store.GetWagerByID(context.Background(), w.ID)
	require.Equal(t, models.WagerStatusActive, got.Status)

	// A tick arrives at the settlement age; the retry settles.
	addTick(t, store, "usd", 45500, testStart.Add(60*time.Second))
	record, err = r.TrySettle(context.Background(), w.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.True(t, record.Won)
}

func TestTrySettle_UnknownWager(t *testing.T) {
	store := newMemStore()
	r := newTestResolver(store, newFakeClock(testStart))

	record, err := r.TrySettle(context.Background(), "000000000000000000000000")
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestTrySettle_OutcomeRule(t *testing.T) {
	tests := []struct {
		name        string
		direction   string
		settlePrice int64
		wantWon     bool
	}{
		{"up and price rises", "up", 101, true},
		{"up and price flat", "up", 100, false},
		{"up and price falls", "up", 99, false},
		{"down and price falls", "down", 99, true},
		{"down and price flat", "down", 100, false},
		{"down and price rises", "down", 101, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			clock := newFakeClock(testStart)
			r := newTestResolver(store, clock)
			addTick(t, store, "usd", 100, testStart)

			w, err := r.PlaceWager(context.Background(), "owner-1", "usd", tt.direction)
			require.NoError(t, err)

			addTick(t, store, "usd", tt.settlePrice, testStart.Add(60*time.Second))
			clock.Advance(61 * time.Second)

			record, err := r.TrySettle(context.Background(), w.ID)
			require.NoError(t, err)
			require.NotNil(t, record)
			require.Equal(t, tt.wantWon, record.Won)
			if tt.wantWon {
				require.Equal(t, 1, record.ScoreDelta)
			} else {
				require.Equal(t, -1, record.ScoreDelta)
			}
			require.True(t, record.InitialPrice.Equal(decimal.NewFromInt(100)))
			require.True(t, record.FinalPrice.Equal(decimal.NewFromInt(tt.settlePrice)))
		})
	}
}

func TestTrySettle_Idempotent(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock(testStart)
	r := newTestResolver(store, clock)
	addTick(t, store, "usd", 45000, testStart)
	require.NoError(t, store.InsertUser(context.Background(), &models.UserAccount{
		OwnerID: "owner-1", Username: "satoshi", CreatedAt: testStart, LastUpdated: testStart,
	}))

	w, err := r.PlaceWager(context.Background(), "owner-1", "usd", "up")
	require.NoError(t, err)

	addTick(t, store, "usd", 45500, testStart.Add(60*time.Second))
	clock.Advance(61 * time.Second)

	first, err := r.TrySettle(context.Background(), w.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	for i := 0; i < 5; i++ {
		again, err := r.TrySettle(context.Background(), w.ID)
		require.NoError(t, err)
		require.NotNil(t, again)
		require.Equal(t, first.WagerID, again.WagerID)
		require.Equal(t, first.Won, again.Won)
		require.Equal(t, first.ScoreDelta, again.ScoreDelta)
		require.True(t, first.FinalPrice.Equal(again.FinalPrice))
		require.Equal(t, first.Timestamp, again.Timestamp)
	}

	// The ledger ran exactly once across all calls.
	require.Equal(t, 1, store.statsCallCount())
	user, _ := store.GetUserByOwnerID(context.Background(), "owner-1")
	require.Equal(t, 1, user.Score)
	require.Equal(t, 1, user.Wins)
}

func TestTrySettle_ConcurrentRace(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock(testStart)
	r := newTestResolver(store, clock)
	addTick(t, store, "usd", 45000, testStart)
	require.NoError(t, store.InsertUser(context.Background(), &models.UserAccount{
		OwnerID: "owner-1", Username: "satoshi", CreatedAt: testStart, LastUpdated: testStart,
	}))

	w, err := r.PlaceWager(context.Background(), "owner-1", "usd", "up")
	require.NoError(t, err)

	addTick(t, store, "usd", 45500, testStart.Add(60*time.Second))
	clock.Advance(61 * time.Second)

	const callers = 32
	records := make([]*models.SettlementRecord, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			records[i], errs[i] = r.TrySettle(context.Background(), w.ID)
		}(i)
	}
	wg.Wait()

	for i, record := range records {
		require.NoError(t, errs[i])
		require.NotNil(t, record)
		require.True(t, record.Won)
		require.Equal(t, 1, record.ScoreDelta)
	}
	// One settlement record, one ledger application, score bumped once.
	require.Equal(t, 1, store.statsCallCount())
	user, _ := store.GetUserByOwnerID(context.Background(), "owner-1")
	require.Equal(t, 1, user.Score)
	require.Equal(t, 1, user.Wins)
	require.Equal(t, 0, user.Losses)
}

func TestStatus(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock(testStart)
	r := newTestResolver(store, clock)
	addTick(t, store, "usd", 45000, testStart)

	status, err := r.Status(context.Background(), "ffffffffffffffffffffffff")
	require.NoError(t, err)
	require.Nil(t, status)

	w, err := r.PlaceWager(context.Background(), "owner-1", "usd", "up")
	require.NoError(t, err)

	status, err = r.Status(context.Background(), w.ID)
	require.NoError(t, err)
	require.Equal(t, models.WagerStatusActive, status.Status)
	require.NotNil(t, status.Wager)
	require.Nil(t, status.Result)

	addTick(t, store, "usd", 45500, testStart.Add(60*time.Second))
	clock.Advance(61 * time.Second)
	_, err = r.TrySettle(context.Background(), w.ID)
	require.NoError(t, err)

	status, err = r.Status(context.Background(), w.ID)
	require.NoError(t, err)
	require.Equal(t, models.WagerStatusCompleted, status.Status)
	require.NotNil(t, status.Result)
	require.True(t, status.Result.Won)
}

func TestEndToEnd_WinningUpWager(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock(testStart)
	r := newTestResolver(store, clock)
	require.NoError(t, store.InsertUser(context.Background(), &models.UserAccount{
		OwnerID: "owner-1", Username: "satoshi", CreatedAt: testStart, LastUpdated: testStart,
	}))
	addTick(t, store, "usd", 45000, testStart)

	w, err := r.PlaceWager(context.Background(), "owner-1", "usd", "up")
	require.NoError(t, err)
	require.True(t, w.PriceAtPlacement.Equal(decimal.NewFromInt(45000)))

	clock.Advance(61 * time.Second)
	addTick(t, store, "usd", 45500, testStart.Add(60*time.Second))

	_, err = r.TrySettle(context.Background(), w.ID)
	require.NoError(t, err)

	status, err := r.Status(context.Background(), w.ID)
	require.NoError(t, err)
	require.Equal(t, models.WagerStatusCompleted, status.Status)
	require.True(t, status.Result.Won)
	require.Equal(t, 1, status.Result.ScoreDelta)
	require.True(t, status.Result.InitialPrice.Equal(decimal.NewFromInt(45000)))
	require.True(t, status.Result.FinalPrice.Equal(decimal.NewFromInt(45500)))

	user, _ := store.GetUserByOwnerID(context.Background(), "owner-1")
	require.Equal(t, 1, user.Score)
}
