package game

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hega4444/btcgame/internal/models"
	"github.com/hega4444/btcgame/internal/repository"
)

var (
	ErrActiveWagerExists = errors.New("active wager exists")
	ErrNoPriceAvailable  = errors.New("no price data available")
	ErrInvalidDirection  = errors.New("invalid direction")
)

const DefaultSettleDuration = 60 * time.Second

// Resolver owns the wager lifecycle: placement, the active -> completed
// transition, and status reads. TrySettle is idempotent and safe under
// concurrent invocation; a polling client and the background sweep may
// race on the same wager and exactly one of them performs the settlement.
type Resolver struct {
	Prices repository.PriceStore
	Wagers repository.WagerStore
	Ledger *Ledger
	Logger *zap.Logger

	SettleDuration time.Duration

	// Now is a test seam; nil means wall clock.
	Now func() time.Time
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

func (r *Resolver) settleDuration() time.Duration {
	if r.SettleDuration > 0 {
		return r.SettleDuration
	}
	return DefaultSettleDuration
}

// PlaceWager creates an active wager pinned to the latest tick for the
// currency. An owner may hold at most one active wager.
func (r *Resolver) PlaceWager(ctx context.Context, ownerID, currency, direction string) (*models.Wager, error) {
	direction = strings.ToLower(strings.TrimSpace(direction))
	if direction != models.DirectionUp && direction != models.DirectionDown {
		return nil, ErrInvalidDirection
	}
	currency = strings.ToLower(strings.TrimSpace(currency))

	existing, err := r.Wagers.GetActiveWagerByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrActiveWagerExists
	}

	tick, err := r.Prices.LatestPriceTick(ctx, currency)
	if err != nil {
		return nil, err
	}
	if tick == nil {
		return nil, ErrNoPriceAvailable
	}

	wager := &models.Wager{
		ID:               newWagerID(),
		OwnerID:          ownerID,
		Currency:         currency,
		Direction:        direction,
		PriceAtPlacement: tick.Price,
		PlacedAt:         r.now(),
		Status:           models.WagerStatusActive,
	}
	if err := r.Wagers.InsertWager(ctx, wager); err != nil {
		return nil, err
	}
	if r.Logger != nil {
		r.Logger.Info("wager placed",
			zap.String("wager_id", wager.ID),
			zap.String("owner_id", ownerID),
			zap.String("currency", currency),
			zap.String("direction", direction),
			zap.String("price", tick.Price.String()),
		)
	}
	return wager, nil
}

// TrySettle settles a wager once it has reached its settlement age.
//
// It returns (nil, nil) when the wager does not exist, is not ripe yet, or
// no settlement tick is available yet; the last case is deferred, not
// failed, and the caller simply retries on its next poll or sweep cycle.
// Once a wager is completed every further call returns the same settlement
// record and applies no further side effects.
func (r *Resolver) TrySettle(ctx context.Context, wagerID string) (*models.SettlementRecord, error) {
	wager, err := r.Wagers.GetWagerByID(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if wager == nil {
		return nil, nil
	}
	if wager.Status == models.WagerStatusCompleted {
		return r.settledRecord(ctx, wager)
	}

	settleAt := wager.PlacedAt.Add(r.settleDuration())
	now := r.now()
	if now.Before(settleAt) {
		return nil, nil
	}

	tick, err := r.Prices.PriceTickAtOrAfter(ctx, wager.Currency, settleAt)
	if err != nil {
		return nil, err
	}
	if tick == nil {
		// No tick at or after the settlement time yet: deferred.
		return nil, nil
	}

	won := outcome(wager.Direction, wager.PriceAtPlacement, tick.Price)
	completedAt := now

	ok, err := r.Wagers.CompleteWager(ctx, wager.ID, repository.WagerSettlement{
		Won:             won,
		SettlementPrice: tick.Price,
		CompletedAt:     completedAt,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the conditional-write race: another caller settled first.
		// Re-read and hand back the winner's record.
		settled, err := r.Wagers.GetWagerByID(ctx, wager.ID)
		if err != nil {
			return nil, err
		}
		if settled == nil {
			return nil, nil
		}
		return r.settledRecord(ctx, settled)
	}

	delta := -1
	if won {
		delta = 1
	}
	record := &models.SettlementRecord{
		WagerID:      wager.ID,
		OwnerID:      wager.OwnerID,
		Won:          won,
		ScoreDelta:   delta,
		InitialPrice: wager.PriceAtPlacement,
		FinalPrice:   tick.Price,
		Timestamp:    completedAt,
	}
	if err := r.Wagers.InsertSettlementRecord(ctx, record); err != nil {
		return nil, err
	}
	if r.Ledger != nil {
		if err := r.Ledger.Apply(ctx, wager.OwnerID, won); err != nil && r.Logger != nil {
			r.Logger.Warn("score update failed",
				zap.String("wager_id", wager.ID),
				zap.String("owner_id", wager.OwnerID),
				zap.Error(err),
			)
		}
	}
	if r.Logger != nil {
		r.Logger.Info("wager settled",
			zap.String("wager_id", wager.ID),
			zap.String("owner_id", wager.OwnerID),
			zap.Bool("won", won),
			zap.String("initial_price", wager.PriceAtPlacement.String()),
			zap.String("final_price", tick.Price.String()),
		)
	}
	return record, nil
}

// WagerStatus is what the polling contract exposes: active wagers carry the
// wager document, completed ones carry the settlement record.
type WagerStatus struct {
	Status string
	Wager  *models.Wager
	Result *models.SettlementRecord
}

// Status is a pure read, safe to poll at high frequency. A nil return with
// nil error means the wager id is unknown.
func (r *Resolver) Status(ctx context.Context, wagerID string) (*WagerStatus, error) {
	wager, err := r.Wagers.GetWagerByID(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if wager == nil {
		return nil, nil
	}
	if wager.Status != models.WagerStatusCompleted {
		return &WagerStatus{Status: models.WagerStatusActive, Wager: wager}, nil
	}
	record, err := r.settledRecord(ctx, wager)
	if err != nil {
		return nil, err
	}
	return &WagerStatus{Status: models.WagerStatusCompleted, Wager: wager, Result: record}, nil
}

// settledRecord returns the settlement record of a completed wager. If the
// record row is missing the snapshot persisted on the wager itself is
// authoritative, so the record is rebuilt from it rather than re-settling.
func (r *Resolver) settledRecord(ctx context.Context, wager *models.Wager) (*models.SettlementRecord, error) {
	record, err := r.Wagers.GetSettlementRecordByWagerID(ctx, wager.ID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}
	if wager.Won == nil || wager.SettlementPrice == nil || wager.CompletedAt == nil {
		return nil, nil
	}
	delta := -1
	if *wager.Won {
		delta = 1
	}
	return &models.SettlementRecord{
		WagerID:      wager.ID,
		OwnerID:      wager.OwnerID,
		Won:          *wager.Won,
		ScoreDelta:   delta,
		InitialPrice: wager.PriceAtPlacement,
		FinalPrice:   *wager.SettlementPrice,
		Timestamp:    *wager.CompletedAt,
	}, nil
}

// outcome uses strict inequality in both directions; a settlement price
// equal to the placement price loses either way.
func outcome(direction string, placed, settled decimal.Decimal) bool {
	switch direction {
	case models.DirectionUp:
		return settled.GreaterThan(placed)
	case models.DirectionDown:
		return settled.LessThan(placed)
	}
	return false
}
