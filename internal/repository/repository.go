package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hega4444/btcgame/internal/models"
)

// WagerSettlement is the snapshot written onto a wager by the one allowed
// active -> completed transition.
type WagerSettlement struct {
	Won             bool
	SettlementPrice decimal.Decimal
	CompletedAt     time.Time
}

// EraseResult reports what a user-data erasure removed.
type EraseResult struct {
	Users   int64
	Wagers  int64
	Records int64
}

// PriceStore is the read/write contract to the price series. The feed
// appends ticks; the resolver and handlers only read.
type PriceStore interface {
	InsertPriceTicks(ctx context.Context, items []models.PriceTick) error
	LatestPriceTick(ctx context.Context, currency string) (*models.PriceTick, error)
	PriceTickAtOrAfter(ctx context.Context, currency string, at time.Time) (*models.PriceTick, error)
	ListPriceTicksSince(ctx context.Context, currency string, since time.Time, limit int) ([]models.PriceTick, error)
	DeletePriceTicksBefore(ctx context.Context, before time.Time) (int64, error)
}

// WagerStore holds wager and settlement-record documents.
//
// CompleteWager is the engine's single correctness mechanism: it performs a
// conditional update (status completed only where status is still active)
// and reports whether this caller won the transition. Concurrent callers on
// the same ripe wager see exactly one true.
type WagerStore interface {
	InsertWager(ctx context.Context, item *models.Wager) error
	GetWagerByID(ctx context.Context, id string) (*models.Wager, error)
	GetActiveWagerByOwner(ctx context.Context, ownerID string) (*models.Wager, error)
	ListActiveWagersPlacedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Wager, error)
	CompleteWager(ctx context.Context, id string, settlement WagerSettlement) (bool, error)

	InsertSettlementRecord(ctx context.Context, item *models.SettlementRecord) error
	GetSettlementRecordByWagerID(ctx context.Context, wagerID string) (*models.SettlementRecord, error)
}

// UserStore owns user accounts. Score, wins and losses are only written
// through UpdateUserStats (the score ledger).
type UserStore interface {
	InsertUser(ctx context.Context, item *models.UserAccount) error
	GetUserByOwnerID(ctx context.Context, ownerID string) (*models.UserAccount, error)
	GetUserByUsername(ctx context.Context, username string) (*models.UserAccount, error)
	UpdateUsername(ctx context.Context, ownerID, username string, at time.Time) (bool, error)
	UpdateUserStats(ctx context.Context, ownerID string, score, wins, losses int, at time.Time) (bool, error)
	ListTopUsers(ctx context.Context, limit int) ([]models.UserAccount, error)
	CountUsers(ctx context.Context) (int64, error)
	EraseOwner(ctx context.Context, ownerID string) (EraseResult, error)
}

// Repository is the unified store handed to handlers and services.
type Repository interface {
	PriceStore
	WagerStore
	UserStore

	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
