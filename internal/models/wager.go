package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WagerStatusActive    = "active"
	WagerStatusCompleted = "completed"

	DirectionUp   = "up"
	DirectionDown = "down"
)

// Wager is a single up/down prediction tied to a price snapshot.
// Status moves active -> completed exactly once; the settlement snapshot
// columns are set by that same conditional update and never change again.
type Wager struct {
	ID               string          `gorm:"primaryKey;type:char(24)"`
	OwnerID          string          `gorm:"type:varchar(64);not null;index"`
	Currency         string          `gorm:"type:varchar(10);not null"`
	Direction        string          `gorm:"type:varchar(10);not null"`
	PriceAtPlacement decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	PlacedAt         time.Time       `gorm:"type:timestamptz;not null;index"`
	Status           string          `gorm:"type:varchar(10);not null;index"`

	// Settlement snapshot, present iff Status == completed.
	Won             *bool            `gorm:"type:boolean"`
	SettlementPrice *decimal.Decimal `gorm:"type:numeric(20,6)"`
	CompletedAt     *time.Time       `gorm:"type:timestamptz"`
}

func (Wager) TableName() string {
	return "wagers"
}

func (w *Wager) IsActive() bool {
	return w != nil && w.Status == WagerStatusActive
}
