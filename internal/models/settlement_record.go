package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRecord is the immutable outcome of one completed wager,
// written in the same logical transaction as the active -> completed flip.
// One-to-one with a completed wager via the unique wager_id index.
type SettlementRecord struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement"`
	WagerID      string          `gorm:"type:char(24);not null;uniqueIndex"`
	OwnerID      string          `gorm:"type:varchar(64);not null;index"`
	Won          bool            `gorm:"not null"`
	ScoreDelta   int             `gorm:"not null"`
	InitialPrice decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	FinalPrice   decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Timestamp    time.Time       `gorm:"type:timestamptz;not null"`
}

func (SettlementRecord) TableName() string {
	return "settlement_records"
}
