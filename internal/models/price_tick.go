package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceTick is one timestamped price observation for a currency.
// Ticks are append-only; the feed writes them, nothing mutates them.
type PriceTick struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	Currency  string          `gorm:"type:varchar(10);not null;index:idx_price_ticks_currency_ts,priority:1"`
	Price     decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Timestamp time.Time       `gorm:"type:timestamptz;not null;index:idx_price_ticks_currency_ts,priority:2"`
}

func (PriceTick) TableName() string {
	return "price_ticks"
}
