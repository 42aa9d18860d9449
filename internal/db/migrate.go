package db

import (
	"github.com/hega4444/btcgame/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.PriceTick{},
		&models.Wager{},
		&models.SettlementRecord{},
		&models.UserAccount{},
	)
}
