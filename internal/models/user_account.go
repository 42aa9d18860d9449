package models

import "time"

// UserAccount holds a player's display name and aggregate score.
// OwnerID is the opaque client-generated identifier from the frontend;
// it is not an authenticated principal.
type UserAccount struct {
	OwnerID     string    `gorm:"primaryKey;type:varchar(64)"`
	Username    string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	Score       int       `gorm:"not null;default:0"`
	Wins        int       `gorm:"not null;default:0"`
	Losses      int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null"`
	LastUpdated time.Time `gorm:"type:timestamptz;not null"`
}

func (UserAccount) TableName() string {
	return "user_accounts"
}
