package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hega4444/btcgame/internal/models"
	"github.com/hega4444/btcgame/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- price series ------------------------------------------------------------

func (s *Store) InsertPriceTicks(ctx context.Context, items []models.PriceTick) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].Currency = strings.ToLower(strings.TrimSpace(items[i].Currency))
	}
	return s.db.WithContext(ctx).Create(&items).Error
}

func (s *Store) LatestPriceTick(ctx context.Context, currency string) (*models.PriceTick, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.PriceTick
	err := s.db.WithContext(ctx).
		Where("currency = ?", normalizeCurrency(currency)).
		Order("timestamp desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) PriceTickAtOrAfter(ctx context.Context, currency string, at time.Time) (*models.PriceTick, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.PriceTick
	err := s.db.WithContext(ctx).
		Where("currency = ?", normalizeCurrency(currency)).
		Where("timestamp >= ?", at).
		Order("timestamp asc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListPriceTicksSince(ctx context.Context, currency string, since time.Time, limit int) ([]models.PriceTick, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 200)
	var items []models.PriceTick
	err := s.db.WithContext(ctx).
		Where("currency = ?", normalizeCurrency(currency)).
		Where("timestamp >= ?", since).
		Order("timestamp desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeletePriceTicksBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("timestamp < ?", before).
		Delete(&models.PriceTick{})
	return res.RowsAffected, res.Error
}

// --- wagers ------------------------------------------------------------------

func (s *Store) InsertWager(ctx context.Context, item *models.Wager) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.Currency = normalizeCurrency(item.Currency)
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetWagerByID(ctx context.Context, id string) (*models.Wager, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Wager
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetActiveWagerByOwner(ctx context.Context, ownerID string) (*models.Wager, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Wager
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("status = ?", models.WagerStatusActive).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListActiveWagersPlacedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Wager, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 200)
	var items []models.Wager
	err := s.db.WithContext(ctx).
		Where("status = ?", models.WagerStatusActive).
		Where("placed_at <= ?", cutoff).
		Order("placed_at asc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CompleteWager flips a wager to completed only if it is still active.
// RowsAffected tells the caller whether it won the transition; a false
// return with nil error means another caller settled first.
func (s *Store) CompleteWager(ctx context.Context, id string, settlement repository.WagerSettlement) (bool, error) {
	if s == nil || s.db == nil || id == "" {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Wager{}).
		Where("id = ?", id).
		Where("status = ?", models.WagerStatusActive).
		Updates(map[string]any{
			"status":           models.WagerStatusCompleted,
			"won":              settlement.Won,
			"settlement_price": settlement.SettlementPrice,
			"completed_at":     settlement.CompletedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// --- settlement records ------------------------------------------------------

func (s *Store) InsertSettlementRecord(ctx context.Context, item *models.SettlementRecord) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetSettlementRecordByWagerID(ctx context.Context, wagerID string) (*models.SettlementRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SettlementRecord
	err := s.db.WithContext(ctx).Where("wager_id = ?", wagerID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- users -------------------------------------------------------------------

func (s *Store) InsertUser(ctx context.Context, item *models.UserAccount) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetUserByOwnerID(ctx context.Context, ownerID string) (*models.UserAccount, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.UserAccount
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.UserAccount
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateUsername(ctx context.Context, ownerID, username string, at time.Time) (bool, error) {
	if s == nil || s.db == nil || ownerID == "" {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.UserAccount{}).
		Where("owner_id = ?", ownerID).
		Updates(map[string]any{
			"username":     strings.TrimSpace(username),
			"last_updated": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) UpdateUserStats(ctx context.Context, ownerID string, score, wins, losses int, at time.Time) (bool, error) {
	if s == nil || s.db == nil || ownerID == "" {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.UserAccount{}).
		Where("owner_id = ?", ownerID).
		Updates(map[string]any{
			"score":        score,
			"wins":         wins,
			"losses":       losses,
			"last_updated": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ListTopUsers(ctx context.Context, limit int) ([]models.UserAccount, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 10)
	var items []models.UserAccount
	err := s.db.WithContext(ctx).
		Model(&models.UserAccount{}).
		Order("score desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).Model(&models.UserAccount{}).Count(&total).Error
	return total, err
}

// EraseOwner removes the account and everything keyed to it in one
// transaction, for the user-data-deletion endpoint.
func (s *Store) EraseOwner(ctx context.Context, ownerID string) (repository.EraseResult, error) {
	var result repository.EraseResult
	if s == nil || s.db == nil || ownerID == "" {
		return result, nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("owner_id = ?", ownerID).Delete(&models.SettlementRecord{})
		if res.Error != nil {
			return res.Error
		}
		result.Records = res.RowsAffected

		res = tx.Where("owner_id = ?", ownerID).Delete(&models.Wager{})
		if res.Error != nil {
			return res.Error
		}
		result.Wagers = res.RowsAffected

		res = tx.Where("owner_id = ?", ownerID).Delete(&models.UserAccount{})
		if res.Error != nil {
			return res.Error
		}
		result.Users = res.RowsAffected
		return nil
	})
	if err != nil {
		return repository.EraseResult{}, err
	}
	return result, nil
}

// --- helpers -----------------------------------------------------------------

func normalizeCurrency(currency string) string {
	return strings.ToLower(strings.TrimSpace(currency))
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
