package pricefeed

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hega4444/btcgame/internal/client/coingecko"
	"github.com/hega4444/btcgame/internal/models"
	"github.com/hega4444/btcgame/internal/repository"
)

const (
	DefaultHistoryPoints   = 12
	DefaultHistoryInterval = 15 * time.Second
)

// History serves the chart window for a currency: the most recent N ticks
// at the ingestion cadence. When the local series is short (fresh deploy,
// feed outage) the gap is backfilled from CoinGecko and the backfilled
// ticks are persisted so the next request is served locally.
type History struct {
	Repo      repository.PriceStore
	CoinGecko *coingecko.Client
	Logger    *zap.Logger

	Points   int
	Interval time.Duration
}

func (h *History) points() int {
	if h.Points > 0 {
		return h.Points
	}
	return DefaultHistoryPoints
}

func (h *History) interval() time.Duration {
	if h.Interval > 0 {
		return h.Interval
	}
	return DefaultHistoryInterval
}

// Window returns up to Points ticks in ascending timestamp order.
func (h *History) Window(ctx context.Context, currency string) ([]models.PriceTick, error) {
	points := h.points()
	window := time.Duration(points) * h.interval()
	now := time.Now().UTC()
	since := now.Add(-window)

	ticks, err := h.Repo.ListPriceTicksSince(ctx, currency, since, points)
	if err != nil {
		return nil, err
	}
	if len(ticks) >= points || h.CoinGecko == nil {
		return ascending(ticks), nil
	}

	backfill, err := h.CoinGecko.BitcoinRange(ctx, currency, since, now)
	if err != nil {
		if len(ticks) > 0 {
			if h.Logger != nil {
				h.Logger.Warn("history backfill failed, serving partial window", zap.Error(err))
			}
			return ascending(ticks), nil
		}
		return nil, err
	}

	fresh := make([]models.PriceTick, 0, len(backfill))
	for _, p := range backfill {
		fresh = append(fresh, models.PriceTick{
			Currency:  currency,
			Price:     p.Price,
			Timestamp: p.Timestamp,
		})
	}
	if len(fresh) > 0 {
		if err := h.Repo.InsertPriceTicks(ctx, fresh); err != nil && h.Logger != nil {
			h.Logger.Warn("persisting backfilled ticks failed", zap.Error(err))
		}
	}

	return mergeWindow(ticks, fresh, points), nil
}

// mergeWindow combines the local series with backfilled points, keeps the
// most recent limit entries and returns them oldest first.
func mergeWindow(existing, backfilled []models.PriceTick, limit int) []models.PriceTick {
	merged := make([]models.PriceTick, 0, len(existing)+len(backfilled))
	merged = append(merged, existing...)
	merged = append(merged, backfilled...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp.After(merged[j].Timestamp) })
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return ascending(merged)
}

// ascending flips a newest-first slice to oldest-first for the chart.
func ascending(ticks []models.PriceTick) []models.PriceTick {
	out := make([]models.PriceTick, len(ticks))
	copy(out, ticks)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}
