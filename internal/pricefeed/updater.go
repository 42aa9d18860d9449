package pricefeed

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hega4444/btcgame/internal/client/binance"
	"github.com/hega4444/btcgame/internal/client/exchangerate"
	"github.com/hega4444/btcgame/internal/config"
	"github.com/hega4444/btcgame/internal/models"
	"github.com/hega4444/btcgame/internal/repository"
)

// Updater polls the Binance REST ticker, converts the USD price into each
// configured currency and appends one tick per currency. Each successful
// cycle fires AfterIngest, which is where the wager sweep is hooked in.
type Updater struct {
	Repo    repository.PriceStore
	Binance *binance.Client
	Rates   *exchangerate.Client
	Logger  *zap.Logger
	Config  config.PriceFeedConfig

	AfterIngest func(context.Context)
}

func (u *Updater) Run(ctx context.Context) error {
	if u == nil || u.Repo == nil || u.Binance == nil {
		return nil
	}
	interval := u.Config.PollInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		if err := u.RunOnce(ctx); err != nil && u.Logger != nil {
			u.Logger.Warn("price update failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (u *Updater) RunOnce(ctx context.Context) error {
	priceUSD, err := u.Binance.TickerPrice(ctx, u.Config.Binance.Symbol)
	if err != nil {
		return err
	}

	rates := exchangerate.FallbackRates()
	if u.Rates != nil {
		fetched, err := u.Rates.LatestUSD(ctx)
		if err != nil {
			if u.Logger != nil {
				u.Logger.Warn("exchange rates fetch failed, using fallback", zap.Error(err))
			}
		} else {
			rates = fetched
		}
	}

	now := time.Now().UTC()
	ticks := buildTicks(priceUSD, rates, u.Config.Currencies, now)
	if len(ticks) == 0 {
		return nil
	}
	if err := u.Repo.InsertPriceTicks(ctx, ticks); err != nil {
		return err
	}
	if u.Logger != nil {
		u.Logger.Info("btc price updated",
			zap.String("usd", priceUSD.Round(3).String()),
			zap.Int("currencies", len(ticks)),
		)
	}
	if u.AfterIngest != nil {
		u.AfterIngest(ctx)
	}
	return nil
}

// buildTicks converts the USD spot price into one tick per requested
// currency, rounded to 3 decimal places. Currencies without a known rate
// are skipped.
func buildTicks(priceUSD decimal.Decimal, rates exchangerate.Rates, currencies []string, ts time.Time) []models.PriceTick {
	out := make([]models.PriceTick, 0, len(currencies))
	for _, currency := range currencies {
		currency = strings.ToLower(strings.TrimSpace(currency))
		if currency == "" {
			continue
		}
		rate, ok := rates[currency]
		if !ok || rate.LessThanOrEqual(decimal.Zero) {
			continue
		}
		out = append(out, models.PriceTick{
			Currency:  currency,
			Price:     priceUSD.Mul(rate).Round(3),
			Timestamp: ts,
		})
	}
	return out
}
