package pricefeed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hega4444/btcgame/internal/client/binance"
	"github.com/hega4444/btcgame/internal/client/exchangerate"
	"github.com/hega4444/btcgame/internal/config"
	"github.com/hega4444/btcgame/internal/repository"
)

// Stream is the websocket-backed alternative to the REST Updater: it
// consumes the Binance trade stream but still only persists one tick
// batch per poll interval, so the stored series keeps the same cadence
// either way.
type Stream struct {
	Repo   repository.PriceStore
	Rates  *exchangerate.Client
	Logger *zap.Logger
	Config config.PriceFeedConfig

	AfterIngest func(context.Context)

	mu        sync.Mutex
	lastWrite time.Time
}

func (s *Stream) Run(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	stream := binance.NewTradeStream(binance.TradeStreamOptions{
		URL:    s.Config.Binance.StreamURL,
		Logger: s.Logger,
	})
	return stream.Run(ctx, func(event binance.TradeEvent) {
		s.handleTrade(ctx, event)
	})
}

func (s *Stream) handleTrade(ctx context.Context, event binance.TradeEvent) {
	interval := s.Config.PollInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	now := time.Now().UTC()

	s.mu.Lock()
	if now.Sub(s.lastWrite) < interval {
		s.mu.Unlock()
		return
	}
	s.lastWrite = now
	s.mu.Unlock()

	priceUSD, err := event.PriceDecimal()
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("trade event price unparseable", zap.String("price", event.Price), zap.Error(err))
		}
		return
	}

	rates := exchangerate.FallbackRates()
	if s.Rates != nil {
		fetched, err := s.Rates.LatestUSD(ctx)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("exchange rates fetch failed, using fallback", zap.Error(err))
			}
		} else {
			rates = fetched
		}
	}

	ticks := buildTicks(priceUSD, rates, s.Config.Currencies, now)
	if len(ticks) == 0 {
		return
	}
	if err := s.Repo.InsertPriceTicks(ctx, ticks); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("price tick insert failed", zap.Error(err))
		}
		return
	}
	if s.Logger != nil {
		s.Logger.Info("btc price updated from stream",
			zap.String("usd", priceUSD.Round(3).String()),
			zap.Int("currencies", len(ticks)),
		)
	}
	if s.AfterIngest != nil {
		s.AfterIngest(ctx)
	}
}
