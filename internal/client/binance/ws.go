package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const DefaultTradeWSSURL = "wss://stream.binance.com:9443/ws/btcusdt@trade"

// TradeEvent is one message from the <symbol>@trade stream. Field names
// follow Binance's single-letter wire format.
type TradeEvent struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	Quantity  string `json:"q"`
	TradeTime int64  `json:"T"`
}

func (e TradeEvent) PriceDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(e.Price))
}

type TradeStreamOptions struct {
	URL        string
	BackoffMin time.Duration
	BackoffMax time.Duration
	Logger     *zap.Logger
}

// TradeStream consumes the Binance trade websocket and hands every trade
// to the callback, reconnecting with jittered backoff on any failure.
type TradeStream struct {
	opts TradeStreamOptions
}

func NewTradeStream(opts TradeStreamOptions) *TradeStream {
	if opts.URL == "" {
		opts.URL = DefaultTradeWSSURL
	}
	if opts.BackoffMin == 0 {
		opts.BackoffMin = 1 * time.Second
	}
	if opts.BackoffMax == 0 {
		opts.BackoffMax = 30 * time.Second
	}
	return &TradeStream{opts: opts}
}

func (s *TradeStream) Run(ctx context.Context, onTrade func(TradeEvent)) error {
	if s == nil {
		return fmt.Errorf("stream is nil")
	}
	backoff := s.opts.BackoffMin
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, _, err := websocket.Dial(ctx, s.opts.URL, nil)
		if err != nil {
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("binance ws connect failed", zap.Error(err))
			}
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, s.opts.BackoffMax)
			continue
		}
		if s.opts.Logger != nil {
			s.opts.Logger.Info("binance ws connected", zap.String("url", s.opts.URL))
		}
		backoff = s.opts.BackoffMin

		err = s.consume(ctx, conn, onTrade)
		_ = conn.Close(websocket.StatusNormalClosure, "reconnect")
		if err == nil || errors.Is(err, context.Canceled) {
			return err
		}
		if s.opts.Logger != nil {
			s.opts.Logger.Warn("binance ws read failed", zap.Error(err))
		}
		if err := sleepWithJitter(ctx, backoff); err != nil {
			return err
		}
		backoff = nextBackoff(backoff, s.opts.BackoffMax)
	}
}

func (s *TradeStream) consume(ctx context.Context, conn *websocket.Conn, onTrade func(TradeEvent)) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var event TradeEvent
		if err := json.Unmarshal(data, &event); err != nil {
			// Skip frames that are not trade events.
			continue
		}
		if event.EventType != "trade" || strings.TrimSpace(event.Price) == "" {
			continue
		}
		onTrade(event)
	}
}

func sleepWithJitter(ctx context.Context, d time.Duration) error {
	jitter := time.Duration(rand.Int63n(int64(d)/2 + 1))
	t := time.NewTimer(d + jitter)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		next = max
	}
	return next
}
