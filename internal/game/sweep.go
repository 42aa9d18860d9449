package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hega4444/btcgame/internal/repository"
)

const (
	DefaultSweepGrace     = 100 * time.Millisecond
	DefaultSweepBatchSize = 200
)

// Sweeper settles wagers whose owner stopped polling. It runs once per
// price ingestion cycle (the feed calls RunOnce after writing ticks) and
// can also run on its own ticker as a fallback. Because TrySettle is
// idempotent the sweep may overlap client polls freely.
type Sweeper struct {
	Wagers   repository.WagerStore
	Resolver *Resolver
	Logger   *zap.Logger

	Grace     time.Duration
	BatchSize int

	// Now is a test seam; nil means wall clock.
	Now func() time.Time
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Sweeper) grace() time.Duration {
	if s.Grace > 0 {
		return s.Grace
	}
	return DefaultSweepGrace
}

// Run drives RunOnce on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	if s == nil || s.Resolver == nil {
		return nil
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil && s.Logger != nil {
			s.Logger.Warn("sweep run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// RunOnce finds active wagers past their settlement age plus grace and
// drives each through TrySettle. A failure on one wager is logged and the
// sweep moves on to the rest.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	if s == nil || s.Wagers == nil || s.Resolver == nil {
		return nil
	}
	cutoff := s.now().Add(-(s.Resolver.settleDuration() + s.grace()))
	batch := s.BatchSize
	if batch <= 0 {
		batch = DefaultSweepBatchSize
	}
	items, err := s.Wagers.ListActiveWagersPlacedBefore(ctx, cutoff, batch)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	settled := 0
	for _, w := range items {
		record, err := s.Resolver.TrySettle(ctx, w.ID)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("sweep settle failed",
					zap.String("wager_id", w.ID),
					zap.Error(err),
				)
			}
			continue
		}
		if record != nil {
			settled++
		}
	}
	if settled > 0 && s.Logger != nil {
		s.Logger.Info("sweep settled stale wagers",
			zap.Int("count", settled),
			zap.Int("candidates", len(items)),
		)
	}
	return nil
}
