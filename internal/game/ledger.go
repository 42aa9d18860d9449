package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hega4444/btcgame/internal/repository"
)

// Ledger applies settlement outcomes to a user's aggregate score. It is
// the only writer of score, wins and losses.
type Ledger struct {
	Users  repository.UserStore
	Logger *zap.Logger

	// Now is a test seam; nil means wall clock.
	Now func() time.Time
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now().UTC()
}

// Apply increments wins or losses and adjusts the score by one point.
// The score is floored at zero: a loss at zero leaves it at zero rather
// than going negative. A missing account is logged and skipped so that
// settlement itself still succeeds.
func (l *Ledger) Apply(ctx context.Context, ownerID string, won bool) error {
	user, err := l.Users.GetUserByOwnerID(ctx, ownerID)
	if err != nil {
		return err
	}
	if user == nil {
		if l.Logger != nil {
			l.Logger.Warn("score update skipped, no account for owner",
				zap.String("owner_id", ownerID),
			)
		}
		return nil
	}

	score := user.Score
	wins := user.Wins
	losses := user.Losses
	if won {
		score++
		wins++
	} else {
		losses++
		if score > 0 {
			score--
		}
	}

	updated, err := l.Users.UpdateUserStats(ctx, ownerID, score, wins, losses, l.now())
	if err != nil {
		return err
	}
	if !updated && l.Logger != nil {
		l.Logger.Warn("score update matched no account",
			zap.String("owner_id", ownerID),
		)
	}
	return nil
}
