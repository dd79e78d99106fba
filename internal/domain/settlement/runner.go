package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bonuslab/loyalty-api/internal/domain/pending"
)

// Store is the slice of the pending credit manager the runner drives.
type Store interface {
	SettleMatured(ctx context.Context, subscriberID *int64) (pending.Result, error)
	PruneTransferred(ctx context.Context, cutoff time.Time) (int64, error)
	CountStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Summary is the outcome of one settlement run.
type Summary struct {
	Skipped      bool    `json:"skipped"`
	SettledCount int     `json:"settled_count"`
	SettledTotal float64 `json:"settled_total"`
	Pruned       int64   `json:"pruned"`
	Stale        int64   `json:"stale"`
}

// Runner executes one settlement cycle: settle everything matured,
// prune old settled rows, and check for entries stuck past the stale
// threshold. Only one runner proceeds at a time cluster-wide.
type Runner struct {
	store       Store
	locker      Locker
	retention   time.Duration
	staleAfter  time.Duration
	backlogWarn int
}

func NewRunner(store Store, locker Locker, retention, staleAfter time.Duration, backlogWarn int) *Runner {
	return &Runner{
		store:       store,
		locker:      locker,
		retention:   retention,
		staleAfter:  staleAfter,
		backlogWarn: backlogWarn,
	}
}

// Run performs a full cycle. A run that loses the lock race returns a
// Summary with Skipped set and no error.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	acquired, err := r.locker.TryLock(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("settlement lock: %w", err)
	}
	if !acquired {
		log.Info().Msg("Settlement already running elsewhere, skipping")
		return Summary{Skipped: true}, nil
	}
	defer r.locker.Unlock(ctx)

	started := time.Now()

	result, err := r.store.SettleMatured(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("settle matured: %w", err)
	}
	if r.backlogWarn > 0 && result.Count >= r.backlogWarn {
		log.Warn().
			Int("settled", result.Count).
			Int("threshold", r.backlogWarn).
			Msg("Settlement backlog unusually large")
	}

	pruned, err := r.store.PruneTransferred(ctx, started.Add(-r.retention))
	if err != nil {
		return Summary{}, fmt.Errorf("prune transferred: %w", err)
	}

	stale, err := r.store.CountStale(ctx, started.Add(-r.staleAfter))
	if err != nil {
		return Summary{}, fmt.Errorf("count stale: %w", err)
	}
	if stale > 0 {
		log.Warn().
			Int64("count", stale).
			Dur("stale_after", r.staleAfter).
			Msg("Unsettled entries stuck past stale threshold")
	}

	log.Info().
		Int("settled", result.Count).
		Float64("amount", result.Amount).
		Int64("pruned", pruned).
		Int64("stale", stale).
		Dur("elapsed", time.Since(started)).
		Msg("Settlement run finished")

	return Summary{
		SettledCount: result.Count,
		SettledTotal: result.Amount,
		Pruned:       pruned,
		Stale:        stale,
	}, nil
}
