// Package reaper expires matches that have been idle for too long.
package reaper

import (
	"context"
	"time"

	"github.com/dmitrijs2005/jigsawhub/internal/logging"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
)

const lockKey = "jigsawhub:reaper"

type Expirer interface {
	ExpireIdle(ctx context.Context, olderThan time.Duration) ([]*models.Match, error)
}

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) (bool, error)
}

type Reaper struct {
	matches  Expirer
	locker   Locker
	idle     time.Duration
	interval time.Duration
	log      logging.Logger
}

// DefaultInterval is used when New is given a non-positive interval.
const DefaultInterval = time.Minute

func New(matches Expirer, locker Locker, idle, interval time.Duration, log logging.Logger) *Reaper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reaper{
		matches:  matches,
		locker:   locker,
		idle:     idle,
		interval: interval,
		log:      log.With("module", "reaper"),
	}
}

// Run sweeps every interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	r.log.Info(ctx, "Starting reaper", "idle_timeout", r.idle, "interval", r.interval)

	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info(ctx, "Stopping reaper...")
			return
		case <-t.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.log.Error(ctx, "sweep failed", "error", err)
			}
		}
	}
}

// Sweep runs one pass if this instance wins the lock and returns the number
// of matches expired.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	ok, err := r.locker.TryLock(ctx, lockKey, r.interval)
	if err != nil {
		return 0, err
	}
	if !ok {
		r.log.Debug(ctx, "another instance holds the reaper lock")
		return 0, nil
	}
	defer func() {
		if _, err := r.locker.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
			r.log.Warn(ctx, "releasing reaper lock failed", "error", err)
		}
	}()

	expired, err := r.matches.ExpireIdle(ctx, r.idle)
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}
