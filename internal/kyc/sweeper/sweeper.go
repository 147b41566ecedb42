// Package sweeper runs the expiry sweep on a fixed interval.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"talentkyc/internal/kyc/service"
)

// Expirer is the part of the service the sweeper drives.
type Expirer interface {
	SweepExpired(ctx context.Context, now time.Time, batchSize int) (service.SweepResult, error)
}

// Sweeper expires lapsed documents once at start and then every interval.
type Sweeper struct {
	expirer   Expirer
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func New(expirer Expirer, interval time.Duration, batchSize int, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sweeper{
		expirer:   expirer,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

// Run sweeps until ctx is cancelled. A failed sweep is logged and retried on
// the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	res, err := s.expirer.SweepExpired(ctx, s.now(), s.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.ErrorContext(ctx, "expiry sweep failed",
			"error", err,
			"expired", res.Expired,
		)
	}
}
