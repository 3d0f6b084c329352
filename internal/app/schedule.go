package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"notion-herald/internal/util"
)

// DefaultSchedule is the JST time of day the serve loop sends the digest.
const DefaultSchedule = "08:00"

// NextRun returns the first JST occurrence of clock ("HH:MM") strictly after now.
func NextRun(now time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q: %w", clock, err)
	}
	local := now.In(util.JST)
	next := time.Date(local.Year(), local.Month(), local.Day(), t.Hour(), t.Minute(), 0, 0, util.JST)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

// Scheduler runs the daily digest. Build is called before every run so each
// run sees freshly loaded configuration.
type Scheduler struct {
	Clock  string
	Build  func() (*App, error)
	Logger *zap.Logger
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := s.Clock
	if clock == "" {
		clock = DefaultSchedule
	}
	for {
		next, err := NextRun(nowFunc(), clock)
		if err != nil {
			return err
		}
		logger.Info("next digest scheduled", zap.Time("at", next))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		a, err := s.Build()
		if err != nil {
			logger.Error("failed to load config for scheduled digest", zap.Error(err))
			continue
		}
		a.RunDigest(ctx, nowFunc())
	}
}
