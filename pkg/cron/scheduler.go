// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"

	cronv3 "github.com/robfig/cron/v3"
)

// Refreshable is anything with cached state worth refreshing on a schedule.
type Refreshable interface {
	Refresh(ctx context.Context)
}

// Scheduler keeps the exchange-rate cache warm in the background.
type Scheduler struct {
	cron   *cronv3.Cron
	target Refreshable
	logger *slog.Logger
}

// NewScheduler creates a scheduler around the given refresh target.
func NewScheduler(target Refreshable, logger *slog.Logger) *Scheduler {
	c := cronv3.New(cronv3.WithLogger(cronv3.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))
	return &Scheduler{
		cron:   c,
		target: target,
		logger: logger,
	}
}

// Start begins scheduled jobs. Rates refresh slightly inside their TTL so
// tracked pairs never serve stale values between fetches.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.target.Refresh(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}
