/**
 * @description
 * Cron scheduler setup for scheduled jobs.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/subtrack/subtrack-backend/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config config.Config
}

// NewScheduler creates a new scheduler instance. A job still running when its
// next tick fires is skipped, never run twice concurrently.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron scheduler. It fails if a
// schedule expression cannot be parsed.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.config.ReminderJobSchedule, s.jobs.DispatchDueReminders); err != nil {
		s.logger.Error("failed to schedule reminder job", "error", err)
		return err
	}
	s.logger.Info("scheduled reminder job", "schedule", s.config.ReminderJobSchedule)

	if _, err := s.cron.AddFunc(s.config.RolloverJobSchedule, s.jobs.RollOverBillingDates); err != nil {
		s.logger.Error("failed to schedule rollover job", "error", err)
		return err
	}
	s.logger.Info("scheduled rollover job", "schedule", s.config.RolloverJobSchedule)

	s.cron.Start()
	return nil
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
