package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"DjenScanner/internal/ports"
)

// Scheduler wires the cron driver to the extraction cycle and forwards each
// finished report to the optional notifier.
type Scheduler struct {
	driver    ports.Scheduler
	extractor *Extractor
	notifier  ports.Notifier
	logger    *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring extraction.
func NewScheduler(driver ports.Scheduler, extractor *Extractor, notifier ports.Notifier, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{driver: driver, extractor: extractor, notifier: notifier, logger: logger}
}

// Start registers the daily cycle with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.extractor == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled extraction triggered", "at", trigger)
		report := s.extractor.RunCycle(ctx, "", "")

		if s.notifier == nil {
			return
		}
		if err := s.notifier.PublishReport(ctx, report); err != nil {
			s.logger.Warn("publish cycle report", "cycle_id", report.ID, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
