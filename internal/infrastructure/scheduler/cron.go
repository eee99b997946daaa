package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"DjenScanner/internal/ports"
)

// CronScheduler triggers jobs on a cron expression in a fixed timezone.
type CronScheduler struct {
	spec     string
	location *time.Location
	cron     *cron.Cron
	logger   *slog.Logger
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, location *time.Location, logger *slog.Logger) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CronScheduler{spec: spec, location: location, logger: logger}
}

// Start registers the job and begins the cron loop. Idempotent: a second call
// while running is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if c.cron != nil {
		return nil
	}

	runner := cron.New(cron.WithLocation(c.location))
	if _, err := runner.AddFunc(c.spec, func() {
		job(time.Now().In(c.location))
	}); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.spec, err)
	}

	runner.Start()
	c.cron = runner
	c.logger.Info("scheduler started", "spec", c.spec, "timezone", c.location.String())

	go func() {
		<-ctx.Done()
		runner.Stop()
	}()

	return nil
}

// Stop halts the cron loop, waiting for a running job up to the context.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.cron == nil {
		return nil
	}

	stopped := c.cron.Stop()
	c.cron = nil

	select {
	case <-stopped.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	c.logger.Info("scheduler stopped")
	return nil
}

// NextRun reports the upcoming trigger time for the status endpoint.
func (c *CronScheduler) NextRun() (time.Time, bool) {
	if c.cron == nil {
		return time.Time{}, false
	}
	entries := c.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0].Next, true
}
