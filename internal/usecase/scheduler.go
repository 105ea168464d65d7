package usecase

import (
	"context"
	"time"

	"ObituaryScanner/internal/ports"
)

// Scheduler wires the cron-like driver with the collector use case.
type Scheduler struct {
	driver    ports.Scheduler
	collector *Collector
}

// NewScheduler returns a helper to start/stop recurring collection runs.
func NewScheduler(driver ports.Scheduler, collector *Collector) *Scheduler {
	return &Scheduler{driver: driver, collector: collector}
}

// Start registers the collector with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.collector == nil {
		return nil
	}

	job := func(time.Time) {
		_, _ = s.collector.Collect(ctx)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
