// Package cron provides cron-based scheduling for probe runs.
//
// The CronTrigger type wraps a Runnable and executes it according to a cron schedule.
// It is designed to be started once and run until the context is cancelled.
//
// Example usage:
//
//	trigger, err := cron.NewCronTrigger("*/5 * * * *", prober, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	trigger.Start(ctx)  // Returns immediately, runs in background
//	<-trigger.Done()    // Closed once ctx is cancelled and the loop exits
package cron

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronSpec is returned when the cron specification cannot be parsed.
var ErrInvalidCronSpec = errors.New("invalid cron spec")

// Runnable is implemented by anything that can be triggered by the cron scheduler.
type Runnable interface {
	Run(ctx context.Context) error
}

// RunnableFunc adapts an ordinary function to a Runnable.
type RunnableFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f RunnableFunc) Run(ctx context.Context) error { return f(ctx) }

// CronTrigger executes a Runnable according to a cron schedule.
type CronTrigger struct {
	spec           string
	schedule       cron.Schedule
	runnable       Runnable
	logger         *slog.Logger
	runTimeout     time.Duration
	runImmediately bool

	startOnce sync.Once
	done      chan struct{}

	mu      sync.Mutex
	lastRun RunRecord
}

// RunRecord describes a completed run.
type RunRecord struct {
	Started  time.Time
	Duration time.Duration
	Err      error
}

// TriggerOption configures a CronTrigger.
type TriggerOption func(*CronTrigger)

// WithRunTimeout bounds each run's context by d.
func WithRunTimeout(d time.Duration) TriggerOption {
	return func(ct *CronTrigger) {
		ct.runTimeout = d
	}
}

// WithImmediateRun runs once as soon as the trigger starts, before waiting
// for the first scheduled time.
func WithImmediateRun() TriggerOption {
	return func(ct *CronTrigger) {
		ct.runImmediately = true
	}
}

// NewCronTrigger creates a new CronTrigger with the given cron specification.
// The spec follows standard cron format (5 fields: minute, hour, day, month, weekday)
// and also accepts descriptors such as "@every 30s".
// Returns ErrInvalidCronSpec if the specification cannot be parsed.
func NewCronTrigger(spec string, runnable Runnable, logger *slog.Logger, opts ...TriggerOption) (*CronTrigger, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidCronSpec, err)
	}

	ct := &CronTrigger{
		spec:     spec,
		schedule: schedule,
		runnable: runnable,
		logger:   logger,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ct)
	}
	return ct, nil
}

// Spec returns the schedule the trigger was created with.
func (ct *CronTrigger) Spec() string {
	return ct.spec
}

// Start launches a goroutine that triggers runs according to the cron schedule.
// Returns immediately. The goroutine exits when ctx is cancelled.
// Calling Start more than once has no effect.
func (ct *CronTrigger) Start(ctx context.Context) {
	ct.startOnce.Do(func() {
		go ct.loop(ctx)
	})
}

// Done is closed when the scheduling loop has exited.
func (ct *CronTrigger) Done() <-chan struct{} {
	return ct.done
}

// NextRun returns the next scheduled run time from now.
func (ct *CronTrigger) NextRun() time.Time {
	return ct.schedule.Next(time.Now())
}

// LastRun returns the most recent completed run, and false if nothing has
// run yet.
func (ct *CronTrigger) LastRun() (RunRecord, bool) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.lastRun, !ct.lastRun.Started.IsZero()
}

func (ct *CronTrigger) loop(ctx context.Context) {
	defer close(ct.done)

	if ct.runImmediately {
		ct.executeRun(ctx)
	}

	for {
		nextRun := ct.schedule.Next(time.Now())
		waitDuration := time.Until(nextRun)

		ct.logger.Debug("waiting for next scheduled probe",
			"next_run", nextRun,
			"wait_duration", waitDuration,
		)

		timer := time.NewTimer(waitDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			ct.logger.Info("cron trigger shutting down")
			return
		case <-timer.C:
			ct.executeRun(ctx)
		}
	}
}

func (ct *CronTrigger) executeRun(ctx context.Context) {
	if ct.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ct.runTimeout)
		defer cancel()
	}

	started := time.Now()
	ct.logger.Info("starting scheduled probe run")
	err := ct.runnable.Run(ctx)
	record := RunRecord{Started: started, Duration: time.Since(started), Err: err}

	ct.mu.Lock()
	ct.lastRun = record
	ct.mu.Unlock()

	if err != nil {
		ct.logger.Warn("scheduled run completed with error", "error", err, "duration", record.Duration)
	} else {
		ct.logger.Info("scheduled run completed successfully", "duration", record.Duration)
	}
}
