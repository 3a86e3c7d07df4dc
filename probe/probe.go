// Package probe checks that configured HTTP endpoints are reachable.
//
// Every probe goes through an httptrack client, so a probe run shows up on
// the network activity indicator like any other traffic.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of probing one target.
type Result struct {
	Target     string        `json:"target"`
	StatusCode int           `json:"status_code,omitempty"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// OK reports whether the target answered with a 2xx status.
func (r Result) OK() bool {
	return r.Err == nil
}

// ResultObserver is told about every probe as it completes.
type ResultObserver interface {
	ObserveProbe(target string, ok bool, duration time.Duration)
}

// Prober probes a fixed set of targets.
type Prober struct {
	targets     []string
	client      *http.Client
	logger      *slog.Logger
	concurrency int
	observer    ResultObserver

	mu   sync.RWMutex
	last []Result
}

// Option configures a Prober.
type Option func(*Prober)

// WithResultObserver reports every probe outcome to o, for example a
// metrics.ProbeMetrics.
func WithResultObserver(o ResultObserver) Option {
	return func(p *Prober) {
		p.observer = o
	}
}

// New creates a Prober. The client should be built with httptrack.NewClient
// so probes are counted as network activity.
func New(targets []string, client *http.Client, logger *slog.Logger, concurrency int, opts ...Option) *Prober {
	if concurrency <= 0 {
		concurrency = 1
	}
	p := &Prober{
		targets:     targets,
		client:      client,
		logger:      logger,
		concurrency: concurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run probes every target, at most concurrency at a time, and returns the
// joined errors of the targets that failed.
func (p *Prober) Run(ctx context.Context) error {
	results := make([]Result, len(p.targets))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, target := range p.targets {
		g.Go(func() error {
			r := p.probe(ctx, target)
			if p.observer != nil {
				p.observer.ObserveProbe(r.Target, r.OK(), r.Duration)
			}
			results[i] = r
			return nil
		})
	}
	// Probe failures are carried in results, never returned to the group.
	_ = g.Wait()

	p.mu.Lock()
	p.last = results
	p.mu.Unlock()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Target, r.Err))
		}
	}
	return errors.Join(errs...)
}

// LastResults returns a copy of the results of the most recent run.
func (p *Prober) LastResults() []Result {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Result, len(p.last))
	copy(out, p.last)
	return out
}

func (p *Prober) probe(ctx context.Context, target string) Result {
	start := time.Now()
	result := Result{Target: target}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		result.Err = fmt.Errorf("creating request: %w", err)
		p.logger.Warn("probe failed", "target", target, "error", result.Err)
		return result
	}

	resp, err := p.client.Do(req)
	if err != nil {
		result.Duration = time.Since(start)
		result.Err = err
		p.logger.Warn("probe failed", "target", target, "error", err)
		return result
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused and the activity claim ends at EOF.
	_, _ = io.Copy(io.Discard, resp.Body)

	result.StatusCode = resp.StatusCode
	result.Duration = time.Since(start)
	if resp.StatusCode/100 != 2 {
		result.Err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		p.logger.Warn("probe failed", "target", target, "status", resp.StatusCode)
		return result
	}

	p.logger.Info("probe succeeded", "target", target, "status", resp.StatusCode, "duration", result.Duration)
	return result
}
