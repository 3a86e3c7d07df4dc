// Package metrics exports network activity as Prometheus-compatible metrics.
//
// The package supports three modes of operation:
//   - Scrape mode: Metrics are registered with a Prometheus registry and exposed on /metrics
//   - Push mode: Metrics are pushed to a VictoriaMetrics/Prometheus remote write endpoint
//   - Discard: Metrics are accepted and dropped
//
// ActivityMetrics connects an indicator.Counter to any of them.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Gauge is a value that can go up and down.
type Gauge interface {
	Set(float64)
}

// Counter only increases. Add panics if the value is negative.
type Counter interface {
	Inc()
	Add(float64)
}

// GaugeVec returns the Gauge for a label set.
type GaugeVec interface {
	With(prometheus.Labels) Gauge
}

// CounterVec returns the Counter for a label set.
type CounterVec interface {
	With(prometheus.Labels) Counter
}

// Registry creates and registers metrics.
// Implementations handle the differences between push and scrape modes.
type Registry interface {
	NewGauge(opts prometheus.GaugeOpts) (Gauge, error)
	NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error)
	NewCounter(opts prometheus.CounterOpts) (Counter, error)
	NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error)
}

// Discard is a Registry whose metrics record nothing.
var Discard Registry = discardRegistry{}

type discardRegistry struct{}

func (discardRegistry) NewGauge(prometheus.GaugeOpts) (Gauge, error) { return discardMetric{}, nil }

func (discardRegistry) NewGaugeVec(prometheus.GaugeOpts, []string) (GaugeVec, error) {
	return discardMetric{}, nil
}

func (discardRegistry) NewCounter(prometheus.CounterOpts) (Counter, error) {
	return discardMetric{}, nil
}

func (discardRegistry) NewCounterVec(prometheus.CounterOpts, []string) (CounterVec, error) {
	return discardCounterVec{}, nil
}

type discardMetric struct{}

func (discardMetric) Set(float64)                  {}
func (discardMetric) Inc()                         {}
func (discardMetric) Add(float64)                  {}
func (discardMetric) With(prometheus.Labels) Gauge { return discardMetric{} }

type discardCounterVec struct{}

func (discardCounterVec) With(prometheus.Labels) Counter { return discardMetric{} }
