package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names exported by ProbeMetrics. Each carries a "target" label.
const (
	ProbeUpMetric       = "probe_up"
	ProbeDurationMetric = "probe_duration_seconds"
	ProbeFailuresMetric = "probe_failures_total"
)

// ProbeMetrics exports the outcome of reachability probes per target.
// It satisfies probe.ResultObserver.
type ProbeMetrics struct {
	up       GaugeVec
	duration GaugeVec
	failures CounterVec
}

// NewProbeMetrics registers the probe metrics with registry.
func NewProbeMetrics(registry Registry) (*ProbeMetrics, error) {
	up, err := registry.NewGaugeVec(prometheus.GaugeOpts{
		Name: ProbeUpMetric,
		Help: "1 if the last probe of the target succeeded, 0 otherwise.",
	}, []string{"target"})
	if err != nil {
		return nil, fmt.Errorf("creating probe up gauge: %w", err)
	}

	duration, err := registry.NewGaugeVec(prometheus.GaugeOpts{
		Name: ProbeDurationMetric,
		Help: "Duration of the last probe of the target.",
	}, []string{"target"})
	if err != nil {
		return nil, fmt.Errorf("creating probe duration gauge: %w", err)
	}

	failures, err := registry.NewCounterVec(prometheus.CounterOpts{
		Name: ProbeFailuresMetric,
		Help: "Number of failed probes of the target.",
	}, []string{"target"})
	if err != nil {
		return nil, fmt.Errorf("creating probe failures counter: %w", err)
	}

	return &ProbeMetrics{up: up, duration: duration, failures: failures}, nil
}

// ObserveProbe records one probe of target.
func (m *ProbeMetrics) ObserveProbe(target string, ok bool, duration time.Duration) {
	labels := prometheus.Labels{"target": target}
	m.duration.With(labels).Set(duration.Seconds())
	if ok {
		m.up.With(labels).Set(1)
		return
	}
	m.up.With(labels).Set(0)
	m.failures.With(labels).Inc()
}
