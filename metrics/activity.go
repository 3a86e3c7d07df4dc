package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names exported by ActivityMetrics.
const (
	InFlightMetric          = "network_activity_in_flight"
	VisibleMetric           = "network_activity_visible"
	TransitionsMetric       = "network_activity_transitions_total"
	IgnoredDecrementsMetric = "network_activity_ignored_decrements_total"
)

// ActivityMetrics exports the state of an indicator.Counter.
// It implements both indicator.Indicator and indicator.Observer, so the same
// value is passed to indicator.WithIndicator and indicator.WithObserver.
type ActivityMetrics struct {
	inFlight    Gauge
	visible     Gauge
	transitions CounterVec
	ignored     Counter
}

// NewActivityMetrics registers the activity metrics with registry.
func NewActivityMetrics(registry Registry) (*ActivityMetrics, error) {
	inFlight, err := registry.NewGauge(prometheus.GaugeOpts{
		Name: InFlightMetric,
		Help: "Number of network operations currently in flight.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating in-flight gauge: %w", err)
	}

	visible, err := registry.NewGauge(prometheus.GaugeOpts{
		Name: VisibleMetric,
		Help: "1 while the network activity indicator is shown, 0 otherwise.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating visible gauge: %w", err)
	}

	transitions, err := registry.NewCounterVec(prometheus.CounterOpts{
		Name: TransitionsMetric,
		Help: "Number of times the activity indicator was shown or hidden.",
	}, []string{"direction"})
	if err != nil {
		return nil, fmt.Errorf("creating transitions counter: %w", err)
	}

	ignored, err := registry.NewCounter(prometheus.CounterOpts{
		Name: IgnoredDecrementsMetric,
		Help: "Number of decrements received while no activity was in flight.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating ignored decrements counter: %w", err)
	}

	return &ActivityMetrics{
		inFlight:    inFlight,
		visible:     visible,
		transitions: transitions,
		ignored:     ignored,
	}, nil
}

// SetVisible implements indicator.Indicator.
func (m *ActivityMetrics) SetVisible(visible bool) {
	if visible {
		m.visible.Set(1)
		m.transitions.With(prometheus.Labels{"direction": "start"}).Inc()
		return
	}
	m.visible.Set(0)
	m.transitions.With(prometheus.Labels{"direction": "stop"}).Inc()
}

// CountChanged implements indicator.Observer.
func (m *ActivityMetrics) CountChanged(count int) {
	m.inFlight.Set(float64(count))
}

// DecrementIgnored implements indicator.Observer.
func (m *ActivityMetrics) DecrementIgnored() {
	m.ignored.Inc()
}
