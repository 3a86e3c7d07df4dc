package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nomis52/netactivity/indicator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestActivityMetrics(t *testing.T) (*ActivityMetrics, *ScrapeRegistry) {
	t.Helper()
	registry, err := NewScrapeRegistry()
	require.NoError(t, err)
	m, err := NewActivityMetrics(registry)
	require.NoError(t, err)
	return m, registry
}

func TestNewActivityMetrics(t *testing.T) {
	m, _ := newTestActivityMetrics(t)
	require.NotNil(t, m)
}

func TestNewActivityMetrics_DuplicateRegistration(t *testing.T) {
	registry, err := NewScrapeRegistry()
	require.NoError(t, err)

	_, err = NewActivityMetrics(registry)
	require.NoError(t, err)

	_, err = NewActivityMetrics(registry)
	assert.Error(t, err)
}

func TestActivityMetrics_WithCounter(t *testing.T) {
	m, registry := newTestActivityMetrics(t)
	counter := indicator.New(indicator.WithIndicator(m), indicator.WithObserver(m))

	counter.Increment()
	counter.Increment()

	prom := registry.PrometheusRegistry()
	assertGauge(t, prom, InFlightMetric, 2)
	assertGauge(t, prom, VisibleMetric, 1)

	counter.Decrement()
	counter.Decrement()
	counter.Decrement()

	assertGauge(t, prom, InFlightMetric, 0)
	assertGauge(t, prom, VisibleMetric, 0)

	w := httptest.NewRecorder()
	registry.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `network_activity_transitions_total{direction="start"} 1`)
	assert.Contains(t, body, `network_activity_transitions_total{direction="stop"} 1`)
	assert.Contains(t, body, "network_activity_ignored_decrements_total 1")
}

// assertGauge checks the value of an unlabelled gauge in reg.
func assertGauge(t *testing.T, reg *prometheus.Registry, name string, want float64) {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		require.Len(t, mf.GetMetric(), 1)
		assert.Equal(t, want, mf.GetMetric()[0].GetGauge().GetValue())
		return
	}
	t.Fatalf("metric %q not found", name)
}

func TestActivityMetrics_OnlyStartedDirectionExported(t *testing.T) {
	m, registry := newTestActivityMetrics(t)
	m.SetVisible(true)

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == TransitionsMetric {
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, 1.0, mf.GetMetric()[0].GetCounter().GetValue())
			return
		}
	}
	t.Fatalf("metric %q not found", TransitionsMetric)
}

func TestActivityMetrics_Discard(t *testing.T) {
	m, err := NewActivityMetrics(Discard)
	require.NoError(t, err)

	counter := indicator.New(indicator.WithIndicator(m), indicator.WithObserver(m))
	counter.Increment()
	counter.Decrement()
	counter.Decrement()
	assert.Equal(t, 0, counter.Count())
}
