package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ScrapeRegistry implements Registry for scrape-based metrics collection.
// Metrics are registered with a Prometheus registry and exposed via HTTP.
type ScrapeRegistry struct {
	prom      *prometheus.Registry
	registrar prometheus.Registerer
	runtime   bool
}

// ScrapeOption configures a ScrapeRegistry.
type ScrapeOption func(*ScrapeRegistry)

// WithNamespace prefixes every metric created through the registry with
// namespace and an underscore, matching PushConfig.Prefix in push mode.
// Runtime collectors are not prefixed.
func WithNamespace(namespace string) ScrapeOption {
	return func(r *ScrapeRegistry) {
		if namespace != "" {
			r.registrar = prometheus.WrapRegistererWithPrefix(namespace+"_", r.prom)
		}
	}
}

// WithoutRuntimeCollectors skips the Go, process and build info collectors.
func WithoutRuntimeCollectors() ScrapeOption {
	return func(r *ScrapeRegistry) {
		r.runtime = false
	}
}

// NewScrapeRegistry creates a new ScrapeRegistry.
func NewScrapeRegistry(opts ...ScrapeOption) (*ScrapeRegistry, error) {
	reg := prometheus.NewRegistry()
	r := &ScrapeRegistry{
		prom:      reg,
		registrar: reg,
		runtime:   true,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.runtime {
		runtime := []prometheus.Collector{
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		}
		for _, c := range runtime {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("registering runtime collector: %w", err)
			}
		}
	}

	return r, nil
}

// Handler returns an http.Handler for the /metrics endpoint.
func (r *ScrapeRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *ScrapeRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prom
}

func (r *ScrapeRegistry) register(kind, name string, c prometheus.Collector) error {
	if err := r.registrar.Register(c); err != nil {
		return fmt.Errorf("registering %s %q: %w", kind, name, err)
	}
	return nil
}

// NewGauge creates and registers a new Gauge.
func (r *ScrapeRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	g := prometheus.NewGauge(opts)
	if err := r.register("gauge", opts.Name, g); err != nil {
		return nil, err
	}
	return g, nil
}

// NewGaugeVec creates and registers a new GaugeVec.
func (r *ScrapeRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error) {
	g := prometheus.NewGaugeVec(opts, labels)
	if err := r.register("gauge vec", opts.Name, g); err != nil {
		return nil, err
	}
	return scrapeGaugeVec{g}, nil
}

// NewCounter creates and registers a new Counter.
func (r *ScrapeRegistry) NewCounter(opts prometheus.CounterOpts) (Counter, error) {
	c := prometheus.NewCounter(opts)
	if err := r.register("counter", opts.Name, c); err != nil {
		return nil, err
	}
	return c, nil
}

// NewCounterVec creates and registers a new CounterVec.
func (r *ScrapeRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	c := prometheus.NewCounterVec(opts, labels)
	if err := r.register("counter vec", opts.Name, c); err != nil {
		return nil, err
	}
	return scrapeCounterVec{c}, nil
}

// prometheus.Gauge and prometheus.Counter already satisfy Gauge and Counter;
// only the vectors need adapting because With returns the concrete
// prometheus types.

type scrapeGaugeVec struct {
	*prometheus.GaugeVec
}

func (g scrapeGaugeVec) With(labels prometheus.Labels) Gauge {
	return g.GaugeVec.With(labels)
}

type scrapeCounterVec struct {
	*prometheus.CounterVec
}

func (c scrapeCounterVec) With(labels prometheus.Labels) Counter {
	return c.CounterVec.With(labels)
}
