package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Delivery modes for indicator callbacks.
const (
	DeliveryInline = "inline"
	DeliveryQueue  = "queue"
)

// Metrics modes.
const (
	MetricsScrape   = "scrape"
	MetricsPush     = "push"
	MetricsDisabled = "disabled"
)

const (
	// Default server settings
	defaultListenAddr = ":8080"

	// Default indicator settings
	defaultDelivery    = DeliveryQueue
	defaultHistorySize = 100

	// Default probe settings
	defaultProbeTimeout     = 10 * time.Second
	defaultProbeConcurrency = 4

	// Default monitoring settings
	defaultMetricsMode   = MetricsScrape
	defaultMetricsPrefix = "netactivity"
	defaultJobName       = "netactivity"

	// Default logging settings
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	defaultLogOutput = "stdout"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Indicator  IndicatorConfig  `yaml:"indicator"`
	Probe      ProbeConfig      `yaml:"probe"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	// ListenAddr is the address the status server listens on
	ListenAddr string `yaml:"listen_addr"`

	// TrackRequests counts requests served by the status server as network activity
	TrackRequests bool `yaml:"track_requests"`

	// TLSCert and TLSKey enable HTTPS when both are set. The files are
	// re-read when they change on disk.
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`
}

// IndicatorConfig controls how visibility changes are delivered
type IndicatorConfig struct {
	// Delivery is "inline" (callback runs under the counter lock) or
	// "queue" (callback runs on a dedicated goroutine, in order)
	Delivery string `yaml:"delivery"`

	// HistorySize is the number of transitions kept for /api/status
	HistorySize int `yaml:"history_size"`
}

// ProbeConfig defines periodic reachability probes
type ProbeConfig struct {
	// Schedule is a 5-field cron spec. Empty disables probing.
	Schedule    string        `yaml:"schedule"`
	Targets     []string      `yaml:"targets"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
}

// MonitoringConfig holds metrics and monitoring settings
type MonitoringConfig struct {
	Mode               string `yaml:"mode"` // scrape, push, disabled
	VictoriaMetricsURL string `yaml:"victoriametrics_url"`
	MetricsPrefix      string `yaml:"metrics_prefix"`
	JobName            string `yaml:"jobname"`
}

// LoggingConfig defines logging behavior settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	Output    string `yaml:"output"`
	AddSource bool   `yaml:"add_source"`
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return fmt.Errorf("server tls_cert and tls_key must be set together")
	}
	switch c.Indicator.Delivery {
	case DeliveryInline, DeliveryQueue:
	default:
		return fmt.Errorf("indicator delivery must be %q or %q, got %q", DeliveryInline, DeliveryQueue, c.Indicator.Delivery)
	}
	if c.Indicator.HistorySize <= 0 {
		return fmt.Errorf("indicator history size must be positive")
	}
	if c.Probe.Schedule != "" && len(c.Probe.Targets) == 0 {
		return fmt.Errorf("probe targets are required when a probe schedule is set")
	}
	for _, target := range c.Probe.Targets {
		u, err := url.Parse(target)
		if err != nil {
			return fmt.Errorf("invalid probe target %q: %w", target, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("probe target %q must be an http or https URL", target)
		}
	}
	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("probe timeout must be positive")
	}
	if c.Probe.Concurrency <= 0 {
		return fmt.Errorf("probe concurrency must be positive")
	}
	switch c.Monitoring.Mode {
	case MetricsScrape, MetricsDisabled:
	case MetricsPush:
		if c.Monitoring.VictoriaMetricsURL == "" {
			return fmt.Errorf("VictoriaMetrics URL is required in push mode")
		}
		// Push metrics are written from indicator callbacks; inline delivery
		// would make each count change wait on a remote write.
		if c.Indicator.Delivery == DeliveryInline {
			return fmt.Errorf("push mode requires %q indicator delivery", DeliveryQueue)
		}
	default:
		return fmt.Errorf("monitoring mode must be one of %q, %q, %q, got %q", MetricsScrape, MetricsPush, MetricsDisabled, c.Monitoring.Mode)
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaultListenAddr
	}
	if c.Indicator.Delivery == "" {
		c.Indicator.Delivery = defaultDelivery
	}
	if c.Indicator.HistorySize == 0 {
		c.Indicator.HistorySize = defaultHistorySize
	}
	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = defaultProbeTimeout
	}
	if c.Probe.Concurrency == 0 {
		c.Probe.Concurrency = defaultProbeConcurrency
	}
	if c.Monitoring.Mode == "" {
		c.Monitoring.Mode = defaultMetricsMode
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	// Set logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
	// Defaults for boolean fields are already false, which is appropriate
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decoding %s: %w", path, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RunTimeout bounds a whole probe run: each batch of Concurrency targets may
// take up to Timeout.
func (p ProbeConfig) RunTimeout() time.Duration {
	if len(p.Targets) == 0 || p.Concurrency <= 0 {
		return p.Timeout
	}
	batches := (len(p.Targets) + p.Concurrency - 1) / p.Concurrency
	return time.Duration(batches) * p.Timeout
}
