package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a config that passes validation.
func validConfig() Config {
	cfg := Config{
		Probe: ProbeConfig{
			Schedule: "*/5 * * * *",
			Targets:  []string{"https://example.com/health"},
		},
	}
	cfg.SetDefaults()
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing listen address",
			mutate:  func(c *Config) { c.Server.ListenAddr = "" },
			wantErr: true,
		},
		{
			name:    "tls cert without key",
			mutate:  func(c *Config) { c.Server.TLSCert = "/etc/netactivity/cert.pem" },
			wantErr: true,
		},
		{
			name: "tls cert and key",
			mutate: func(c *Config) {
				c.Server.TLSCert = "/etc/netactivity/cert.pem"
				c.Server.TLSKey = "/etc/netactivity/key.pem"
			},
			wantErr: false,
		},
		{
			name:    "unknown delivery",
			mutate:  func(c *Config) { c.Indicator.Delivery = "mainthread" },
			wantErr: true,
		},
		{
			name:    "inline delivery",
			mutate:  func(c *Config) { c.Indicator.Delivery = DeliveryInline },
			wantErr: false,
		},
		{
			name:    "non-positive history size",
			mutate:  func(c *Config) { c.Indicator.HistorySize = -1 },
			wantErr: true,
		},
		{
			name:    "schedule without targets",
			mutate:  func(c *Config) { c.Probe.Targets = nil },
			wantErr: true,
		},
		{
			name:    "no schedule and no targets",
			mutate:  func(c *Config) { c.Probe.Schedule = ""; c.Probe.Targets = nil },
			wantErr: false,
		},
		{
			name:    "non-http target",
			mutate:  func(c *Config) { c.Probe.Targets = []string{"ftp://example.com"} },
			wantErr: true,
		},
		{
			name:    "unparseable target",
			mutate:  func(c *Config) { c.Probe.Targets = []string{"http://[::1"} },
			wantErr: true,
		},
		{
			name:    "non-positive probe timeout",
			mutate:  func(c *Config) { c.Probe.Timeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "non-positive probe concurrency",
			mutate:  func(c *Config) { c.Probe.Concurrency = -2 },
			wantErr: true,
		},
		{
			name:    "push mode without URL",
			mutate:  func(c *Config) { c.Monitoring.Mode = MetricsPush },
			wantErr: true,
		},
		{
			name: "push mode with URL",
			mutate: func(c *Config) {
				c.Monitoring.Mode = MetricsPush
				c.Monitoring.VictoriaMetricsURL = "http://vm:8428"
			},
			wantErr: false,
		},
		{
			name: "push mode with inline delivery",
			mutate: func(c *Config) {
				c.Monitoring.Mode = MetricsPush
				c.Monitoring.VictoriaMetricsURL = "http://vm:8428"
				c.Indicator.Delivery = DeliveryInline
			},
			wantErr: true,
		},
		{
			name: "scrape mode with inline delivery",
			mutate: func(c *Config) {
				c.Monitoring.Mode = MetricsScrape
				c.Indicator.Delivery = DeliveryInline
			},
			wantErr: false,
		},
		{
			name:    "metrics disabled",
			mutate:  func(c *Config) { c.Monitoring.Mode = MetricsDisabled },
			wantErr: false,
		},
		{
			name:    "unknown metrics mode",
			mutate:  func(c *Config) { c.Monitoring.Mode = "pull" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.False(t, cfg.Server.TrackRequests)
	assert.Equal(t, DeliveryQueue, cfg.Indicator.Delivery)
	assert.Equal(t, 100, cfg.Indicator.HistorySize)
	assert.Equal(t, 10*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 4, cfg.Probe.Concurrency)
	assert.Equal(t, MetricsScrape, cfg.Monitoring.Mode)
	assert.Equal(t, "netactivity", cfg.Monitoring.MetricsPrefix)
	assert.Equal(t, "netactivity", cfg.Monitoring.JobName)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

func TestConfig_SetDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Server:    ServerConfig{ListenAddr: "127.0.0.1:9000"},
		Indicator: IndicatorConfig{Delivery: DeliveryInline, HistorySize: 5},
		Logging:   LoggingConfig{Level: "debug"},
	}
	cfg.SetDefaults()

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
	assert.Equal(t, DeliveryInline, cfg.Indicator.Delivery)
	assert.Equal(t, 5, cfg.Indicator.HistorySize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netactivity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `server:
  listen_addr: 127.0.0.1:8081
  track_requests: true
indicator:
  delivery: queue
  history_size: 20
probe:
  schedule: "*/2 * * * *"
  targets:
    - https://example.com
    - http://10.0.0.1:8080/health
  timeout: 3s
  concurrency: 2
monitoring:
  mode: push
  victoriametrics_url: http://vm:8428
logging:
  level: debug
  format: text
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8081", cfg.Server.ListenAddr)
	assert.True(t, cfg.Server.TrackRequests)
	assert.Equal(t, DeliveryQueue, cfg.Indicator.Delivery)
	assert.Equal(t, 20, cfg.Indicator.HistorySize)
	assert.Equal(t, "*/2 * * * *", cfg.Probe.Schedule)
	assert.Equal(t, []string{"https://example.com", "http://10.0.0.1:8080/health"}, cfg.Probe.Targets)
	assert.Equal(t, 3*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 2, cfg.Probe.Concurrency)
	assert.Equal(t, MetricsPush, cfg.Monitoring.Mode)
	assert.Equal(t, "http://vm:8428", cfg.Monitoring.VictoriaMetricsURL)
	assert.Equal(t, "netactivity", cfg.Monitoring.MetricsPrefix)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

func TestLoadConfig_Empty(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, DeliveryQueue, cfg.Indicator.Delivery)
}

func TestLoadConfig_TimeStrings(t *testing.T) {
	tests := []struct {
		name     string
		timeout  string
		expected time.Duration
	}{
		{"500ms", "500ms", 500 * time.Millisecond},
		{"30s", "30s", 30 * time.Second},
		{"1m30s", "1m30s", 90 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, fmt.Sprintf("probe:\n  timeout: %s\n", tt.timeout))

			cfg, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.Probe.Timeout)
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "ipmi:\n  host: 1.2.3.4\n"))
		assert.Error(t, err)
	})

	t.Run("push with inline delivery", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "indicator:\n  delivery: inline\nmonitoring:\n  mode: push\n  victoriametrics_url: http://vm:8428\n"))
		assert.ErrorContains(t, err, "push mode requires")
	})

	t.Run("invalid after defaults", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "indicator:\n  delivery: sometimes\n"))
		assert.Error(t, err)
	})
}

func TestProbeConfig_RunTimeout(t *testing.T) {
	tests := []struct {
		name        string
		targets     int
		concurrency int
		want        time.Duration
	}{
		{"no targets", 0, 4, 10 * time.Second},
		{"one batch", 3, 4, 10 * time.Second},
		{"exact batches", 8, 4, 20 * time.Second},
		{"partial batch", 9, 4, 30 * time.Second},
		{"serial", 3, 1, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ProbeConfig{
				Targets:     make([]string, tt.targets),
				Timeout:     10 * time.Second,
				Concurrency: tt.concurrency,
			}
			assert.Equal(t, tt.want, p.RunTimeout())
		})
	}
}
