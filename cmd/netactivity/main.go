package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nomis52/netactivity/buildinfo"
	"github.com/nomis52/netactivity/config"
	"github.com/nomis52/netactivity/httptrack"
	"github.com/nomis52/netactivity/indicator"
	"github.com/nomis52/netactivity/logging"
	"github.com/nomis52/netactivity/metrics"
	"github.com/nomis52/netactivity/probe"
	"github.com/nomis52/netactivity/server"
	"github.com/nomis52/netactivity/server/cron"
)

type Args struct {
	ConfigPath string
	Version    bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := parseArgs()

	if args.Version {
		fmt.Println(buildinfo.Get())
		return nil
	}

	if args.ConfigPath == "" {
		return fmt.Errorf("config flag (-c or --config) is required")
	}

	cfg, err := config.LoadConfig(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    cfg.Logging.Output,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	logger.Info("starting netactivity", "build", buildinfo.Get())

	registry, metricsHandler, err := newRegistry(cfg.Monitoring, logger.Logger)
	if err != nil {
		return err
	}

	activity, err := metrics.NewActivityMetrics(registry)
	if err != nil {
		return fmt.Errorf("failed to create activity metrics: %w", err)
	}

	recorder := indicator.NewRecorder(cfg.Indicator.HistorySize)
	opts := []indicator.Option{
		indicator.WithLogger(logger.Logger),
		indicator.WithObserver(activity),
	}

	if cfg.Indicator.Delivery == config.DeliveryQueue {
		queue := indicator.NewQueueDispatcher(logger.Logger)
		defer queue.Close()
		opts = append(opts, indicator.WithDispatcher(queue))
	}

	opts = append(opts, indicator.WithIndicator(
		indicator.NewLogIndicator(logger.Logger, indicator.Fanout(recorder, activity)),
	))
	counter := indicator.New(opts...)
	indicator.SetDefault(counter)

	srvOpts := []server.Option{server.WithListenAddr(cfg.Server.ListenAddr)}
	if metricsHandler != nil {
		srvOpts = append(srvOpts, server.WithMetricsHandler(metricsHandler))
	}
	if cfg.Server.TrackRequests {
		srvOpts = append(srvOpts, server.WithRequestTracking())
	}
	if cfg.Server.TLSCert != "" {
		srvOpts = append(srvOpts, server.WithTLS(cfg.Server.TLSCert, cfg.Server.TLSKey))
	}
	if cfg.Probe.Schedule != "" {
		probeMetrics, err := metrics.NewProbeMetrics(registry)
		if err != nil {
			return fmt.Errorf("failed to create probe metrics: %w", err)
		}
		client := httptrack.NewClient(counter, cfg.Probe.Timeout)
		prober := probe.New(cfg.Probe.Targets, client, logger.Logger, cfg.Probe.Concurrency,
			probe.WithResultObserver(probeMetrics))
		srvOpts = append(srvOpts, server.WithProber(cfg.Probe.Schedule, prober,
			cron.WithImmediateRun(),
			cron.WithRunTimeout(cfg.Probe.RunTimeout()),
		))
	}

	srv, err := server.New(counter, recorder, logger.Logger, srvOpts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				if err := reloadLogLevel(args.ConfigPath, logger); err != nil {
					logger.Error("failed to reload log level", "error", err)
				}
				continue
			}
			srv.Logger().Info("received signal, shutting down", "signal", sig)
			cancel()
			return
		}
	}()

	return srv.Run(ctx)
}

// reloadLogLevel re-reads the config file and applies its logging level.
// Other settings need a restart.
func reloadLogLevel(path string, logger *logging.Logger) error {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.SetLevelName(cfg.Logging.Level); err != nil {
		return err
	}
	logger.Info("reloaded log level", "level", logger.Level())
	return nil
}

// newRegistry returns the metrics registry for the configured mode, plus the
// handler to serve on /metrics in scrape mode. Disabled metrics use
// metrics.Discard.
func newRegistry(cfg config.MonitoringConfig, logger *slog.Logger) (metrics.Registry, http.Handler, error) {
	switch cfg.Mode {
	case config.MetricsScrape:
		registry, err := metrics.NewScrapeRegistry(metrics.WithNamespace(cfg.MetricsPrefix))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create scrape registry: %w", err)
		}
		return registry, registry.Handler(), nil
	case config.MetricsPush:
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		registry := metrics.NewPushRegistry(metrics.PushConfig{
			URL:      cfg.VictoriaMetricsURL,
			Prefix:   cfg.MetricsPrefix,
			Job:      cfg.JobName,
			Instance: hostname,
			Logger:   logger,
		})
		return registry, nil, nil
	default:
		return metrics.Discard, nil, nil
	}
}

func parseArgs() Args {
	configPath := flag.String("config", "", "Path to config file")
	configPathShort := flag.String("c", "", "Path to config file (shorthand)")
	version := flag.Bool("version", false, "Print version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nnetactivity - Network activity indicator service\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --config /etc/netactivity/config.yaml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml\n", os.Args[0])
	}

	flag.Parse()

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	return Args{
		ConfigPath: path,
		Version:    *version,
	}
}
