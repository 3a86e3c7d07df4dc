// Package server exposes the network activity indicator over HTTP.
//
// # Endpoints
//
//   - GET /health - Simple health check, returns "ok"
//   - GET /api/status - Indicator state, outstanding count, recent transitions and probe results
//   - GET /metrics - Prometheus metrics, when a metrics handler is configured
//
// # Example
//
//	srv, err := server.New(counter, recorder, logger,
//	    server.WithListenAddr(":8080"),
//	    server.WithProber("*/5 * * * *", prober),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nomis52/netactivity/httptrack"
	"github.com/nomis52/netactivity/indicator"
	"github.com/nomis52/netactivity/probe"
	"github.com/nomis52/netactivity/server/cron"
	"github.com/nomis52/netactivity/server/handlers"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultListenAddr      = ":8080"
)

// Server is the HTTP server for the netactivity status interface.
type Server struct {
	addr           string
	logger         *slog.Logger
	counter        *indicator.Counter
	recorder       *indicator.Recorder
	metricsHandler http.Handler
	trackRequests  bool
	certLoader     *CertLoader
	prober         *probe.Prober
	cronTrigger    *cron.CronTrigger

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// Option configures a Server.
type Option func(*Server) error

// WithListenAddr configures the address the server listens on.
// Default is ":8080".
func WithListenAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) error {
		s.metricsHandler = h
		return nil
	}
}

// WithRequestTracking counts every request the server handles as network
// activity on the server's counter.
func WithRequestTracking() Option {
	return func(s *Server) error {
		s.trackRequests = true
		return nil
	}
}

// WithTLS serves HTTPS using the given certificate and key files.
func WithTLS(certFile, keyFile string) Option {
	return func(s *Server) error {
		loader, err := NewCertLoader(certFile, keyFile, s.logger)
		if err != nil {
			return fmt.Errorf("loading tls certificate: %w", err)
		}
		s.certLoader = loader
		return nil
	}
}

// WithProber runs p according to the cron spec and reports its results on
// /api/status. The spec follows standard cron format (5 fields: minute, hour,
// day, month, weekday).
func WithProber(spec string, p *probe.Prober, opts ...cron.TriggerOption) Option {
	return func(s *Server) error {
		trigger, err := cron.NewCronTrigger(spec, p, s.logger, opts...)
		if err != nil {
			return fmt.Errorf("creating cron trigger: %w", err)
		}
		s.prober = p
		s.cronTrigger = trigger
		return nil
	}
}

// New creates a new Server reporting on counter, whose indicator should
// include recorder.
func New(counter *indicator.Counter, recorder *indicator.Recorder, logger *slog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		addr:     defaultListenAddr,
		logger:   logger,
		counter:  counter,
		recorder: recorder,
		ready:    make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Counter returns the activity counter the server reports on.
func (s *Server) Counter() *indicator.Counter {
	return s.counter
}

// Recorder returns the recorder of indicator transitions.
func (s *Server) Recorder() *indicator.Recorder {
	return s.recorder
}

// NextProbe returns the next scheduled probe time, or nil if no prober is configured.
func (s *Server) NextProbe() *time.Time {
	if s.cronTrigger == nil {
		return nil
	}
	next := s.cronTrigger.NextRun()
	return &next
}

// LastProbe returns when the most recent probe run started, or nil if none
// has completed.
func (s *Server) LastProbe() *time.Time {
	if s.cronTrigger == nil {
		return nil
	}
	record, ok := s.cronTrigger.LastRun()
	if !ok {
		return nil
	}
	return &record.Started
}

// ProbeResults returns the results of the most recent probe run.
func (s *Server) ProbeResults() []probe.Result {
	if s.prober == nil {
		return nil
	}
	return s.prober.LastResults()
}

// Addr returns the address the server is listening on. It blocks until Run
// has bound its listener, so it must only be called once Run has been started
// and has not failed to listen.
func (s *Server) Addr() net.Addr {
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.Addr()
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	if s.trackRequests {
		return httptrack.Middleware(s.counter, mux)
	}
	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done.
// If a prober is configured, its cron trigger is started automatically.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}
	if s.certLoader != nil {
		httpServer.TLSConfig = s.certLoader.TLSConfig()
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)

	if s.cronTrigger != nil {
		s.logger.Info("starting probe schedule",
			"next_run", s.cronTrigger.NextRun(),
		)
		s.cronTrigger.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", ln.Addr().String(),
			"tls", s.certLoader != nil,
		)
		var err error
		if s.certLoader != nil {
			err = httpServer.ServeTLS(ln, "", "")
		} else {
			err = httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		if s.cronTrigger != nil {
			<-s.cronTrigger.Done()
		}
		return err
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.Handle("GET /api/status", handlers.NewStatusHandler(s))
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}
}
