// Package server provides the web host for the activity signup page.
//
// The host renders the page on the server. Each browser gets a session holding
// its own page document, banner and activity client; form posts run the
// controller and redirect back to the page, which reloads the list.
//
// # Endpoints
//
//   - GET / - Activity list and signup form
//   - POST /signup - Sign a student up, then redirect to /
//   - GET /unregister - Confirmation prompt for removing a participant
//   - POST /unregister - Answer to the prompt, then redirect to /
//   - GET /health - Health check with session count and build info
//   - GET /metrics - Prometheus metrics
//   - GET /static/ - Stylesheet
//
// # Example
//
//	srv, err := server.New(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nomis52/signup/apiclient"
	"github.com/nomis52/signup/buildinfo"
	"github.com/nomis52/signup/config"
	"github.com/nomis52/signup/controller"
	"github.com/nomis52/signup/metrics"
	"github.com/nomis52/signup/server/handlers"
	"github.com/nomis52/signup/server/session"
	"github.com/nomis52/signup/server/types"
)

//go:embed static
var staticFiles embed.FS

const (
	defaultReadTimeout     = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Server is the HTTP server for the signup web interface.
type Server struct {
	cfg        config.Config
	logger     *slog.Logger
	registry   *metrics.ScrapeRegistry
	sessions   *session.Store
	props      types.ServerProperties
	httpClient *http.Client
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server) error

// WithListenAddr overrides the configured listen address.
func WithListenAddr(addr string) Option {
	return func(s *Server) error {
		if addr == "" {
			return fmt.Errorf("listen address must not be empty")
		}
		s.cfg.Server.ListenAddr = addr
		return nil
	}
}

// WithHTTPClient sets the client used to reach the backend.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Server) error {
		s.httpClient = client
		return nil
	}
}

// New creates a Server from cfg. The backend is not contacted until a page is requested.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	registry, err := metrics.NewScrapeRegistry()
	if err != nil {
		return nil, fmt.Errorf("creating metrics registry: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		props: types.ServerProperties{
			Build:      buildinfo.Get(),
			StartedAt:  time.Now(),
			Hostname:   hostname,
			BackendURL: cfg.Backend.URL,
		},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	clientOpts := []apiclient.Option{
		apiclient.WithTimeout(cfg.Backend.Timeout),
		apiclient.WithLogger(logger),
		apiclient.WithMetrics(registry),
	}
	if s.httpClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(s.httpClient))
	}
	api, err := apiclient.New(cfg.Backend.URL, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating backend client: %w", err)
	}

	stale, err := registry.NewCounter(prometheus.CounterOpts{
		Name: "client_stale_loads_discarded_total",
		Help: "Activity list responses discarded because a newer load was dispatched.",
	})
	if err != nil {
		return nil, err
	}
	active, err := registry.NewGauge(prometheus.GaugeOpts{
		Name: "server_sessions_active",
		Help: "Browser sessions currently holding page state.",
	})
	if err != nil {
		return nil, err
	}

	factory := func(p controller.Page, n controller.Notifier) (*controller.ActivityClient, error) {
		return controller.New(api, p, n,
			controller.WithLogger(logger),
			controller.WithStaleCounter(stale),
		)
	}
	s.sessions = session.NewStore(cfg.Server.SessionTTL, factory,
		session.WithMessageDuration(cfg.UI.MessageDuration),
		session.WithActiveHook(func(n int) { active.Set(float64(n)) }),
	)
	return s, nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Properties describes the running server.
func (s *Server) Properties() types.ServerProperties {
	return s.props
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:        s.cfg.Server.ListenAddr,
		Handler:     s.Handler(),
		ReadTimeout: defaultReadTimeout,
		// Page loads wait on the backend.
		WriteTimeout: s.cfg.Backend.Timeout + defaultReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", s.cfg.Server.ListenAddr,
			"backend_url", s.cfg.Backend.URL,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	title := s.cfg.Server.Title

	mux.Handle("GET /{$}", handlers.NewPageHandler(s.logger, s.sessions, title))
	mux.Handle("POST /signup", handlers.NewSignupHandler(s.logger, s.sessions))
	mux.Handle("GET /unregister", handlers.NewUnregisterPromptHandler(s.logger, title))
	mux.Handle("POST /unregister", handlers.NewUnregisterHandler(s.logger, s.sessions))
	mux.Handle("GET /health", handlers.NewHealthHandler(s.sessions, s))
	mux.Handle("GET /metrics", s.registry.Handler())

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		s.logger.Error("failed to create static file system", "error", err)
		return
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
}
