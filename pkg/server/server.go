package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/tabledash/internal/errors"
	"github.com/vango-dev/tabledash/pkg/middleware"
	"github.com/vango-dev/tabledash/pkg/render"
)

const tracerName = "github.com/vango-dev/tabledash/pkg/server"

// Server is the HTTP and WebSocket server for one live table page.
type Server struct {
	config   *ServerConfig
	factory  SessionFactory
	sessions *SessionManager
	upgrader websocket.Upgrader
	renderer *render.Renderer

	metrics  *middleware.Metrics
	gatherer prometheus.Gatherer
	provider trace.TracerProvider
	tracer   trace.Tracer

	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records request and session metrics into m and serves g on
// the metrics path. Either may be nil.
func WithMetrics(m *middleware.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithTracerProvider sets the provider for request and event spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) { s.provider = tp }
}

// New creates a server whose live sessions come from factory.
func New(config *ServerConfig, factory SessionFactory, opts ...Option) *Server {
	config = config.withDefaults()
	s := &Server{
		config:   config,
		factory:  factory,
		renderer: render.NewRenderer(render.RendererConfig{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "server")
	}
	if s.provider == nil {
		s.provider = otel.GetTracerProvider()
	}
	s.tracer = s.provider.Tracer(tracerName)

	s.sessions = NewSessionManager(config.MaxSessions, s.logger)
	s.sessions.SetOnSessionCreate(func(*Session) { s.metrics.RecordSessionOpen() })
	s.sessions.SetOnSessionClose(func(*Session) { s.metrics.RecordSessionClose() })

	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.OpenTelemetry(
		middleware.WithTracerProvider(s.provider),
		middleware.WithRequestFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != s.config.MetricsPath
		}),
	))
	r.Use(s.metrics.Handler)

	r.Get("/", s.servePage)
	r.Get(s.config.LivePath, s.HandleWebSocket)
	r.Get("/healthz", s.serveHealth)
	r.Get(thinClientPath, s.serveThinClient)
	r.Head(thinClientPath, s.serveThinClient)
	if s.gatherer != nil {
		r.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run serves on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.New("T180").Wrap(err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every live session, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.sessions.ShutdownWithContext(ctx); err != nil {
		s.logger.Warn("sessions did not close in time", "error", err)
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager { return s.sessions }

// Config returns the effective configuration.
func (s *Server) Config() *ServerConfig { return s.config }

func (s *Server) sessionDeps() sessionDeps {
	return sessionDeps{
		config:   s.config.SessionConfig,
		renderer: s.renderer,
		metrics:  s.metrics,
		tracer:   s.tracer,
		logger:   s.logger,
	}
}
