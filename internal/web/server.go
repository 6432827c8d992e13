// Package web provides the HTTP server and handlers for the list generator UI.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/listas/internal/config"
	"github.com/JonMunkholm/listas/internal/core"
	"github.com/JonMunkholm/listas/internal/pipeline"
	"github.com/JonMunkholm/listas/internal/web/middleware"
)

// errRateLimited is reported when a client exceeds its request budget.
var errRateLimited = core.ErrRateLimited

// Server is the HTTP server for the list generator.
type Server struct {
	cfg      *config.Config
	service  *pipeline.Service
	gatherer prometheus.Gatherer
	router   *chi.Mux
	server   *http.Server

	rateLimiter *middleware.RateLimiter
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewServer creates a new Server instance. Metrics are served from gatherer.
func NewServer(cfg *config.Config, service *pipeline.Service, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		cfg:      cfg,
		service:  service,
		gatherer: gatherer,
		router:   chi.NewRouter(),
		stop:     make(chan struct{}),
	}
	if cfg.Rate.Enabled {
		s.rateLimiter = middleware.NewRateLimiter(cfg.Rate.RequestsPerMinute, cfg.Rate.Burst)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// Generation is expensive, so only these routes are rate limited.
	s.router.Group(func(r chi.Router) {
		if s.rateLimiter != nil {
			r.Use(s.rateLimiter.Handler(func(w http.ResponseWriter, r *http.Request) {
				s.respondError(w, r, errRateLimited, http.StatusTooManyRequests)
			}))
		}

		r.Post("/generate", s.handleGenerate)

		r.Route("/api", func(r chi.Router) {
			r.Post("/generate", s.handleGenerate)
			r.Post("/inspect", s.handleInspect)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	if s.rateLimiter != nil {
		go s.rateLimiter.Run(time.Minute, s.stop)
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, then waits for running batches.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if derr := s.service.Limiter().WaitForDrain(ctx); derr != nil && err == nil {
		err = derr
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// The upload page ships its script and styles inline.
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
