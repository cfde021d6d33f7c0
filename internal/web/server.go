// Package web serves the toolkit over HTTP: function discovery, the audit
// log, data checks and the cleaning pipelines.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/fdakit/internal/config"
	"github.com/JonMunkholm/fdakit/internal/toolkit"
	"github.com/JonMunkholm/fdakit/internal/web/middleware"
)

// Server is the HTTP front end of a Toolkit.
type Server struct {
	kit     *toolkit.Toolkit
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	runs    *runLimiter
	limiter *rateLimiter
}

// NewServer wires routes and middleware for kit.
func NewServer(kit *toolkit.Toolkit, cfg *config.Config) *Server {
	s := &Server{
		kit:    kit,
		cfg:    cfg,
		router: chi.NewRouter(),
		runs:   newRunLimiter(cfg.Server.MaxConcurrentRuns, cfg.Server.MaxWaitTime),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Discovery
		r.Get("/functions", s.handleListFunctions)
		r.Get("/categories", s.handleListCategories)

		// Audit log
		r.Get("/audit-log", s.handleAuditLog)

		// Data operations
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(&s.cfg.Security))
			r.Post("/check", s.handleCheck)
			r.Post("/clean", s.handleClean)
			r.Post("/mask", s.handleMask)
			r.Post("/anonymize", s.handleAnonymize)
		})
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr, "functions", s.kit.Registry.Len())
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for running cleans to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Close()
	}
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.runs.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
