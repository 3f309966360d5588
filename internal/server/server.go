// Package server provides the HTTP API for the portfolio tracker.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/vivekn/networth/internal/database"
	"github.com/vivekn/networth/internal/modules/assets"
	"github.com/vivekn/networth/internal/modules/charts"
	"github.com/vivekn/networth/internal/modules/history"
	"github.com/vivekn/networth/internal/modules/importer"
	"github.com/vivekn/networth/internal/modules/refresher"
	"github.com/vivekn/networth/internal/modules/settings"
	"github.com/vivekn/networth/internal/modules/transactions"
	"github.com/vivekn/networth/internal/reliability"
)

// Config holds everything the HTTP layer depends on.
type Config struct {
	Log         zerolog.Logger
	DB          *database.DB
	Port        int
	DevMode     bool
	AssetRepo   *assets.Repository
	TxRepo      *transactions.Repository
	HistoryRepo *history.Repository
	Settings    *settings.Repository
	Importer    *importer.Service
	Refresher   *refresher.Service
	Charts      *charts.Service
	Backup      *reliability.BackupService
}

// Server represents the HTTP server.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	handlers *Handlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		handlers: NewHandlers(cfg),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	allowedOrigins := []string{"http://localhost:*"}
	if devMode {
		allowedOrigins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes wires the API routes
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/import/{owner}", s.handlers.ImportSnapshot)

		r.Get("/holdings", s.handlers.GetHoldings)
		r.Get("/holdings/{owner}", s.handlers.GetHoldingsByOwner)
		r.Get("/summary", s.handlers.GetSummary)

		r.Get("/transactions", s.handlers.GetTransactions)
		r.Get("/transactions/monthly", s.handlers.GetMonthlyTotals)

		r.Get("/history", s.handlers.GetHistory)
		r.Get("/history/chart.png", s.handlers.GetHistoryChart)

		r.Post("/refresh", s.handlers.RefreshPrices)

		r.Post("/backup", s.handlers.CreateBackup)
		r.Get("/backups", s.handlers.ListBackups)

		r.Get("/settings", s.handlers.GetSettings)
		r.Put("/settings/{key}", s.handlers.PutSetting)

		r.Get("/health", s.handlers.Health)
		r.Get("/system", s.handlers.SystemInfo)
	})
}

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

// Router exposes the mux for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
