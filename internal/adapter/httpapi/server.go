// Package httpapi exposes the ledger over JSON HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/MagicCL33/Dashboard/internal/observability"
	"github.com/MagicCL33/Dashboard/internal/usecase/assets"
	"github.com/MagicCL33/Dashboard/internal/usecase/projects"
	"github.com/MagicCL33/Dashboard/internal/usecase/snapshots"
	"github.com/MagicCL33/Dashboard/internal/usecase/trades"
	"github.com/MagicCL33/Dashboard/internal/usecase/valuation"
)

// Services are the use cases served by the API
type Services struct {
	Assets    *assets.AssetService
	Gate      assets.PriceGate
	Projects  *projects.ProjectService
	Trades    *trades.TradeService
	Valuation *valuation.ValuationService
	Snapshots *snapshots.SnapshotService
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr           string
	Token          string // empty disables authentication
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           ":8080",
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 20 * time.Second,
	}
}

// Server is the ledger HTTP server
type Server struct {
	router  *mux.Router
	server  *http.Server
	svc     Services
	config  ServerConfig
	health  *observability.HealthChecker
	metrics *observability.Metrics
	logger  zerolog.Logger
}

func NewServer(config ServerConfig, svc Services, health *observability.HealthChecker, metrics *observability.Metrics, logger zerolog.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		svc:     svc,
		config:  config,
		health:  health,
		metrics: metrics,
		logger:  logger,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.metricsMiddleware)

	// Probes and metrics stay outside authentication
	if s.health != nil {
		s.router.HandleFunc("/healthz", s.health.LivenessHandler).Methods(http.MethodGet)
		s.router.HandleFunc("/readyz", s.health.ReadinessHandler).Methods(http.MethodGet)
	}
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.authMiddleware)
	api.Use(s.timeoutMiddleware)
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/assets", s.listAssets).Methods(http.MethodGet)
	api.HandleFunc("/assets/transactions", s.addTransaction).Methods(http.MethodPost)
	api.HandleFunc("/assets/{symbol}", s.getAsset).Methods(http.MethodGet)
	api.HandleFunc("/assets/{symbol}", s.annotateAsset).Methods(http.MethodPatch)
	api.HandleFunc("/assets/{symbol}", s.removeAsset).Methods(http.MethodDelete)
	api.HandleFunc("/prices/refresh", s.refreshPrices).Methods(http.MethodPost)

	api.HandleFunc("/projects", s.listProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects/actions", s.recordAction).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", s.getProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", s.updateProject).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}", s.removeProject).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/entries/{entryId}", s.removeAction).Methods(http.MethodDelete)

	api.HandleFunc("/trades", s.listTrades).Methods(http.MethodGet)
	api.HandleFunc("/trades", s.recordTrade).Methods(http.MethodPost)
	api.HandleFunc("/trades/{id}", s.removeTrade).Methods(http.MethodDelete)

	api.HandleFunc("/valuation", s.getValuation).Methods(http.MethodGet)
	api.HandleFunc("/snapshots", s.getSnapshots).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(notFound)
}

// Handler returns the routed handler, used by tests
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.config.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down http server")
	return s.server.Shutdown(ctx)
}
