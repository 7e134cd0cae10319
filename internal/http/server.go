// Package http provides the API server: router assembly, middleware chain and
// health endpoints for the order service.
package http

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/orders/internal/config"
	"github.com/allisson/orders/internal/metrics"
	ordersHttp "github.com/allisson/orders/internal/orders/http"
	"github.com/allisson/orders/internal/tenant"
)

// CachePinger verifies connectivity to the idempotency cache.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// Server represents the API HTTP server.
type Server struct {
	server          *http.Server
	config          *config.Config
	db              *sql.DB
	cache           CachePinger
	orderHandler    *ordersHttp.OrderHandler
	metricsProvider *metrics.Provider
	logger          *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg *config.Config,
	db *sql.DB,
	cache CachePinger,
	orderHandler *ordersHttp.OrderHandler,
	metricsProvider *metrics.Provider,
	logger *slog.Logger,
) *Server {
	return &Server{
		config:          cfg,
		db:              db,
		cache:           cache,
		orderHandler:    orderHandler,
		metricsProvider: metricsProvider,
		logger:          logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// setupRouter assembles the gin router with the full middleware chain and all
// API routes.
func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(s.config.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(
		s.config.CORSEnabled, s.config.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if s.metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(
			s.metricsProvider.MeterProvider(), s.config.MetricsNamespace))
	}

	// Health endpoints sit outside the tenant scope
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	v1.Use(tenant.Middleware(s.logger))
	if s.config.RateLimitEnabled {
		v1.Use(tenant.RateLimitMiddleware(
			s.config.RateLimitRequestsPerSec, s.config.RateLimitBurst, s.logger))
	}

	v1.POST("/orders", s.orderHandler.CreateHandler)
	v1.GET("/orders", s.orderHandler.ListHandler)
	v1.PATCH("/orders/:id/confirm", s.orderHandler.ConfirmHandler)
	v1.POST("/orders/:id/close", s.orderHandler.CloseHandler)

	return router
}

// GetHandler returns the fully assembled router, building it on first use.
// Used by tests to drive the server through httptest.
func (s *Server) GetHandler() http.Handler {
	if s.server.Handler == nil {
		s.server.Handler = s.setupRouter()
	}
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.GetHandler()

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the service can take traffic: both the
// order store and the idempotency cache must answer a ping. The pings run
// concurrently so the endpoint stays within its timeout even when one
// dependency hangs.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	var g errgroup.Group
	var dbErr, cacheErr error

	if s.db == nil {
		dbErr = errors.New("database not configured")
	} else {
		g.Go(func() error {
			if err := s.db.PingContext(ctx); err != nil {
				s.logger.Error("database readiness check failed", slog.Any("error", err))
				dbErr = err
			}
			return nil
		})
	}

	if s.cache == nil {
		cacheErr = errors.New("cache not configured")
	} else {
		g.Go(func() error {
			if err := s.cache.Ping(ctx); err != nil {
				s.logger.Error("cache readiness check failed", slog.Any("error", err))
				cacheErr = err
			}
			return nil
		})
	}

	_ = g.Wait()

	components := gin.H{
		"database": "ok",
		"cache":    "ok",
	}
	ready := true

	if dbErr != nil {
		components["database"] = "error"
		ready = false
	}
	if cacheErr != nil {
		components["cache"] = "error"
		ready = false
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}
