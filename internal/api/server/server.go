package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/openrwa/rwa-ledger/internal/api/middleware"
	"github.com/openrwa/rwa-ledger/internal/api/rest"
	"github.com/openrwa/rwa-ledger/internal/logger"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	MetricsPort  int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Auth         middleware.AuthConfig
	RateLimit    middleware.RateLimitConfig
}

// Server wraps the HTTP API server and the Prometheus metrics listener
type Server struct {
	config        Config
	handler       rest.Handler
	httpServer    *http.Server
	metricsServer *http.Server
}

// New creates a new API server
func New(cfg Config, handler rest.Handler) *Server {
	return &Server{
		config:  cfg,
		handler: handler,
	}
}

// Start initializes and starts the HTTP server. It blocks until the server
// stops.
func (s *Server) Start() error {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())
	router.Use(middleware.NewRateLimiter(s.config.RateLimit).Middleware())

	// Setup REST routes
	rest.SetupRoutes(router, s.handler, s.config.Auth)

	// Expose Prometheus metrics on a separate listener so the scrape
	// endpoint is never behind API auth or CORS
	if s.config.MetricsPort > 0 {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		s.metricsServer = &http.Server{
			Addr:        fmt.Sprintf("%s:%d", s.config.Host, s.config.MetricsPort),
			Handler:     metricsMux,
			ReadTimeout: s.config.ReadTimeout,
		}
		go func() {
			logger.Info("Starting metrics server",
				zap.String("address", s.metricsServer.Addr),
			)
			if err := s.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error(fmt.Errorf("metrics server failed: %w", err))
			}
		}()
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	// Start server
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			logger.Error(fmt.Errorf("failed to shutdown metrics server: %w", err))
		}
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
