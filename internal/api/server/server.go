package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ticket-mirror/internal/api/middleware"
	"github.com/feral-file/ff-ticket-mirror/internal/logger"
	"github.com/feral-file/ff-ticket-mirror/internal/poller"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// MaxLagBlocks marks the reconciler unready when it falls further behind the head, 0 disables the check
	MaxLagBlocks uint64
}

// StatusProvider exposes the reconciler progress
type StatusProvider interface {
	Stats() poller.Stats
}

// Pinger checks a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wraps the HTTP status server
type Server struct {
	config     Config
	status     StatusProvider
	db         Pinger
	httpServer *http.Server
}

// New creates a new status server
func New(cfg Config, status StatusProvider, db Pinger) *Server {
	return &Server{
		config: cfg,
		status: status,
		db:     db,
	}
}

// Router builds the gin router with every status route
func (s *Server) Router() *gin.Engine {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	router.GET("/healthz", s.health)
	router.GET("/readyz", s.ready)
	router.GET("/v1/status", s.statusHandler)

	return router
}

// health reports the process is alive
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ready reports whether the database is reachable and the mirror is not lagging
func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		logger.WarnCtx(ctx, "Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database unreachable"})
		return
	}

	stats := s.status.Stats()
	if s.config.MaxLagBlocks > 0 && stats.Lag > s.config.MaxLagBlocks {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "lagging", "lag": stats.Lag})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "lag": stats.Lag})
}

// statusHandler returns the reconciler progress snapshot
func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.status.Stats())
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting status server",
		zap.String("address", addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down status server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
