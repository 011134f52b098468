// Package api exposes the rank-test pipeline over HTTP
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gokw/app"
	"gokw/internal"
	"gokw/internal/metrics"
	"gokw/ports"
)

// Config holds API server configuration
type Config struct {
	Port         string
	GinMode      string
	MinGroupSize int
	Workers      int
}

// Server is the gin JSON API
type Server struct {
	engine   *gin.Engine
	config   Config
	checker  *app.EligibilityChecker
	pipeline *app.ComparisonService
	runs     ports.RunRepository
	metrics  *metrics.Metrics
	logger   *internal.Logger
}

// NewServer wires handlers onto a fresh gin engine. m may be nil.
func NewServer(config Config, checker *app.EligibilityChecker, pipeline *app.ComparisonService, runs ports.RunRepository, m *metrics.Metrics, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	s := &Server{
		engine:   gin.New(),
		config:   config,
		checker:  checker,
		pipeline: pipeline,
		runs:     runs,
		metrics:  m,
		logger:   logger.WithComponent("API"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.observe())
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/check", s.handleCheck)
		v1.POST("/compute", s.handleCompute)
		v1.GET("/runs", s.handleListRuns)
		v1.GET("/runs/:id", s.handleGetRun)
	}
}

// observe records request counts and latencies by route template
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveRequest(route, c.Writer.Status(), time.Since(start))
		s.logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Handler exposes the engine, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("API listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
