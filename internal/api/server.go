// Package api serves stored postings and their ranking over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/pipeline"
	"github.com/spigell/job-matcher/internal/resume"
	"github.com/spigell/job-matcher/internal/store"
)

const (
	maxResumeBytes  = 10 << 20
	shutdownTimeout = 10 * time.Second
)

// Deps are the collaborators behind the handlers.
type Deps struct {
	Store  store.Store
	Ranker *pipeline.Ranker
	Parser *resume.Parser
	Resume *resume.Slot
	Logger *zap.Logger
}

type Server struct {
	deps   Deps
	router *gin.Engine
	logger *zap.Logger
}

func New(deps Deps) *Server {
	if deps.Resume == nil {
		deps.Resume = &resume.Slot{}
	}

	s := &Server{
		deps:   deps,
		router: gin.New(),
		logger: logger.WithFields(deps.Logger, zap.String("component", "api")),
	}
	s.router.Use(gin.Recovery(), requestLogger(s.logger))
	s.routes()

	return s
}

func (s *Server) routes() {
	s.router.GET("/healthz", s.health)

	v1 := s.router.Group("/api/v1")
	v1.PUT("/resume", s.putResume)
	v1.GET("/resume", s.getResume)
	v1.GET("/matches", s.matches)
	v1.GET("/filters", s.filters)
	v1.GET("/postings/:id", s.getPosting)
	v1.PUT("/postings/:id/status", s.putStatus)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}

		if len(c.Errors) > 0 {
			log.Error(c.Errors.String(), fields...)
			return
		}
		log.Debug("request processed", fields...)
	}
}
