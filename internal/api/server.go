// Package api serves stored crawl results as a read-only JSON API. It
// never triggers crawls; it only reads what the store already holds.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/seocrawl/internal/logger"
	"github.com/jonesrussell/seocrawl/internal/storage"
)

// Config holds the API server settings.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the report API server.
type Server struct {
	cfg    Config
	store  storage.Store
	log    logger.Interface
	engine *gin.Engine
	http   *http.Server
}

// NewServer creates a Server and registers its routes.
func NewServer(cfg Config, store storage.Store, log logger.Interface) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:    cfg,
		store:  store,
		log:    log,
		engine: engine,
	}
	s.registerRoutes()
	return s
}

// Handler exposes the route handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	v1 := s.engine.Group("/api/v1")
	v1.GET("/sites/:site/report", s.handleReport)
	v1.GET("/sites/:site/snapshots", s.handleSnapshots)
	v1.GET("/sites/:site/snapshots/:date", s.handleSnapshot)
	v1.GET("/sites/:site/changes", s.handleChanges)
}

// Start serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Report API listening", "address", s.cfg.Address)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
