// server.go - HTTP preview server for a generated site
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"docsite-generator/internal/site"
	"docsite-generator/pkg/logger"
)

// Server serves a generated site directory over HTTP.
type Server interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

// NewServer creates a preview server for the site at outputDir.
func NewServer(outputDir string, logger logger.Logger) Server {
	return &server{
		outputDir: outputDir,
		logger:    logger,
	}
}

type server struct {
	outputDir  string
	logger     logger.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// Start blocks serving the site until Shutdown is called.
func (s *server) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)

	s.engine = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           addr,
		Handler:        s.engine,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	s.logger.Info("starting preview server on %s, serving %s", addr, s.outputDir)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.logger.Info("shutting down preview server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *server) setupMiddleware() {
	s.engine.Use(RecoveryMiddleware(s.logger))
	s.engine.Use(LoggingMiddleware(s.logger))
	s.engine.Use(CORSMiddleware())
}

func (s *server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	s.engine.GET("/api/manifest", s.handleManifest)

	// Everything else is served from the site directory itself.
	fileServer := http.FileServer(http.Dir(s.outputDir))
	s.engine.NoRoute(gin.WrapH(fileServer))
}

// handleManifest returns the stored run manifest with per-section
// statuses.
func (s *server) handleManifest(c *gin.Context) {
	manifest, err := site.LoadManifest(s.outputDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "no manifest found, generate the site first",
			})
			return
		}
		s.logger.Error("failed to load manifest: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "failed to load manifest",
		})
		return
	}
	c.JSON(http.StatusOK, manifest)
}
