// Package ui exposes the detection pipeline over HTTP: a JSON API for
// single-curve analysis, calibration statistics and batch detection, plus
// a rendered calibration report page.
package ui

import (
	"github.com/gin-gonic/gin"

	"github.com/wsuduce/ghost-rank/app"
	"github.com/wsuduce/ghost-rank/internal/config"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Server represents the web server for the Ghost Rank API.
type Server struct {
	router      *gin.Engine
	detection   *app.DetectionService
	calibration *app.CalibrationService
	cfg         *config.Config
}

// NewServer creates a server wired to the given services.
func NewServer(cfg *config.Config, detection *app.DetectionService, calibration *app.CalibrationService) *Server {
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		router:      gin.Default(),
		detection:   detection,
		calibration: calibration,
		cfg:         cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/report", s.handleReport)

	api := s.router.Group("/api")
	{
		api.POST("/analyze", s.handleAnalyze)
		api.GET("/calibration", s.handleCalibration)
		api.POST("/detect", s.handleDetect)
		api.GET("/runs", s.handleListRuns)
		api.GET("/runs/:id", s.handleGetRun)
	}
}

// Run starts the server on the configured port.
func (s *Server) Run() error {
	return s.router.Run(":" + s.cfg.Server.Port)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
