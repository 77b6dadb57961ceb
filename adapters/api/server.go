package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"goexp/app"
	"goexp/internal/config"
	"goexp/internal/metrics"
)

// Version is reported by the health endpoint
const Version = "0.1.0"

const shutdownTimeout = 10 * time.Second

// Server is the HTTP routing layer over ExperimentService
type Server struct {
	router  *gin.Engine
	service *app.ExperimentService
	cfg     *config.Config
	log     logrus.FieldLogger
	metrics metrics.Metrics
}

// NewServer builds the router with middleware and every route registered
func NewServer(cfg *config.Config, service *app.ExperimentService, logger logrus.FieldLogger, m metrics.Metrics) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if m == nil {
		m = (*metrics.Collector)(nil)
	}
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		router:  gin.New(),
		service: service,
		cfg:     cfg,
		log:     logger,
		metrics: m,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/api/health", s.handleHealth)
	if s.cfg.Metrics.Enabled {
		s.router.GET(s.cfg.Metrics.Path, gin.WrapH(s.metrics.Handler()))
	}

	conversion := s.router.Group("/api/conversion")
	{
		conversion.POST("/sample-size", s.HandleRateSampleSize())
		conversion.POST("/sample-size/summary", s.HandleRateSampleSizeSummary())
		conversion.POST("/analyze", s.HandleRateAnalyze())
		conversion.POST("/analyze/summary", s.HandleRateAnalyzeSummary())
		conversion.POST("/analyze-multi", s.HandleRateAnalyzeMulti())
		conversion.POST("/analyze-multi/summary", s.HandleRateAnalyzeMultiSummary())
		conversion.POST("/confidence-interval", s.HandleRateInterval())
	}

	numeric := s.router.Group("/api/numeric")
	{
		numeric.POST("/sample-size", s.HandleMagnitudeSampleSize())
		numeric.POST("/sample-size/summary", s.HandleMagnitudeSampleSizeSummary())
		numeric.POST("/analyze", s.HandleMagnitudeAnalyze())
		numeric.POST("/analyze/summary", s.HandleMagnitudeAnalyzeSummary())
		numeric.POST("/analyze-multi", s.HandleMagnitudeAnalyzeMulti())
		numeric.POST("/analyze-multi/summary", s.HandleMagnitudeAnalyzeMultiSummary())
		numeric.POST("/confidence-interval", s.HandleMagnitudeInterval())
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": Version})
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
