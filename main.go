package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"goexp/adapters/api"
	"goexp/app"
	"goexp/internal"
	"goexp/internal/config"
	"goexp/internal/metrics"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		internal.DefaultLogger.WithError(err).Warn("could not read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		internal.DefaultLogger.WithError(err).Fatal("failed to load configuration")
	}

	logger := internal.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	logger.WithFields(logrus.Fields{
		"port":               cfg.Server.Port,
		"default_confidence": cfg.Analysis.DefaultConfidence,
		"default_correction": cfg.Analysis.DefaultCorrection,
		"metrics":            cfg.Metrics.Enabled,
	}).Info("starting goexp")

	var m metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewMetrics()
	}

	service := app.NewExperimentService(logger, m, cfg.Workbook.Concurrency)
	server := api.NewServer(cfg, service, logger, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
	logger.Info("goexp stopped")
}
