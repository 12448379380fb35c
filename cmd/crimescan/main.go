package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/crime-data-analytics/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/crime-data-analytics/internal/adapter/kafka"
	"github.com/couchcryptid/crime-data-analytics/internal/adapter/mapbox"
	"github.com/couchcryptid/crime-data-analytics/internal/config"
	"github.com/couchcryptid/crime-data-analytics/internal/domain"
	"github.com/couchcryptid/crime-data-analytics/internal/forecast"
	"github.com/couchcryptid/crime-data-analytics/internal/observability"
	"github.com/couchcryptid/crime-data-analytics/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxCountry, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Reports are published only when a broker is configured.
	var (
		sink   pipeline.ReportSink
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sink = writer
		logger.Info("report publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportTopic)
	}

	analyzer := pipeline.New(forecast.New(logger), geocoder, sink, logger, metrics, pipeline.Options{
		TopN:                 cfg.TopN,
		ForecastMaxLocations: cfg.ForecastMaxLocations,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, analyzer, cfg.MaxUploadBytes, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Readiness flips once the sample analysis succeeds.
	go func() {
		if err := analyzer.WarmUp(ctx); err != nil {
			logger.Error("warm-up failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
