package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/neighborhood-report-builder/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/neighborhood-report-builder/internal/adapter/kafka"
	"github.com/couchcryptid/neighborhood-report-builder/internal/adapter/reportapi"
	"github.com/couchcryptid/neighborhood-report-builder/internal/catalog"
	"github.com/couchcryptid/neighborhood-report-builder/internal/config"
	"github.com/couchcryptid/neighborhood-report-builder/internal/observability"
	"github.com/couchcryptid/neighborhood-report-builder/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load catalog", "error", err, "path", cfg.CatalogPath)
		os.Exit(1)
	}
	logger.Info("catalog loaded", "request_types", cat.Len())

	// Link source: the report backend when configured, local formatting otherwise.
	var generator reportapi.Generator
	if cfg.ReportAPIURL != "" {
		client := reportapi.NewClient(cfg.ReportAPIURL, cfg.ReportAPITimeout, metrics, logger)
		generator = reportapi.NewCachedGenerator(client, cfg.ReportCacheSize, metrics)
		logger.Info("report backend enabled", "url", cfg.ReportAPIURL, "cache_size", cfg.ReportCacheSize)
	} else {
		generator = reportapi.NewLinkGenerator(cfg.LinkBaseURL)
		logger.Info("report backend disabled, formatting links locally", "base", cfg.LinkBaseURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	minGenerating := cfg.MinGenerating
	if minGenerating == 0 {
		minGenerating = -1
	}
	deps := report.SessionDeps{
		Catalog:   cat,
		Generator: generator,
		Logger:    logger,
		Metrics:   metrics,
		Options: report.ControllerOptions{
			MinGenerating: minGenerating,
			Timeout:       cfg.ReportAPITimeout,
		},
	}

	ready := httpadapter.ReadinessGroup{}

	var publisher *kafkaadapter.Publisher
	publisherDone := make(chan struct{})
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, metrics, logger)
		deps.Events = publisher
		ready = append(ready, publisher)
		go func() {
			defer close(publisherDone)
			if err := publisher.Run(ctx); err != nil {
				logger.Error("event publisher error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka events disabled")
	}

	manager := report.NewManager(deps, cfg.SessionIdleTTL)
	if err := manager.StartReaper(cfg.SessionReapSchedule); err != nil {
		logger.Error("failed to start session reaper", "error", err)
		os.Exit(1)
	}
	ready = append(ready, manager)

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, manager, cat, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	manager.Close()
	if publisher != nil {
		<-publisherDone
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
