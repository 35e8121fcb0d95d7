package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/seismic-project-service/internal/adapter/fdsn"
	httpadapter "github.com/couchcryptid/seismic-project-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/seismic-project-service/internal/adapter/kafka"
	"github.com/couchcryptid/seismic-project-service/internal/config"
	"github.com/couchcryptid/seismic-project-service/internal/ingest"
	"github.com/couchcryptid/seismic-project-service/internal/inventory"
	"github.com/couchcryptid/seismic-project-service/internal/observability"
	"github.com/couchcryptid/seismic-project-service/internal/project"
	"github.com/couchcryptid/seismic-project-service/internal/store/events"
	"github.com/couchcryptid/seismic-project-service/internal/store/waveforms"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Open (or initialize) the project directory tree.
	var proj *project.Project
	if cfg.ProjectInit {
		proj, err = project.Init(cfg.ProjectRoot, cfg.ProjectName, logger)
	} else {
		proj, err = project.Open(cfg.ProjectRoot, logger)
	}
	if err != nil {
		logger.Error("failed to open project", "root", cfg.ProjectRoot, "error", err)
		os.Exit(1)
	}
	fdsnClient := fdsn.NewClient(cfg.FDSNBaseURL, cfg.FDSNTimeout, metrics, logger)

	inv, err := inventory.Open(cfg.InventoryDBPath, fdsnClient, metrics, logger)
	if err != nil {
		logger.Error("failed to open inventory database", "path", cfg.InventoryDBPath, "error", err)
		os.Exit(1)
	}
	defer inv.Close()

	resolver, err := proj.Bootstrap(inv, metrics, logger)
	if err != nil {
		logger.Error("failed to bootstrap project components", "error", err)
		os.Exit(1)
	}

	comm := proj.Communicator()
	component, err := comm.Get("events")
	if err != nil {
		logger.Error("event store not registered", "error", err)
		os.Exit(1)
	}
	eventStore := component.(*events.Store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reader *kafkaadapter.Reader
	if cfg.IngestEnabled {
		component, err := comm.Get("waveforms")
		if err != nil {
			logger.Error("waveform store not registered", "error", err)
			os.Exit(1)
		}
		waveformStore := component.(*waveforms.Store)

		reader = kafkaadapter.NewReader(cfg, logger)
		ing := ingest.New(reader, waveformStore, logger, metrics, cfg.BatchSize)

		go func() {
			if err := ing.Run(ctx); err != nil {
				logger.Error("ingest error", "error", err)
			}
		}()
		logger.Info("waveform ingest enabled",
			"topic", cfg.KafkaSourceTopic, "group", cfg.KafkaGroupID)
	} else {
		logger.Info("waveform ingest disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, eventStore, resolver, proj, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
