package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/fundgest/internal/api"
	"github.com/dgallion1/fundgest/internal/config"
	"github.com/dgallion1/fundgest/internal/dataset"
	"github.com/dgallion1/fundgest/internal/pipeline"
	"github.com/dgallion1/fundgest/internal/recordstore"
	"github.com/dgallion1/fundgest/internal/sink"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	var sections config.Sections
	if cfg.SectionsFile != "" {
		if sections, err = config.LoadSections(cfg.SectionsFile); err != nil {
			log.Error("invalid sections file", "path", cfg.SectionsFile, "error", err)
			os.Exit(1)
		}
	}
	reg, err := dataset.NewDefault(log, sections)
	if err != nil {
		log.Error("build dataset registry", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize sinks.
	var (
		sinks []sink.Sink
		store api.RecordStore
		rs    *recordstore.Client
	)
	if cfg.OutputDir != "" {
		sinks = append(sinks, sink.Dir{Path: cfg.OutputDir})
	}
	if cfg.RecordStoreURL != "" {
		rs = recordstore.NewClient(cfg.RecordStoreURL, cfg.RecordStoreAPIKey)
		sinks = append(sinks, sink.Store{Client: rs})
		store = rs
	}
	if len(sinks) == 0 {
		log.Warn("no sinks configured; outputs are only kept in job state")
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, reg, sinks, pipeline.NewMetrics(), pipeline.NewStats(cfg.StatsWindow), log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, store, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if rs != nil {
			rs.Close()
		}
	}()

	log.Info("starting fundgest", "port", cfg.Port, "datasets", len(reg.Processors()), "sinks", len(sinks))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
