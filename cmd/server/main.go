package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dgunning/filingnotes/internal/api"
	"github.com/dgunning/filingnotes/internal/config"
	"github.com/dgunning/filingnotes/internal/edgar"
	"github.com/dgunning/filingnotes/internal/pipeline"
	"github.com/dgunning/filingnotes/internal/store"
	"github.com/dgunning/filingnotes/internal/taxonomy"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Taxonomy profiles.
	registry := taxonomy.NewRegistry(cfg.TaxonomyDir, log)
	if err := registry.Load(); err != nil {
		log.Error("failed to load taxonomy profiles", "error", err)
		os.Exit(1)
	}
	if cfg.TaxonomyWatch {
		go func() {
			if err := registry.Watch(ctx, 0); err != nil {
				log.Error("taxonomy watcher stopped", "error", err)
			}
		}()
	}

	// Artifact store and index.
	st, err := store.Open(cfg.ArtifactDir, cfg.IndexDBPath, log)
	if err != nil {
		log.Error("failed to open filing store", "error", err)
		os.Exit(1)
	}

	ec := edgar.NewClient(cfg.EdgarBaseURL, cfg.EdgarUserAgent)

	// Initialize pipeline.
	promReg := prometheus.NewRegistry()
	orch := pipeline.NewOrchestrator(cfg, registry, st, pipeline.NewMetrics(promReg), log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, ec, promReg, log, cfg)

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

		ec.Close()
		if err := st.Close(); err != nil {
			log.Error("failed to close filing store", "error", err)
		}
	}()

	log.Info("starting filingnotes", "port", cfg.Port, "taxonomies", registry.Len())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
