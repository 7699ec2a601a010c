package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"retailpulse/internal/api"
	"retailpulse/internal/client"
	"retailpulse/internal/config"
	"retailpulse/internal/kpi"
	"retailpulse/internal/orchestrator"
	"retailpulse/internal/pattern"
	"retailpulse/internal/search"
	"retailpulse/internal/store"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/pipeline.yaml", "Path to pipeline YAML config")
	flag.Parse()

	// Optional .env bootstrap for collaborator URL overrides.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	applyEnvOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	// ── Process-scoped pipeline state ─────────────────────────────────────────
	events := store.NewEventStore(cfg.Ingest.StoreCapacity)
	engine := search.NewEngine()
	analyzer := pattern.NewAnalyzer()
	snapshot := kpi.NewSnapshot()
	ledger := orchestrator.NewLedger(cfg.Pipeline.AuditCapacity)

	// ── Collaborator clients ─────────────────────────────────────────────────
	analyzerClient := client.NewAnalyzerClient(cfg.Pipeline.AnalyzerURL)
	kpiClient := client.NewKPIClient(cfg.Pipeline.KPIURL)

	// ── Orchestrator ─────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := orchestrator.New(ctx, analyzerClient, kpiClient, ledger,
		settingsFrom(cfg), cfg.Pipeline.QueueDepth)
	slog.Info("orchestrator ready",
		"max_batch_events", cfg.Pipeline.MaxBatchEvents,
		"sub_batch_size", cfg.Pipeline.SubBatchSize,
		"analyzer_url", cfg.Pipeline.AnalyzerURL,
		"kpi_url", cfg.Pipeline.KPIURL)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		applyEnvOverrides(newCfg)
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		orch.SwapSettings(settingsFrom(newCfg))
		slog.Info("pipeline settings hot-reloaded",
			"sub_batch_size", newCfg.Pipeline.SubBatchSize,
			"max_batch_events", newCfg.Pipeline.MaxBatchEvents)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(events, engine, analyzer, snapshot, orch, loader)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	orch.Drain()
	cancel()
	slog.Info("goodbye")
}

func settingsFrom(cfg *config.Config) orchestrator.Settings {
	return orchestrator.Settings{
		MaxBatchEvents:  cfg.Pipeline.MaxBatchEvents,
		SubBatchSize:    cfg.Pipeline.SubBatchSize,
		AnalyzerTimeout: time.Duration(cfg.Pipeline.AnalyzerTimeoutMs) * time.Millisecond,
		KPITimeout:      time.Duration(cfg.Pipeline.KPITimeoutMs) * time.Millisecond,
	}
}

// applyEnvOverrides lets deployment environments point the orchestrator
// at remote collaborators without editing the config file.
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv("ANALYZER_URL"); v != "" {
		cfg.Pipeline.AnalyzerURL = v
	}
	if v := os.Getenv("KPI_URL"); v != "" {
		cfg.Pipeline.KPIURL = v
	}
}
