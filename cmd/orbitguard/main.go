package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/orbit/orbitguard/internal/api"
	"github.com/orbit/orbitguard/internal/flux"
	"github.com/orbit/orbitguard/internal/metrics"
	"github.com/orbit/orbitguard/internal/observability"
	"github.com/orbit/orbitguard/internal/propagation"
	"github.com/orbit/orbitguard/internal/tle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("ORBITGUARD_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.ConfigFromEnv(), logger)
	if err != nil {
		logger.Error("tracing initialization failed", "error", err)
		os.Exit(1)
	}

	// The flux grid is a startup dependency: a missing or corrupt table is
	// fatal here, never surfaced per-query.
	table, err := loadFluxTable(logger)
	if err != nil {
		logger.Error("flux table unavailable", "error", err)
		os.Exit(1)
	}

	store := tle.NewStore(logger)
	snapCfg := loadSnapshotConfig(logger)
	snapshots := tle.NewSnapshots(snapCfg.Dir, snapCfg.MaxFiles)

	// Reload the last ingested dataset, if any.
	if text, ts, err := snapshots.LoadLatest(); err != nil {
		logger.Info("no TLE snapshot found, starting with an empty store", "error", err)
	} else if count, err := store.Replace(text, "snapshot"); err != nil {
		logger.Warn("failed to parse TLE snapshot", "error", err)
	} else {
		metrics.SetTLERecords(store.Count())
		logger.Info("loaded TLE snapshot", "count", count, "snapshot_at", ts.Format(time.RFC3339))
	}

	prop := propagation.NewPropagator(loadPropConfig(logger), logger)

	apiCfg := api.DefaultConfig(addr)
	apiCfg.SampleTLEPath = os.Getenv("ORBITGUARD_SAMPLE_TLE")
	srv := api.NewServer(apiCfg, logger, store, prop, table, snapshots)

	go func() {
		logger.Info("starting server", "addr", addr, "flux_points", table.Len(), "tle_records", store.Count())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)
	logger.Info("server stopped")
}

func loadFluxTable(logger *slog.Logger) (*flux.Table, error) {
	if path := os.Getenv("ORBITGUARD_FLUX_TABLE"); path != "" {
		table, err := flux.LoadFile(path)
		if err != nil {
			return nil, err
		}
		logger.Info("flux table loaded", "path", path, "points", table.Len())
		return table, nil
	}

	table, err := flux.Default()
	if err != nil {
		return nil, err
	}
	logger.Info("flux table loaded", "path", "embedded sample", "points", table.Len())
	return table, nil
}

func loadPropConfig(logger *slog.Logger) propagation.Config {
	cfg := propagation.Config{Workers: runtime.NumCPU()}

	if v := os.Getenv("ORBITGUARD_PROP_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITGUARD_PROP_WORKERS value, using default", "value", v, "default", cfg.Workers)
		} else {
			cfg.Workers = n
		}
	}

	logger.Info("propagation config", "workers", cfg.Workers)
	return cfg
}

type snapshotConfig struct {
	Dir      string
	MaxFiles int
}

func loadSnapshotConfig(logger *slog.Logger) snapshotConfig {
	cfg := snapshotConfig{
		Dir:      "/tmp/orbitguard/tle",
		MaxFiles: 5,
	}

	if v := os.Getenv("ORBITGUARD_TLE_SNAPSHOT_DIR"); v != "" {
		cfg.Dir = v
	}

	if v := os.Getenv("ORBITGUARD_TLE_SNAPSHOT_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITGUARD_TLE_SNAPSHOT_MAX_FILES value, using default", "value", v, "default", cfg.MaxFiles)
		} else {
			cfg.MaxFiles = n
		}
	}

	logger.Info("snapshot config", "dir", cfg.Dir, "max_files", cfg.MaxFiles)
	return cfg
}
