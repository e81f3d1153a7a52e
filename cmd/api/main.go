package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/speechgate/internal/api"
	"github.com/nikhilbhutani/speechgate/internal/api/handlers"
	"github.com/nikhilbhutani/speechgate/internal/audiofs"
	"github.com/nikhilbhutani/speechgate/internal/audit"
	"github.com/nikhilbhutani/speechgate/internal/cache"
	"github.com/nikhilbhutani/speechgate/internal/config"
	"github.com/nikhilbhutani/speechgate/internal/database"
	"github.com/nikhilbhutani/speechgate/internal/queue"
	"github.com/nikhilbhutani/speechgate/internal/speech"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, err := audiofs.NewStore(cfg.Audio.Dir)
	if err != nil {
		slog.Error("failed to prepare audio directory", "dir", cfg.Audio.Dir, "error", err)
		os.Exit(1)
	}

	checks := map[string]handlers.Pinger{
		"audio_dir": handlers.PingFunc(func(context.Context) error { return store.Writable() }),
	}
	opts := []speech.Option{speech.WithTimeout(cfg.TTS.Timeout)}
	var usage handlers.UsageReader

	// Database connection (optional, usage log only)
	db, err := database.NewPool(ctx, cfg.Database)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		slog.Info("DATABASE_URL not set, usage log disabled")
	case err != nil:
		slog.Warn("database unavailable, running without usage log", "error", err)
	default:
		defer db.Close()
		if n, err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
			slog.Warn("migrations failed", "error", err)
		} else if n > 0 {
			slog.Info("migrations applied", "count", n)
		}
		auditSvc := audit.NewService(db)
		opts = append(opts, speech.WithRecorder(auditSvc))
		usage = auditSvc
		checks["database"] = db
	}

	// Redis connection (optional, sweep gate and queue)
	var rdc *cache.Cache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		rdc = cache.NewCache(rdb)
		if err := rdc.Ping(ctx); err != nil {
			slog.Warn("redis unavailable", "error", err)
		}
		checks["redis"] = rdc
	}

	var sweeper audiofs.Trigger
	var local *audiofs.LocalTrigger
	switch cfg.Audio.SweepMode {
	case "queue":
		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		sweeper = queue.NewSweepTrigger(qc, store.Dir(), cfg.Retention(), cfg.Audio.SweepInterval)
		slog.Info("audio sweeps delegated to worker")
	default:
		localOpts := []audiofs.LocalOption{audiofs.WithMinInterval(cfg.Audio.SweepInterval)}
		if rdc != nil {
			localOpts = append(localOpts, audiofs.WithGate(rdc))
		}
		local = audiofs.NewLocalTrigger(store.Dir(), cfg.Retention(), localOpts...)
		sweeper = local
	}

	engines := speech.NewEngines(cfg.TTS)
	stats := speech.NewStats()

	router := api.NewRouter(cfg, api.Deps{
		Service: speech.NewService(store, engines, opts...),
		Catalog: speech.NewCatalog(engines),
		Stats:   stats,
		Sweeper: sweeper,
		Usage:   usage,
		Checks:  checks,
	})
	defer router.Close()
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.TTS.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr(), "audio_dir", store.Dir(), "sweep_mode", cfg.Audio.SweepMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	if local != nil {
		local.Wait()
	}
	slog.Info("server stopped")
}
