package main

import (
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/speechgate/internal/config"
	"github.com/nikhilbhutani/speechgate/internal/queue"
	"github.com/nikhilbhutani/speechgate/internal/queue/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if cfg.Redis.Addr == "" {
		slog.Error("REDIS_ADDR is required for the worker")
		os.Exit(1)
	}

	// Sweeps are cheap and deduplicated upstream; one at a time is enough.
	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				queue.QueueMaintenance: 1,
			},
			Logger: queue.NewLogger(logger),
		},
	)

	registry := queue.NewHandlersRegistry()

	sweepWorker := workers.NewSweepWorker(cfg.Audio.Dir, cfg.Retention())
	registry.Register(queue.TypeAudioSweep, sweepWorker)

	slog.Info("starting worker", "audio_dir", cfg.Audio.Dir, "retention", cfg.Retention().String())
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
