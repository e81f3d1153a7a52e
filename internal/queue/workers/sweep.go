package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/speechgate/internal/audiofs"
	"github.com/nikhilbhutani/speechgate/internal/queue"
)

type SweepWorker struct {
	defaultDir    string
	defaultMaxAge time.Duration
}

// NewSweepWorker uses dir and maxAge when a payload leaves them unset.
func NewSweepWorker(dir string, maxAge time.Duration) *SweepWorker {
	return &SweepWorker{defaultDir: dir, defaultMaxAge: maxAge}
}

func (w *SweepWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AudioSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	dir := payload.Dir
	if dir == "" {
		dir = w.defaultDir
	}
	maxAge := time.Duration(payload.MaxAgeSeconds) * time.Second
	if maxAge <= 0 {
		maxAge = w.defaultMaxAge
	}

	rep := audiofs.Sweep(ctx, dir, maxAge)
	slog.Info("audio sweep task done", "dir", dir, "removed", rep.Removed, "failed", rep.Failed)
	return nil
}
