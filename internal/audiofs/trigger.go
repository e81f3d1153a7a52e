package audiofs

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const sweepLockKey = "tts:audio-sweep"

// Trigger starts a sweep without blocking the caller.
type Trigger interface {
	Trigger()
}

// Gate lets one process in a fleet claim a sweep slot for ttl.
type Gate interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// LocalTrigger runs sweeps in a background goroutine of this process.
// At most one sweep runs at a time; triggers that arrive meanwhile are
// dropped.
type LocalTrigger struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	gate     Gate

	running atomic.Bool
	last    atomic.Int64 // unix nanos of the last started sweep
	wg      sync.WaitGroup
}

// LocalOption configures a LocalTrigger.
type LocalOption func(*LocalTrigger)

// WithMinInterval skips triggers that arrive sooner than d after the last
// sweep started.
func WithMinInterval(d time.Duration) LocalOption {
	return func(t *LocalTrigger) { t.interval = d }
}

// WithGate shares the minimum interval with other processes.
func WithGate(g Gate) LocalOption {
	return func(t *LocalTrigger) { t.gate = g }
}

func NewLocalTrigger(dir string, maxAge time.Duration, opts ...LocalOption) *LocalTrigger {
	if maxAge <= 0 {
		maxAge = DefaultRetention
	}
	t := &LocalTrigger{dir: dir, maxAge: maxAge}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *LocalTrigger) Trigger() {
	if t.interval > 0 && time.Since(time.Unix(0, t.last.Load())) < t.interval {
		return
	}
	if !t.running.CompareAndSwap(false, true) {
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.running.Store(false)
		t.run()
	}()
}

func (t *LocalTrigger) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if t.gate != nil && t.interval > 0 {
		ok, err := t.gate.Acquire(ctx, sweepLockKey, t.interval)
		if err != nil {
			slog.Warn("sweep gate unavailable, sweeping anyway", "error", err)
		} else if !ok {
			return
		}
	}
	t.last.Store(time.Now().UnixNano())
	Sweep(ctx, t.dir, t.maxAge)
}

// Wait blocks until in-flight sweeps finish.
func (t *LocalTrigger) Wait() {
	t.wg.Wait()
}
