package tts

import (
	"context"

	"golang.org/x/sync/semaphore"
)

type limited struct {
	Engine
	sem *semaphore.Weighted
}

// LimitShared caps concurrent Synthesize calls on e with sem. Engines
// passed the same semaphore share one cap.
func LimitShared(e Engine, sem *semaphore.Weighted) Engine {
	return &limited{Engine: e, sem: sem}
}

func (l *limited) Synthesize(ctx context.Context, text string, p Params) (*Audio, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, backendErr(l.Name(), "wait for synthesis slot: %w", err)
	}
	defer l.sem.Release(1)
	return l.Engine.Synthesize(ctx, text, p)
}
