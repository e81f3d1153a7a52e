package tts

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"
)

type slowEngine struct {
	active, peak atomic.Int32
}

func (s *slowEngine) Name() string   { return "slow" }
func (s *slowEngine) Format() Format { return FormatMP3 }
func (s *slowEngine) ListVoices(context.Context) ([]Voice, error) {
	return nil, nil
}

func (s *slowEngine) Synthesize(ctx context.Context, _ string, _ Params) (*Audio, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return &Audio{Data: []byte("x"), Format: FormatMP3}, nil
}

func TestLimit_CapsConcurrency(t *testing.T) {
	inner := &slowEngine{}
	e := LimitShared(inner, semaphore.NewWeighted(2))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Synthesize(context.Background(), "x", Params{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, inner.peak.Load(), int32(2))
	assert.Equal(t, "slow", e.Name())
}

func TestLimit_ContextCancelled(t *testing.T) {
	sem := semaphore.NewWeighted(1)
	e := LimitShared(&slowEngine{}, sem)
	require.NoError(t, sem.Acquire(context.Background(), 1))
	defer sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := e.Synthesize(ctx, "x", Params{})
	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimitShared_SharesCap(t *testing.T) {
	inner := &slowEngine{}
	sem := semaphore.NewWeighted(1)
	engines := []Engine{LimitShared(inner, sem), LimitShared(inner, sem)}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engines[i%2].Synthesize(context.Background(), "x", Params{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), inner.peak.Load())
}
