package audiofs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("audio"), 0o644))
	mt := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(p, mt, mt))
	return p
}

func TestStore_NewNameUnique(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		n := s.NewName(".mp3")
		require.True(t, strings.HasSuffix(n, ".mp3"))
		_, dup := seen[n]
		require.False(t, dup, "duplicate name %s", n)
		seen[n] = struct{}{}
	}
}

func TestStore_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "static", "audio")
	s, err := NewStore(dir)
	require.NoError(t, err)

	name := s.NewName(".wav")
	size, err := s.Write(name, []byte("RIFF....WAVE"))
	require.NoError(t, err)
	assert.Equal(t, int64(12), size)

	info, err := os.Stat(s.Path(name))
	require.NoError(t, err)
	assert.Equal(t, size, info.Size())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
	assert.NoError(t, s.Writable())
}

func TestStore_PathStaysInDir(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "passwd"), s.Path("../../etc/passwd"))
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "old.mp3", 25*time.Hour)
	writeAged(t, dir, "old.wav", 48*time.Hour)
	writeAged(t, dir, "fresh.mp3", time.Hour)
	writeAged(t, dir, "notes.txt", 72*time.Hour)
	writeAged(t, dir, tmpPrefix+"123", 72*time.Hour)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.mp3"), 0o755))

	rep := Sweep(context.Background(), dir, 24*time.Hour)
	assert.Equal(t, 2, rep.Removed)
	assert.Equal(t, 3, rep.Scanned)
	assert.Equal(t, 0, rep.Failed)
	assert.Equal(t, int64(10), rep.Freed)

	for _, name := range []string{"fresh.mp3", "notes.txt", tmpPrefix + "123", "sub.mp3"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	again := Sweep(context.Background(), dir, 24*time.Hour)
	assert.Equal(t, 0, again.Removed, "second sweep is a no-op")
}

func TestSweep_FailureDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "a.mp3", 25*time.Hour)
	writeAged(t, dir, "locked.mp3", 25*time.Hour)
	writeAged(t, dir, "z.wav", 25*time.Hour)

	orig := remove
	remove = func(path string) error {
		if filepath.Base(path) == "locked.mp3" {
			return &os.PathError{Op: "remove", Path: path, Err: os.ErrPermission}
		}
		return orig(path)
	}
	t.Cleanup(func() { remove = orig })

	rep := Sweep(context.Background(), dir, 24*time.Hour)
	assert.Equal(t, 3, rep.Scanned)
	assert.Equal(t, 2, rep.Removed)
	assert.Equal(t, 1, rep.Failed)

	for name, kept := range map[string]bool{"a.mp3": false, "locked.mp3": true, "z.wav": false} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.Equal(t, kept, err == nil, name)
	}
}

func TestSweep_MissingDir(t *testing.T) {
	rep := Sweep(context.Background(), filepath.Join(t.TempDir(), "nope"), time.Hour)
	assert.Equal(t, Report{}, rep)
}

type fakeGate struct {
	calls atomic.Int32
	allow bool
	err   error
}

func (g *fakeGate) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.calls.Add(1)
	return g.allow, g.err
}

func TestLocalTrigger(t *testing.T) {
	dir := t.TempDir()
	old := writeAged(t, dir, "old.mp3", 30*time.Hour)

	tr := NewLocalTrigger(dir, 0)
	tr.Trigger()
	tr.Wait()

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalTrigger_NoOverlap(t *testing.T) {
	tr := NewLocalTrigger(t.TempDir(), time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Trigger()
		}()
	}
	wg.Wait()
	tr.Wait()
	assert.False(t, tr.running.Load())
}

func TestLocalTrigger_Gate(t *testing.T) {
	dir := t.TempDir()
	old := writeAged(t, dir, "old.mp3", 30*time.Hour)

	denied := &fakeGate{allow: false}
	tr := NewLocalTrigger(dir, 24*time.Hour, WithMinInterval(time.Minute), WithGate(denied))
	tr.Trigger()
	tr.Wait()
	assert.Equal(t, int32(1), denied.calls.Load())
	_, err := os.Stat(old)
	assert.NoError(t, err, "gate held elsewhere")

	broken := &fakeGate{err: errors.New("redis: connection refused")}
	tr = NewLocalTrigger(dir, 24*time.Hour, WithMinInterval(time.Minute), WithGate(broken))
	tr.Trigger()
	tr.Wait()
	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err), "sweeps proceed when the gate is down")

	// Inside the interval the trigger does not even ask the gate.
	tr.Trigger()
	tr.Wait()
	assert.Equal(t, int32(1), broken.calls.Load())
}
