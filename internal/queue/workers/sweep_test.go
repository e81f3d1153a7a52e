package workers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/speechgate/internal/queue"
)

func TestSweepWorker_ProcessTask(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.mp3")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	mt := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, mt, mt))

	w := NewSweepWorker("/does/not/matter", 24*time.Hour)

	data, _ := json.Marshal(queue.AudioSweepPayload{Dir: dir, MaxAgeSeconds: 3600})
	require.NoError(t, w.ProcessTask(context.Background(), asynq.NewTask(queue.TypeAudioSweep, data)))

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
}

func TestSweepWorker_Defaults(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "recent.mp3")
	require.NoError(t, os.WriteFile(kept, []byte("x"), 0o644))
	mt := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(kept, mt, mt))

	w := NewSweepWorker(dir, 24*time.Hour)
	require.NoError(t, w.ProcessTask(context.Background(), asynq.NewTask(queue.TypeAudioSweep, []byte(`{}`))))

	_, err := os.Stat(kept)
	assert.NoError(t, err)
}

func TestSweepWorker_BadPayload(t *testing.T) {
	w := NewSweepWorker(t.TempDir(), time.Hour)
	err := w.ProcessTask(context.Background(), asynq.NewTask(queue.TypeAudioSweep, []byte("{")))
	assert.Error(t, err)
}
