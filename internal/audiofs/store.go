// Package audiofs owns the generated audio files: naming, atomic writes
// and retention sweeps.
package audiofs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// tmpPrefix marks files that are still being written. Sweeps never match
// them because their extension is not an audio extension.
const tmpPrefix = ".incoming-"

// Extensions lists the file extensions sweeps consider audio output.
var Extensions = []string{".mp3", ".wav"}

func isAudio(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Store writes audio files into a single directory.
type Store struct {
	dir string
}

// NewStore creates dir if needed and returns a Store rooted at it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// NewName returns a fresh random file name with the given extension.
func (s *Store) NewName(ext string) string {
	return uuid.NewString() + ext
}

// Path returns the absolute location of name inside the store.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Write stores data under name. The bytes land in a temporary file first
// and are renamed into place, so readers and sweeps never see a partial
// file. It returns the size on disk.
func (s *Store) Write(name string, data []byte) (int64, error) {
	tmp, err := os.CreateTemp(s.dir, tmpPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return 0, fmt.Errorf("write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return 0, fmt.Errorf("close audio: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return 0, fmt.Errorf("chmod audio: %w", err)
	}

	dst := s.Path(name)
	if err := os.Rename(tmpPath, dst); err != nil {
		cleanup()
		return 0, fmt.Errorf("rename audio: %w", err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return 0, fmt.Errorf("stat audio: %w", err)
	}
	return info.Size(), nil
}

// Writable checks that the directory accepts new files.
func (s *Store) Writable() error {
	f, err := os.CreateTemp(s.dir, tmpPrefix+"probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
