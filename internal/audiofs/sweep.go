package audiofs

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultRetention is how long generated files are kept.
const DefaultRetention = 24 * time.Hour

var remove = os.Remove

// Report summarizes one sweep.
type Report struct {
	Scanned int   `json:"scanned"`
	Removed int   `json:"removed"`
	Failed  int   `json:"failed"`
	Freed   int64 `json:"freed_bytes"`
}

// Sweep deletes audio files in dir whose modification time is older than
// maxAge. Errors are logged per entry and never stop the sweep; a listing
// error ends it early with an empty report.
func Sweep(ctx context.Context, dir string, maxAge time.Duration) Report {
	var rep Report

	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Error("audio sweep: list directory", "dir", dir, "error", err)
		return rep
	}

	now := time.Now()
	for _, entry := range entries {
		if ctx.Err() != nil {
			slog.Warn("audio sweep interrupted", "dir", dir, "error", ctx.Err())
			break
		}
		if !entry.Type().IsRegular() || !isAudio(entry.Name()) {
			continue
		}
		rep.Scanned++

		info, err := entry.Info()
		if err != nil {
			// Already gone, e.g. removed by a concurrent sweep.
			if !os.IsNotExist(err) {
				rep.Failed++
				slog.Error("audio sweep: stat", "file", entry.Name(), "error", err)
			}
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}

		if err := remove(filepath.Join(dir, entry.Name())); err != nil {
			if !os.IsNotExist(err) {
				rep.Failed++
				slog.Error("audio sweep: remove", "file", entry.Name(), "error", err)
			}
			continue
		}
		rep.Removed++
		rep.Freed += info.Size()
		slog.Info("removed old audio file", "file", entry.Name(), "age", now.Sub(info.ModTime()).Round(time.Second).String())
	}

	if rep.Removed > 0 || rep.Failed > 0 {
		slog.Info("audio sweep finished",
			"dir", dir,
			"scanned", rep.Scanned,
			"removed", rep.Removed,
			"failed", rep.Failed,
			"freed", humanize.Bytes(uint64(rep.Freed)),
		)
	}
	return rep
}
