package speech

import (
	"sync/atomic"
	"time"
)

// Stats counts inbound requests for the health endpoint. One instance is
// created at startup and shared by the handlers.
type Stats struct {
	started time.Time
	total   atomic.Int64
	last    atomic.Int64 // unix nanos, 0 until the first request
}

// Snapshot is a consistent-enough copy of Stats for reporting.
type Snapshot struct {
	Uptime        time.Duration
	TotalRequests int64
	LastRequest   *time.Time
}

func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

// Record counts one request received at t.
func (s *Stats) Record(t time.Time) {
	s.total.Add(1)
	s.last.Store(t.UnixNano())
}

func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Uptime:        time.Since(s.started),
		TotalRequests: s.total.Load(),
	}
	if n := s.last.Load(); n != 0 {
		t := time.Unix(0, n)
		snap.LastRequest = &t
	}
	return snap
}
