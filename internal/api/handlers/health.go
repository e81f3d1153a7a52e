package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/nikhilbhutani/speechgate/internal/speech"
)

// Pinger is anything readiness can probe: the Postgres pool, the Redis
// cache, the audio store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	checks map[string]Pinger
	stats  *speech.Stats
}

// NewHealthHandler takes the readiness checks by name. Nil checks are
// skipped so optional dependencies can be passed unconditionally.
func NewHealthHandler(stats *speech.Stats, checks map[string]Pinger) *HealthHandler {
	h := &HealthHandler{checks: make(map[string]Pinger, len(checks)), stats: stats}
	for name, p := range checks {
		if p != nil {
			h.checks[name] = p
		}
	}
	return h
}

func (h *HealthHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Text-to-Speech API"})
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
		} else {
			checks[name] = "ok"
		}
	}

	status := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, status, map[string]interface{}{"status": statusStr(status), "checks": checks})
}

type serviceHealth struct {
	Status        string  `json:"status"`
	Message       string  `json:"message"`
	Uptime        float64 `json:"uptime"`
	TotalRequests int64   `json:"total_requests"`
	LastRequest   *string `json:"last_request"`
}

// Service reports uptime and request counters of the TTS API.
func (h *HealthHandler) Service(w http.ResponseWriter, r *http.Request) {
	snap := h.stats.Snapshot()
	resp := serviceHealth{
		Status:        "ok",
		Message:       "TTS service is running",
		Uptime:        round2(snap.Uptime.Seconds()),
		TotalRequests: snap.TotalRequests,
	}
	if snap.LastRequest != nil {
		s := snap.LastRequest.Format(time.RFC3339Nano)
		resp.LastRequest = &s
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusStr(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "unhealthy"
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps service errors onto status codes. Anything that is not
// a client mistake is a 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr *speech.ValidationError
		uerr *speech.UnsupportedEngineError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &uerr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
