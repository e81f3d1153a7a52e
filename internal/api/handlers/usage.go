package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nikhilbhutani/speechgate/internal/audit"
)

// UsageReader is implemented by audit.Service.
type UsageReader interface {
	GetUsageSummary(ctx context.Context, startDate, endDate *time.Time) ([]audit.UsageSummary, error)
}

type UsageHandler struct {
	usage UsageReader
}

// NewUsageHandler accepts a nil reader when no database is configured.
func NewUsageHandler(usage UsageReader) *UsageHandler {
	return &UsageHandler{usage: usage}
}

func (h *UsageHandler) Usage(w http.ResponseWriter, r *http.Request) {
	if h.usage == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "usage log not configured"})
		return
	}

	startDate, err := queryTime(r, "start_date")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	endDate, err := queryTime(r, "end_date")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	summary, err := h.usage.GetUsageSummary(r.Context(), startDate, endDate)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"usage": summary})
}

func queryTime(r *http.Request, key string) (*time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp", key)
	}
	return &t, nil
}
