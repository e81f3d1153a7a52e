package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/speechgate/internal/audit"
	"github.com/nikhilbhutani/speechgate/internal/speech"
	"github.com/nikhilbhutani/speechgate/internal/tts"
)

type fakeUsage struct {
	start, end *time.Time
	summary    []audit.UsageSummary
	err        error
}

func (f *fakeUsage) GetUsageSummary(_ context.Context, start, end *time.Time) ([]audit.UsageSummary, error) {
	f.start, f.end = start, end
	return f.summary, f.err
}

func TestUsage(t *testing.T) {
	fake := &fakeUsage{summary: []audit.UsageSummary{{Engine: "gtts", TotalCalls: 3, TotalChars: 42}}}
	h := NewUsageHandler(fake)

	rec := httptest.NewRecorder()
	h.Usage(rec, httptest.NewRequest(http.MethodGet, "/api/tts/usage?start_date=2026-01-01T00:00:00Z", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Usage []audit.UsageSummary `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, fake.summary, body.Usage)
	require.NotNil(t, fake.start)
	assert.Equal(t, 2026, fake.start.Year())
	assert.Nil(t, fake.end)
}

func TestUsage_BadDate(t *testing.T) {
	h := NewUsageHandler(&fakeUsage{})
	rec := httptest.NewRecorder()
	h.Usage(rec, httptest.NewRequest(http.MethodGet, "/api/tts/usage?end_date=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "end_date")
}

func TestUsage_QueryError(t *testing.T) {
	h := NewUsageHandler(&fakeUsage{err: errors.New("relation does not exist")})
	rec := httptest.NewRecorder()
	h.Usage(rec, httptest.NewRequest(http.MethodGet, "/api/tts/usage", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUsage_NoDatabase(t *testing.T) {
	rec := httptest.NewRecorder()
	NewUsageHandler(nil).Usage(rec, httptest.NewRequest(http.MethodGet, "/api/tts/usage", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyz(t *testing.T) {
	h := NewHealthHandler(speech.NewStats(), map[string]Pinger{
		"database": PingFunc(func(context.Context) error { return nil }),
		"redis":    PingFunc(func(context.Context) error { return errors.New("dial tcp: refused") }),
		"absent":   nil,
	})

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "ok", body.Checks["database"])
	assert.Contains(t, body.Checks["redis"], "refused")
	assert.NotContains(t, body.Checks, "absent")
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&speech.ValidationError{Field: "text", Message: "text must not be empty"}, http.StatusBadRequest},
		{&speech.UnsupportedEngineError{Engine: "festival"}, http.StatusBadRequest},
		{&speech.SynthesisError{Engine: "gtts", Err: &tts.BackendError{Engine: "gtts", Err: errors.New("503")}}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
		assert.Contains(t, rec.Body.String(), `"error"`)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.2345))
	assert.Equal(t, 0.0, round2(0.001))
}
