package handlers

import (
	"encoding/json"
	"net/http"
	"path"
	"time"

	"github.com/nikhilbhutani/speechgate/internal/audiofs"
	"github.com/nikhilbhutani/speechgate/internal/speech"
)

const maxBodyBytes = 1 << 20

type TTSHandler struct {
	svc       *speech.Service
	catalog   *speech.Catalog
	stats     *speech.Stats
	sweeper   audiofs.Trigger
	urlPrefix string
}

func NewTTSHandler(svc *speech.Service, catalog *speech.Catalog, stats *speech.Stats, sweeper audiofs.Trigger, urlPrefix string) *TTSHandler {
	return &TTSHandler{
		svc:       svc,
		catalog:   catalog,
		stats:     stats,
		sweeper:   sweeper,
		urlPrefix: urlPrefix,
	}
}

// ttsRequest uses pointers so absent fields take their defaults while an
// explicit zero (volume 0) is kept.
type ttsRequest struct {
	Text     string   `json:"text"`
	Engine   *string  `json:"engine"`
	Language *string  `json:"language"`
	Voice    *string  `json:"voice"`
	Speed    *float64 `json:"speed"`
	Pitch    *float64 `json:"pitch"`
	Volume   *float64 `json:"volume"`
}

func (b ttsRequest) toRequest() speech.Request {
	req := speech.NewRequest(b.Text)
	if b.Engine != nil {
		req.Engine = *b.Engine
	}
	if b.Language != nil {
		req.Language = *b.Language
	}
	if b.Voice != nil {
		req.Voice = *b.Voice
	}
	if b.Speed != nil {
		req.Speed = *b.Speed
	}
	if b.Pitch != nil {
		req.Pitch = *b.Pitch
	}
	if b.Volume != nil {
		req.Volume = *b.Volume
	}
	return req
}

type ttsResponse struct {
	Status         string   `json:"status"`
	AudioURL       string   `json:"audio_url"`
	ProcessingTime float64  `json:"processing_time"`
	TextPreview    string   `json:"text_preview"`
	FileSize       int64    `json:"file_size"`
	CreatedAt      string   `json:"created_at"`
	Engine         string   `json:"engine"`
	Voice          *string  `json:"voice"`
	Format         string   `json:"format"`
	Duration       *float64 `json:"duration,omitempty"`
}

// Synthesize converts text to speech and returns the URL of the stored
// file. Every call, failed or not, kicks off a background sweep.
func (h *TTSHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.stats.Record(start)
	defer h.sweeper.Trigger()

	var body ttsRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req := body.toRequest()
	res, err := h.svc.Synthesize(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := ttsResponse{
		Status:         "success",
		AudioURL:       path.Join(h.urlPrefix, res.FileName),
		ProcessingTime: round2(time.Since(start).Seconds()),
		TextPreview:    speech.Preview(req.Text),
		FileSize:       res.Size,
		CreatedAt:      res.CreatedAt.Format(time.RFC3339Nano),
		Engine:         res.Engine,
		Format:         string(res.Format),
	}
	if res.Voice != "" {
		resp.Voice = &res.Voice
	}
	if res.Duration > 0 {
		d := round2(res.Duration.Seconds())
		resp.Duration = &d
	}
	writeJSON(w, http.StatusOK, resp)
}

// Voices lists the voices of every engine, or of ?engine= only.
func (h *TTSHandler) Voices(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.List(r.Context(), r.URL.Query().Get("engine"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
