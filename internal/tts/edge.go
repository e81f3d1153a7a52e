package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/pp-group/edge-tts-go/biz/service/tts/edge"
)

const (
	defaultEdgeVoice     = "en-US-AriaNeural"
	defaultEdgeVoicesURL = "https://speech.platform.bing.com/consumer/speech/synthesize/readaloud/voices/list?trustedclienttoken=6A5AA1D4EAFF4E9FB37E23D68491D6F4"
)

var codecRateRe = regexp.MustCompile(`(\d+)khz`)

// EdgeConfig holds configuration for the Microsoft Edge read-aloud backend.
type EdgeConfig struct {
	DefaultVoice string // default: "en-US-AriaNeural"
	VoicesURL    string
	Timeout      time.Duration
}

type edgeStreamFunc func(ctx context.Context, text string, ep EdgeParams) ([]byte, error)

// EdgeEngine synthesizes speech with the Edge read-aloud service through
// edge-tts-go. The service returns MP3.
type EdgeEngine struct {
	cfg        EdgeConfig
	stream     edgeStreamFunc
	httpClient *http.Client
}

// NewEdgeEngine creates an EdgeEngine with defaults applied.
func NewEdgeEngine(cfg EdgeConfig) *EdgeEngine {
	if cfg.DefaultVoice == "" {
		cfg.DefaultVoice = defaultEdgeVoice
	}
	if cfg.VoicesURL == "" {
		cfg.VoicesURL = defaultEdgeVoicesURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &EdgeEngine{
		cfg:        cfg,
		stream:     streamEdge,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (e *EdgeEngine) Name() string { return EngineEdge }

func (e *EdgeEngine) Format() Format { return FormatMP3 }

func (e *EdgeEngine) Synthesize(ctx context.Context, text string, p Params) (*Audio, error) {
	ep := MapEdge(p)
	if ep.Voice == "" {
		ep.Voice = e.cfg.DefaultVoice
	}

	slog.Debug("edge synthesis", "chars", len([]rune(text)), "voice", ep.Voice, "rate", ep.Rate, "volume", ep.Volume)

	data, err := e.stream(ctx, text, ep)
	if err != nil {
		return nil, &BackendError{Engine: EngineEdge, Err: err}
	}
	if len(data) == 0 {
		return nil, backendErr(EngineEdge, "no audio data received (voice %q)", ep.Voice)
	}
	return &Audio{Data: data, Format: FormatMP3, Voice: ep.Voice}, nil
}

type edgeVoice struct {
	Name           string `json:"Name"`
	ShortName      string `json:"ShortName"`
	FriendlyName   string `json:"FriendlyName"`
	Gender         string `json:"Gender"`
	Locale         string `json:"Locale"`
	SuggestedCodec string `json:"SuggestedCodec"`
}

// ListVoices queries the service's voice list.
func (e *EdgeEngine) ListVoices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", e.cfg.VoicesURL, nil)
	if err != nil {
		return nil, &BackendError{Engine: EngineEdge, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, backendErr(EngineEdge, "list voices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, backendErr(EngineEdge, "list voices failed (status %d): %s", resp.StatusCode, string(body))
	}

	var raw []edgeVoice
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, backendErr(EngineEdge, "decode voices: %w", err)
	}

	voices := make([]Voice, 0, len(raw))
	for _, v := range raw {
		name := v.FriendlyName
		if name == "" {
			name = v.ShortName
		}
		voices = append(voices, Voice{
			ID:         v.ShortName,
			Name:       name,
			Locale:     v.Locale,
			Gender:     v.Gender,
			SampleRate: codecSampleRate(v.SuggestedCodec),
		})
	}
	return voices, nil
}

// codecSampleRate extracts the rate from codec names such as
// "audio-24khz-48kbitrate-mono-mp3".
func codecSampleRate(codec string) int {
	m := codecRateRe.FindStringSubmatch(codec)
	if m == nil {
		return 0
	}
	khz, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return khz * 1000
}

func streamEdge(ctx context.Context, text string, ep EdgeParams) ([]byte, error) {
	comm, err := edge.NewCommunicate(text,
		edge.WithVoice(ep.Voice),
		edge.WithRate(ep.Rate),
		edge.WithVolume(ep.Volume),
	)
	if err != nil {
		return nil, fmt.Errorf("create communicate: %w", err)
	}

	ch, err := comm.Stream()
	if err != nil {
		return nil, fmt.Errorf("start stream: %w", err)
	}
	// The library never closes the channel itself. Closing it also unblocks
	// part readers still sending after we stop listening.
	defer comm.CloseOutput()

	return collectEdge(ctx, ch, comm.AudioDataIndex)
}

// collectEdge reads one Communicate stream until every one of its parts
// has ended. Parts are synthesized over parallel connections, so frames
// are buffered per part and joined in part order.
func collectEdge(ctx context.Context, ch <-chan map[string]interface{}, parts int) ([]byte, error) {
	chunks := make([]bytes.Buffer, parts)
	for ended := 0; ended < parts; {
		var msg map[string]interface{}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil, fmt.Errorf("stream closed after %d of %d parts", ended, parts)
			}
			msg = m
		}

		if e, ok := msg["error"]; ok {
			return nil, fmt.Errorf("stream: %s", edgeErrorMessage(e))
		}
		if _, ok := msg["end"]; ok {
			ended++
			continue
		}
		if t, _ := msg["type"].(string); t != "audio" {
			continue
		}
		ad, ok := msg["data"].(edge.AudioData)
		if !ok || ad.Index < 0 || ad.Index >= parts {
			continue
		}
		chunks[ad.Index].Write(ad.Data)
	}

	var out bytes.Buffer
	for i := range chunks {
		out.Write(chunks[i].Bytes())
	}
	return out.Bytes(), nil
}

func edgeErrorMessage(e interface{}) string {
	switch v := e.(type) {
	case edge.NoAudioReceived:
		return v.Message
	case edge.WebSocketError:
		return "websocket: " + v.Message
	case edge.UnknownResponse:
		return v.Message
	case edge.UnexpectedResponse:
		return v.Message
	case error:
		return v.Error()
	}
	return fmt.Sprint(e)
}
