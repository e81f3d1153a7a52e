package tts

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	cloudRPCID = "jQ1olc"
	// cloudMaxChars is the longest text the translate speech endpoint
	// accepts in one call.
	cloudMaxChars = 100
)

var cloudAudioRe = regexp.MustCompile(`jQ1olc","\[\\"(.*)\\"]`)

// cloudVoices is the fixed language set offered for the cloud engine.
var cloudVoices = []Voice{
	{ID: "en", Name: "English", Locale: "en"},
	{ID: "fr", Name: "French", Locale: "fr"},
	{ID: "es", Name: "Spanish", Locale: "es"},
	{ID: "de", Name: "German", Locale: "de"},
	{ID: "it", Name: "Italian", Locale: "it"},
	{ID: "ja", Name: "Japanese", Locale: "ja"},
	{ID: "zh-CN", Name: "Chinese (Simplified)", Locale: "zh-CN"},
}

// CloudConfig holds configuration for the Google Translate speech backend.
type CloudConfig struct {
	BaseURL string // default: "https://translate.google.com"
	Timeout time.Duration
}

// CloudEngine synthesizes speech through the Google Translate web
// endpoint, speaking the same batchexecute protocol as gTTS.
type CloudEngine struct {
	cfg        CloudConfig
	httpClient *http.Client
}

// NewCloudEngine creates a CloudEngine with defaults applied.
func NewCloudEngine(cfg CloudConfig) *CloudEngine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://translate.google.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &CloudEngine{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *CloudEngine) Name() string { return EngineCloud }

func (c *CloudEngine) Format() Format { return FormatMP3 }

// Synthesize splits text into chunks the endpoint accepts and concatenates
// the returned MP3 segments.
func (c *CloudEngine) Synthesize(ctx context.Context, text string, p Params) (*Audio, error) {
	cp := MapCloud(p)
	if cp.Language == "" {
		cp.Language = "en"
	}

	chunks := splitText(text, cloudMaxChars)
	if len(chunks) == 0 {
		return nil, backendErr(EngineCloud, "no speakable text")
	}

	var out bytes.Buffer
	for i, chunk := range chunks {
		audio, err := c.fetch(ctx, chunk, cp)
		if err != nil {
			return nil, &BackendError{Engine: EngineCloud, Err: fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)}
		}
		out.Write(audio)
	}

	slog.Debug("cloud synthesis done", "chunks", len(chunks), "bytes", out.Len(), "lang", cp.Language, "slow", cp.Slow)

	return &Audio{Data: out.Bytes(), Format: FormatMP3, Voice: cp.Language}, nil
}

func (c *CloudEngine) fetch(ctx context.Context, chunk string, cp CloudParams) ([]byte, error) {
	body, err := packageRPC(chunk, cp)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/_/TranslateWebserverUi/data/batchexecute"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
	req.Header.Set("Referer", "http://translate.google.com/")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, cloudRPCID) {
			continue
		}
		m := cloudAudioRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		audio, err := base64.StdEncoding.DecodeString(m[1])
		if err != nil {
			return nil, fmt.Errorf("decode audio: %w", err)
		}
		if len(audio) == 0 {
			break
		}
		return audio, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return nil, fmt.Errorf("no audio content in response (unsupported language %q?)", cp.Language)
}

func (c *CloudEngine) ListVoices(_ context.Context) ([]Voice, error) {
	voices := make([]Voice, len(cloudVoices))
	copy(voices, cloudVoices)
	return voices, nil
}

// packageRPC builds the form body for one batchexecute call.
func packageRPC(text string, cp CloudParams) (string, error) {
	var speed any
	if cp.Slow {
		speed = true
	}
	inner, err := json.Marshal([]any{text, cp.Language, speed, "null"})
	if err != nil {
		return "", err
	}
	rpc, err := json.Marshal([]any{[]any{[]any{cloudRPCID, string(inner), nil, "generic"}}})
	if err != nil {
		return "", err
	}
	return "f.req=" + url.QueryEscape(string(rpc)) + "&", nil
}

// splitText breaks text on whitespace into chunks of at most limit runes.
// Words longer than limit are cut.
func splitText(text string, limit int) []string {
	var chunks []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = cur[:0]
		}
	}
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > limit {
			flush()
			chunks = append(chunks, string(w[:limit]))
			w = w[limit:]
		}
		if len(cur) > 0 && len(cur)+1+len(w) > limit {
			flush()
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	flush()
	return chunks
}
