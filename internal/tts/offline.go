package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// wavHeaderSize is the size of the RIFF header espeak-ng writes before PCM.
const wavHeaderSize = 44

// OfflineConfig holds configuration for the local espeak-ng backend.
type OfflineConfig struct {
	BinPath string // default: "espeak-ng"
}

type runFunc func(ctx context.Context, bin string, args []string, stdin io.Reader) ([]byte, error)

// OfflineEngine synthesizes speech with a local espeak-ng binary. The
// engine behaves like a single native handle: it is initialized once on
// first use and synthesis calls are serialized.
type OfflineEngine struct {
	cfg OfflineConfig
	run runFunc

	mu     sync.Mutex
	ready  bool
	voices []Voice
}

// NewOfflineEngine creates an OfflineEngine. Nothing is executed until the
// first call.
func NewOfflineEngine(cfg OfflineConfig) *OfflineEngine {
	if cfg.BinPath == "" {
		cfg.BinPath = "espeak-ng"
	}
	return &OfflineEngine{cfg: cfg, run: runCommand}
}

func (o *OfflineEngine) Name() string { return EngineOffline }

func (o *OfflineEngine) Format() Format { return FormatWAV }

// Synthesize pipes text into espeak-ng and returns the WAV it writes to
// stdout. Language is not used; the voice decides pronunciation.
func (o *OfflineEngine) Synthesize(ctx context.Context, text string, p Params) (*Audio, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.initLocked(ctx); err != nil {
		return nil, err
	}

	op := MapOffline(p)
	voice := o.matchVoiceLocked(op.Voice)

	args := []string{
		"--stdout",
		"-s", strconv.Itoa(op.Rate),
		"-a", strconv.Itoa(int(math.Round(op.Volume * 100))),
	}
	if voice != "" {
		args = append(args, "-v", voice)
	}

	out, err := o.run(ctx, o.cfg.BinPath, args, strings.NewReader(text))
	if err != nil {
		return nil, &BackendError{Engine: EngineOffline, Err: err}
	}
	if len(out) <= wavHeaderSize {
		return nil, backendErr(EngineOffline, "no audio data received")
	}

	return &Audio{Data: out, Format: FormatWAV, Voice: voice}, nil
}

func (o *OfflineEngine) ListVoices(ctx context.Context) ([]Voice, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.initLocked(ctx); err != nil {
		return nil, err
	}
	voices := make([]Voice, len(o.voices))
	copy(voices, o.voices)
	return voices, nil
}

// initLocked loads the native voice list. A failed attempt is retried on
// the next call.
func (o *OfflineEngine) initLocked(ctx context.Context) error {
	if o.ready {
		return nil
	}
	out, err := o.run(ctx, o.cfg.BinPath, []string{"--voices"}, nil)
	if err != nil {
		return &BackendError{Engine: EngineOffline, Err: fmt.Errorf("initialize: %w", err)}
	}
	o.voices = parseVoiceList(string(out))
	o.ready = true
	slog.Info("offline tts engine initialized", "bin", o.cfg.BinPath, "voices", len(o.voices))
	return nil
}

// matchVoiceLocked returns the first native voice whose id contains want.
// An unmatched request keeps the synthesizer's default voice.
func (o *OfflineEngine) matchVoiceLocked(want string) string {
	if want == "" {
		return ""
	}
	for _, v := range o.voices {
		if strings.Contains(v.ID, want) {
			return v.ID
		}
	}
	slog.Debug("offline voice not found, using default", "voice", want)
	return ""
}

// parseVoiceList reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File        Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
func parseVoiceList(out string) []Voice {
	var voices []Voice
	for _, line := range strings.Split(out, "\n") {
		f := strings.Fields(line)
		if len(f) < 4 || f[0] == "Pty" {
			continue
		}
		v := Voice{
			ID:     f[1],
			Name:   strings.ReplaceAll(f[3], "_", " "),
			Locale: f[1],
		}
		if i := strings.IndexByte(f[2], '/'); i >= 0 {
			switch f[2][i+1:] {
			case "M":
				v.Gender = "male"
			case "F":
				v.Gender = "female"
			}
		}
		voices = append(voices, v)
	}
	return voices
}

func runCommand(ctx context.Context, bin string, args []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w (stderr: %s)", bin, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
