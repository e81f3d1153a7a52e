package speech

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nikhilbhutani/speechgate/internal/audiofs"
	"github.com/nikhilbhutani/speechgate/internal/tts"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 60 * time.Second

// Result describes a stored synthesis.
type Result struct {
	FileName  string
	Size      int64
	CreatedAt time.Time
	Engine    string
	Voice     string
	Format    tts.Format
	Duration  time.Duration // zero when it could not be determined
}

// Record is one synthesis attempt as handed to a Recorder.
type Record struct {
	Engine   string
	Voice    string
	Language string
	Chars    int
	FileName string
	Size     int64
	Latency  time.Duration
	Err      error
}

// Recorder persists synthesis attempts, e.g. for usage reporting.
type Recorder interface {
	RecordSynthesis(ctx context.Context, rec Record) error
}

// Service dispatches requests to engines and stores the output.
type Service struct {
	engines  map[string]tts.Engine
	store    *audiofs.Store
	timeout  time.Duration
	recorder Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout sets the per-call backend timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRecorder attaches a Recorder. A nil Recorder is ignored.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(store *audiofs.Store, engines []tts.Engine, opts ...Option) *Service {
	s := &Service{
		engines: make(map[string]tts.Engine, len(engines)),
		store:   store,
		timeout: DefaultTimeout,
	}
	for _, e := range engines {
		s.engines[e.Name()] = e
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize validates req, runs it on the selected engine once and stores
// the audio. On any failure nothing is written.
func (s *Service) Synthesize(ctx context.Context, req Request) (*Result, error) {
	engine, ok := s.engines[req.Engine]
	if !ok || !tts.IsSupported(req.Engine) {
		return nil, &UnsupportedEngineError{Engine: req.Engine}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	name := s.store.NewName(engine.Format().Ext())
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	audio, err := engine.Synthesize(callCtx, req.Text, req.params())
	cancel()
	if err != nil {
		s.record(ctx, req, Record{Latency: time.Since(start), Err: err})
		slog.Error("tts generation failed", "engine", req.Engine, "error", err)
		return nil, &SynthesisError{Engine: req.Engine, Err: err}
	}

	size, err := s.store.Write(name, audio.Data)
	if err != nil {
		s.record(ctx, req, Record{Latency: time.Since(start), Err: err})
		slog.Error("store audio failed", "engine", req.Engine, "file", name, "error", err)
		return nil, &SynthesisError{Engine: req.Engine, Err: err}
	}

	voice := req.Voice
	if voice == "" {
		voice = audio.Voice
	}

	res := &Result{
		FileName:  name,
		Size:      size,
		CreatedAt: time.Now(),
		Engine:    req.Engine,
		Voice:     voice,
		Format:    audio.Format,
	}
	if d, err := tts.Duration(audio); err == nil {
		res.Duration = d
	} else {
		slog.Debug("audio duration unknown", "file", name, "error", err)
	}

	latency := time.Since(start)
	s.record(ctx, req, Record{FileName: name, Size: size, Latency: latency, Voice: voice})
	slog.Info("synthesized speech",
		"engine", req.Engine,
		"voice", voice,
		"chars", len([]rune(req.Text)),
		"file", name,
		"size", humanize.Bytes(uint64(size)),
		"latency", latency.Round(time.Millisecond).String(),
	)
	return res, nil
}

func (s *Service) record(ctx context.Context, req Request, rec Record) {
	if s.recorder == nil {
		return
	}
	rec.Engine = req.Engine
	rec.Language = req.Language
	rec.Chars = len([]rune(req.Text))
	if rec.Voice == "" {
		rec.Voice = req.Voice
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.recorder.RecordSynthesis(rctx, rec); err != nil {
		slog.Warn("record synthesis failed", "engine", rec.Engine, "error", err)
	}
}
