package tts

import (
	"context"
	"fmt"
)

// Engine names are part of the public API and match what clients send in
// the "engine" field.
const (
	EngineCloud   = "gtts"
	EngineOffline = "pyttsx3"
	EngineEdge    = "edge-tts"
)

// Names lists every supported engine in catalog order.
var Names = []string{EngineEdge, EngineOffline, EngineCloud}

// IsSupported reports whether name is one of the enumerated engines.
func IsSupported(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// Format is the container format an engine produces.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatWAV {
		return "audio/wav"
	}
	return "audio/mpeg"
}

// Params is the engine-neutral parameter set of a synthesis request.
// Values are expected to be validated before they reach an engine.
type Params struct {
	Language string
	Voice    string
	Speed    float64
	Pitch    float64
	Volume   float64
}

// Audio holds the bytes returned by a backend.
type Audio struct {
	Data   []byte
	Format Format
	Voice  string // voice the backend actually used, if known
}

// Voice describes a speaker persona offered by an engine.
type Voice struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Locale     string `json:"locale,omitempty"`
	Gender     string `json:"gender,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

// Engine is the interface for text-to-speech backends.
type Engine interface {
	Name() string
	Format() Format
	Synthesize(ctx context.Context, text string, p Params) (*Audio, error)
	ListVoices(ctx context.Context) ([]Voice, error)
}

// BackendError reports a failure inside a backend: network errors, empty
// responses, unknown voices or unsupported parameters.
type BackendError struct {
	Engine string
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Engine, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func backendErr(engine string, format string, args ...any) error {
	return &BackendError{Engine: engine, Err: fmt.Errorf(format, args...)}
}
