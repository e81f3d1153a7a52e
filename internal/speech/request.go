package speech

import (
	"strings"
	"unicode/utf8"

	"github.com/nikhilbhutani/speechgate/internal/tts"
)

const (
	// MaxTextLength is the longest accepted text, in characters.
	MaxTextLength = 5000
	// PreviewLength is how many characters of the text are echoed back.
	PreviewLength = 50

	DefaultEngine   = tts.EngineCloud
	DefaultLanguage = "en"
)

// Bounds for the multipliers of a Request.
const (
	MinSpeed  = 0.5
	MaxSpeed  = 2.0
	MinPitch  = 0.5
	MaxPitch  = 2.0
	MinVolume = 0.0
	MaxVolume = 2.0
)

// Request is one synthesis call.
type Request struct {
	Text     string
	Engine   string
	Language string
	Voice    string
	Speed    float64
	Pitch    float64
	Volume   float64
}

// NewRequest returns a Request for text with every other field at its
// default.
func NewRequest(text string) Request {
	return Request{
		Text:     text,
		Engine:   DefaultEngine,
		Language: DefaultLanguage,
		Speed:    1,
		Pitch:    1,
		Volume:   1,
	}
}

// Validate checks text length and parameter ranges. The engine is checked
// separately by the service.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return &ValidationError{Field: "text", Message: "text must not be empty"}
	}
	if utf8.RuneCountInString(r.Text) > MaxTextLength {
		return &ValidationError{Field: "text", Message: "text length must be less than 5000 characters"}
	}
	if r.Speed < MinSpeed || r.Speed > MaxSpeed {
		return rangeError("speed", MinSpeed, MaxSpeed)
	}
	if r.Pitch < MinPitch || r.Pitch > MaxPitch {
		return rangeError("pitch", MinPitch, MaxPitch)
	}
	if r.Volume < MinVolume || r.Volume > MaxVolume {
		return rangeError("volume", MinVolume, MaxVolume)
	}
	return nil
}

func (r Request) params() tts.Params {
	return tts.Params{
		Language: r.Language,
		Voice:    r.Voice,
		Speed:    r.Speed,
		Pitch:    r.Pitch,
		Volume:   r.Volume,
	}
}

// Preview shortens text for echoing back to the client.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewLength {
		return text
	}
	return string([]rune(text)[:PreviewLength]) + "..."
}
