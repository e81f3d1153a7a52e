package speech

import (
	"fmt"
	"strings"

	"github.com/nikhilbhutani/speechgate/internal/tts"
)

// ValidationError reports a malformed or out-of-range request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func rangeError(field string, lo, hi float64) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%s must be between %g and %g", field, lo, hi),
	}
}

// UnsupportedEngineError is returned for an engine name outside the
// enumerated set.
type UnsupportedEngineError struct {
	Engine string
}

func (e *UnsupportedEngineError) Error() string {
	return fmt.Sprintf("unsupported engine %q (supported: %s)", e.Engine, strings.Join(tts.Names, ", "))
}

// SynthesisError wraps any failure after validation. No file is left
// behind when it is returned.
type SynthesisError struct {
	Engine string
	Err    error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("TTS generation failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
