package speech

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nikhilbhutani/speechgate/internal/tts"
)

// EngineVoices is one engine's entry in a voice listing.
type EngineVoices struct {
	Engine string      `json:"engine"`
	Voices []tts.Voice `json:"voices"`
	Error  string      `json:"error,omitempty"`
}

// Catalog aggregates the voices of every engine.
type Catalog struct {
	engines []tts.Engine
}

// NewCatalog keeps engines in the given order for listings.
func NewCatalog(engines []tts.Engine) *Catalog {
	return &Catalog{engines: engines}
}

// List queries each engine, or only filter when it is non-empty. Engines
// are queried concurrently; one engine failing does not fail the listing,
// its entry carries the error instead.
func (c *Catalog) List(ctx context.Context, filter string) ([]EngineVoices, error) {
	if filter != "" && !tts.IsSupported(filter) {
		return nil, &UnsupportedEngineError{Engine: filter}
	}

	var selected []tts.Engine
	for _, e := range c.engines {
		if filter == "" || e.Name() == filter {
			selected = append(selected, e)
		}
	}

	out := make([]EngineVoices, len(selected))
	var wg sync.WaitGroup
	for i, e := range selected {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := EngineVoices{Engine: e.Name(), Voices: []tts.Voice{}}
			voices, err := e.ListVoices(ctx)
			if err != nil {
				slog.Error("failed to get voices", "engine", e.Name(), "error", err)
				entry.Error = err.Error()
			} else if voices != nil {
				entry.Voices = voices
			}
			out[i] = entry
		}()
	}
	wg.Wait()
	return out, nil
}
