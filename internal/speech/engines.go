package speech

import (
	"golang.org/x/sync/semaphore"

	"github.com/nikhilbhutani/speechgate/internal/config"
	"github.com/nikhilbhutani/speechgate/internal/tts"
)

// NewEngines builds the three engines in catalog order. The two network
// engines share one in-flight cap; the offline engine serializes itself.
func NewEngines(cfg config.TTSConfig) []tts.Engine {
	edge := tts.NewEdgeEngine(tts.EdgeConfig{
		DefaultVoice: cfg.EdgeVoice,
		VoicesURL:    cfg.EdgeVoicesURL,
		Timeout:      cfg.BackendTimeout,
	})
	offline := tts.NewOfflineEngine(tts.OfflineConfig{BinPath: cfg.EspeakBin})
	cloud := tts.NewCloudEngine(tts.CloudConfig{
		BaseURL: cfg.CloudBaseURL,
		Timeout: cfg.BackendTimeout,
	})

	if cfg.MaxInflight <= 0 {
		return []tts.Engine{edge, offline, cloud}
	}
	sem := semaphore.NewWeighted(cfg.MaxInflight)
	return []tts.Engine{
		tts.LimitShared(edge, sem),
		offline,
		tts.LimitShared(cloud, sem),
	}
}
