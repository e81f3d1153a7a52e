package tts

import (
	"fmt"
	"math"
)

// baseOfflineRate is the offline synthesizer's default speaking rate in
// words per minute.
const baseOfflineRate = 200

// slowThreshold is the highest speed that still selects the cloud
// engine's slow mode.
const slowThreshold = 0.75

// OfflineParams are the native arguments of the offline synthesizer.
type OfflineParams struct {
	Rate   int     // words per minute
	Volume float64 // 1.0 is the synthesizer default
	Voice  string
}

// EdgeParams are the native arguments of the edge service.
type EdgeParams struct {
	Rate   string // signed percentage, e.g. "+25%"
	Volume string // signed percentage
	Voice  string
}

// CloudParams are the native arguments of the cloud service.
type CloudParams struct {
	Language string
	Slow     bool
}

// MapOffline folds pitch into the speaking rate since the offline
// synthesizer is driven by rate alone.
func MapOffline(p Params) OfflineParams {
	return OfflineParams{
		Rate:   int(math.Round(baseOfflineRate * p.Speed * p.Pitch)),
		Volume: p.Volume,
		Voice:  p.Voice,
	}
}

// MapEdge converts multipliers into the signed percentages the edge
// service expects. Pitch is dropped.
func MapEdge(p Params) EdgeParams {
	return EdgeParams{
		Rate:   signedPercent(p.Speed),
		Volume: signedPercent(p.Volume),
		Voice:  p.Voice,
	}
}

// MapCloud reduces speed to the cloud service's slow/normal switch.
// Pitch and volume are dropped.
func MapCloud(p Params) CloudParams {
	return CloudParams{
		Language: p.Language,
		Slow:     p.Speed <= slowThreshold,
	}
}

func signedPercent(multiplier float64) string {
	return fmt.Sprintf("%+d%%", int(math.Round((multiplier-1)*100)))
}
