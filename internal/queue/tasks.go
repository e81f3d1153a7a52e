package queue

const (
	TypeAudioSweep = "audio:sweep"
)

// QueueMaintenance carries housekeeping tasks such as audio sweeps.
const QueueMaintenance = "maintenance"

type AudioSweepPayload struct {
	Dir           string `json:"dir"`
	MaxAgeSeconds int64  `json:"max_age_seconds"`
}
