package models

import (
	"time"

	"github.com/google/uuid"
)

type SynthesisLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Engine    string    `json:"engine" db:"engine"`
	Voice     string    `json:"voice,omitempty" db:"voice"`
	Language  string    `json:"language,omitempty" db:"language"`
	Chars     int       `json:"chars" db:"chars"`
	FileName  string    `json:"file_name,omitempty" db:"file_name"`
	FileSize  int64     `json:"file_size" db:"file_size"`
	LatencyMs int64     `json:"latency_ms" db:"latency_ms"`
	Status    string    `json:"status" db:"status"`
	Error     string    `json:"error,omitempty" db:"error"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
