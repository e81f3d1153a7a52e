package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/speechgate/internal/models"
	"github.com/nikhilbhutani/speechgate/internal/speech"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Service stores synthesis attempts in Postgres. It implements
// speech.Recorder.
type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// NewLog converts a recorder event into a row.
func NewLog(rec speech.Record) models.SynthesisLog {
	l := models.SynthesisLog{
		ID:        uuid.New(),
		Engine:    rec.Engine,
		Voice:     rec.Voice,
		Language:  rec.Language,
		Chars:     rec.Chars,
		FileName:  rec.FileName,
		FileSize:  rec.Size,
		LatencyMs: rec.Latency.Milliseconds(),
		Status:    StatusSuccess,
		CreatedAt: time.Now().UTC(),
	}
	if rec.Err != nil {
		l.Status = StatusFailed
		l.Error = rec.Err.Error()
	}
	return l
}

func (s *Service) RecordSynthesis(ctx context.Context, rec speech.Record) error {
	l := NewLog(rec)
	_, err := s.db.Exec(ctx,
		`INSERT INTO synthesis_log (id, engine, voice, language, chars, file_name, file_size, latency_ms, status, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.Engine, l.Voice, l.Language, l.Chars, l.FileName, l.FileSize, l.LatencyMs, l.Status, l.Error, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert synthesis log: %w", err)
	}
	return nil
}

type UsageSummary struct {
	Engine       string  `json:"engine"`
	TotalCalls   int64   `json:"total_calls"`
	FailedCalls  int64   `json:"failed_calls"`
	TotalChars   int64   `json:"total_chars"`
	TotalBytes   int64   `json:"total_bytes"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// GetUsageSummary aggregates the log per engine, optionally bounded in time.
func (s *Service) GetUsageSummary(ctx context.Context, startDate, endDate *time.Time) ([]UsageSummary, error) {
	query := `SELECT engine, COUNT(*) AS total_calls,
			         COUNT(*) FILTER (WHERE status = 'failed') AS failed_calls,
			         COALESCE(SUM(chars), 0) AS total_chars,
			         COALESCE(SUM(file_size), 0) AS total_bytes,
			         COALESCE(AVG(latency_ms), 0)::float8 AS avg_latency_ms
			  FROM synthesis_log WHERE TRUE`
	var args []interface{}
	argIdx := 1

	if startDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *startDate)
		argIdx++
	}
	if endDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *endDate)
		argIdx++
	}

	query += " GROUP BY engine ORDER BY total_calls DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage summary: %w", err)
	}
	defer rows.Close()

	summaries := []UsageSummary{}
	for rows.Next() {
		var us UsageSummary
		if err := rows.Scan(&us.Engine, &us.TotalCalls, &us.FailedCalls, &us.TotalChars, &us.TotalBytes, &us.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		summaries = append(summaries, us)
	}
	return summaries, rows.Err()
}
