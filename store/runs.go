package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one pipeline invocation.
type Run struct {
	ID             string    `json:"id"`
	Role           string    `json:"role"`
	MarketState    string    `json:"market_state"`
	OutputDir      string    `json:"output_dir"`
	Generator      string    `json:"generator"`
	UseEmotion     bool      `json:"use_emotion"`
	SentimentLabel string    `json:"sentiment_label,omitempty"`
	SentimentScore *float64  `json:"sentiment_score,omitempty"`
	RiskBefore     *float64  `json:"risk_pref_before,omitempty"`
	RiskAfter      *float64  `json:"risk_pref_after,omitempty"`
	NProcs         int       `json:"n_procs"`
	Status         string    `json:"status"`
	FailedStep     string    `json:"failed_step,omitempty"`
	ExitCode       *int      `json:"exit_code,omitempty"`
	Error          string    `json:"error,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// RecordRun inserts r, assigning an id when it has none.
func (s *Store) RecordRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = s.now()
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, role, market_state, output_dir, generator, use_emotion,
	sentiment_label, sentiment_score, risk_before, risk_after, n_procs,
	status, failed_step, exit_code, error, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Role, r.MarketState, r.OutputDir, r.Generator, r.UseEmotion,
		nullString(r.SentimentLabel), nullFloat(r.SentimentScore), nullFloat(r.RiskBefore), nullFloat(r.RiskAfter), r.NProcs,
		r.Status, nullString(r.FailedStep), nullInt(r.ExitCode), nullString(r.Error),
		r.StartedAt.UTC().Format(timeLayout), r.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT id, role, market_state, output_dir, generator, use_emotion,
	sentiment_label, sentiment_score, risk_before, risk_after, n_procs,
	status, failed_step, exit_code, error, started_at, finished_at
FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                      Run
			label, failed, errText sql.NullString
			score, before, after   sql.NullFloat64
			exitCode               sql.NullInt64
			started, finished      string
		)
		if err := rows.Scan(&r.ID, &r.Role, &r.MarketState, &r.OutputDir, &r.Generator, &r.UseEmotion,
			&label, &score, &before, &after, &r.NProcs,
			&r.Status, &failed, &exitCode, &errText, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.SentimentLabel = label.String
		r.FailedStep = failed.String
		r.Error = errText.String
		r.SentimentScore = floatPtr(score)
		r.RiskBefore = floatPtr(before)
		r.RiskAfter = floatPtr(after)
		if exitCode.Valid {
			v := int(exitCode.Int64)
			r.ExitCode = &v
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.FinishedAt, _ = time.Parse(timeLayout, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
