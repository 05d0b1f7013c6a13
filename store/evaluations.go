package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"dss/dataset"
	"dss/strategy"
)

// DatasetInfo summarizes one stored evaluation table.
type DatasetInfo struct {
	ID         string    `json:"id"`
	Strategies int       `json:"strategies"`
	CreatedAt  time.Time `json:"created_at"`
}

// SaveEvaluations stores rows under datasetID in one transaction. A NaN metric
// is stored as NULL and read back as NaN.
func (s *Store) SaveEvaluations(ctx context.Context, datasetID string, rows []dataset.Evaluation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO evaluations (dataset_id, strategy_id, strategy_type, risk_score, sentiment_score,
	cumulative_return, sharpe_ratio, max_drawdown, ttf_score, info_quality, usability, trust_score, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	created := s.now().UTC().Format(timeLayout)
	for _, e := range rows {
		if _, err := stmt.ExecContext(ctx, datasetID, e.StrategyID, string(e.StrategyType),
			num(e.RiskScore), num(e.SentimentScore), num(e.CumulativeReturn), num(e.SharpeRatio), num(e.MaxDrawdown),
			e.TTFScore, num(e.InfoQuality), num(e.Usability), e.TrustScore, created); err != nil {
			return fmt.Errorf("insert evaluation %s: %w", e.StrategyID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) ListEvaluations(ctx context.Context, datasetID string) ([]dataset.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT strategy_id, strategy_type, risk_score, sentiment_score, cumulative_return, sharpe_ratio,
	max_drawdown, ttf_score, info_quality, usability, trust_score
FROM evaluations WHERE dataset_id = ? ORDER BY rowid`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	var out []dataset.Evaluation
	for rows.Next() {
		var (
			e                                  dataset.Evaluation
			tier                               string
			risk, sent, cr, sr, mdd, info, use sql.NullFloat64
		)
		if err := rows.Scan(&e.StrategyID, &tier, &risk, &sent, &cr, &sr, &mdd, &e.TTFScore, &info, &use, &e.TrustScore); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		e.StrategyType = strategy.Tier(tier)
		e.RiskScore, e.SentimentScore = orNaN(risk), orNaN(sent)
		e.CumulativeReturn, e.SharpeRatio, e.MaxDrawdown = orNaN(cr), orNaN(sr), orNaN(mdd)
		e.InfoQuality, e.Usability = orNaN(info), orNaN(use)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListDatasets returns stored evaluation tables, newest first.
func (s *Store) ListDatasets(ctx context.Context) ([]DatasetInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT dataset_id, COUNT(*), MIN(created_at) FROM evaluations
GROUP BY dataset_id ORDER BY MIN(created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var out []DatasetInfo
	for rows.Next() {
		var d DatasetInfo
		var created string
		if err := rows.Scan(&d.ID, &d.Strategies, &created); err != nil {
			return nil, err
		}
		d.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, d)
	}
	return out, rows.Err()
}

func num(v float64) sql.NullFloat64 {
	return nullFloat(&v)
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
