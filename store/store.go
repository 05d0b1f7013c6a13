package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"dss/internal/fsutil"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	role            TEXT NOT NULL,
	market_state    TEXT NOT NULL,
	output_dir      TEXT NOT NULL,
	generator       TEXT NOT NULL,
	use_emotion     INTEGER NOT NULL DEFAULT 0,
	sentiment_label TEXT,
	sentiment_score REAL,
	risk_before     REAL,
	risk_after      REAL,
	n_procs         INTEGER NOT NULL,
	status          TEXT NOT NULL,
	failed_step     TEXT,
	exit_code       INTEGER,
	error           TEXT,
	started_at      TEXT NOT NULL,
	finished_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

CREATE TABLE IF NOT EXISTS evaluations (
	dataset_id        TEXT NOT NULL,
	strategy_id       TEXT NOT NULL,
	strategy_type     TEXT NOT NULL,
	risk_score        REAL,
	sentiment_score   REAL,
	cumulative_return REAL,
	sharpe_ratio      REAL,
	max_drawdown      REAL,
	ttf_score         TEXT,
	info_quality      REAL,
	usability         REAL,
	trust_score       TEXT,
	created_at        TEXT NOT NULL,
	PRIMARY KEY (dataset_id, strategy_id)
);
`

// Store is the SQLite run and evaluation history.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates the database file and schema when missing.
func Open(path string) (*Store, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	if err := fsutil.EnsureParentDir(p); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", p+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, path: p, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string { return s.path }

// NewID returns a fresh run or dataset identifier.
func NewID() string {
	return uuid.NewString()
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
