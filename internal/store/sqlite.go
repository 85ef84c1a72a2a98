// Package store persists the segmentation result in SQLite so the
// external dashboard can query it. The tables are rebuilt wholesale on
// every save, mirroring the pipeline's no-partial-output contract.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppiankov/segmenta/internal/model"
	_ "modernc.org/sqlite"
)

// Store persists segmentation results in SQLite.
type Store struct {
	sqlDB *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS run (
    generated_at TEXT NOT NULL,
    input_path   TEXT NOT NULL,
    seed         INTEGER NOT NULL,
    chosen_k     INTEGER NOT NULL,
    reference    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS customers (
    customer_id TEXT PRIMARY KEY,
    recency     INTEGER NOT NULL,
    frequency   INTEGER NOT NULL,
    monetary    REAL NOT NULL,
    cluster     INTEGER NOT NULL,
    segment     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS candidate_scores (
    k          INTEGER PRIMARY KEY,
    wss        REAL NOT NULL,
    silhouette REAL NOT NULL,
    non_empty  INTEGER NOT NULL,
    valid      INTEGER NOT NULL,
    note       TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS segment_profiles (
    segment       TEXT PRIMARY KEY,
    cluster       INTEGER NOT NULL,
    customers     INTEGER NOT NULL,
    avg_recency   REAL NOT NULL,
    avg_frequency REAL NOT NULL,
    avg_monetary  REAL NOT NULL,
    total_revenue REAL NOT NULL,
    revenue_share REAL NOT NULL
);
`

// Open opens (or creates) a SQLite result store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveResult replaces the stored segmentation with res, atomically.
func (s *Store) SaveResult(ctx context.Context, res *model.Result) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"run", "customers", "candidate_scores", "segment_profiles"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO run (generated_at, input_path, seed, chosen_k, reference) VALUES (?, ?, ?, ?, ?)`,
		res.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		res.InputPath, res.Seed, res.ChosenK,
		res.Reference.UTC().Format("2006-01-02T15:04:05Z"),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	custStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO customers (customer_id, recency, frequency, monetary, cluster, segment) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare customers: %w", err)
	}
	defer custStmt.Close()
	for _, c := range res.Customers {
		if _, err := custStmt.ExecContext(ctx, c.CustomerID, c.Recency, c.Frequency, c.Monetary, c.Cluster, c.Segment); err != nil {
			return fmt.Errorf("insert customer %s: %w", c.CustomerID, err)
		}
	}

	for _, sc := range res.Scores {
		valid := 0
		if sc.Valid {
			valid = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO candidate_scores (k, wss, silhouette, non_empty, valid, note) VALUES (?, ?, ?, ?, ?, ?)`,
			sc.K, sc.WSS, sc.Silhouette, sc.NonEmpty, valid, sc.Note,
		); err != nil {
			return fmt.Errorf("insert score k=%d: %w", sc.K, err)
		}
	}

	for _, p := range res.Profiles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO segment_profiles (segment, cluster, customers, avg_recency, avg_frequency, avg_monetary, total_revenue, revenue_share)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Segment, p.Cluster, p.Customers, p.AvgRecency, p.AvgFrequency, p.AvgMonetary, p.TotalRevenue, p.RevenueShare,
		); err != nil {
			return fmt.Errorf("insert profile %s: %w", p.Segment, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
