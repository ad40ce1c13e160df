package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
	"github.com/cognicore/seqlearn/pkg/seqlearn/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, internalerr.ErrStoreUnavailable)
	}
	// Parallel participants share one connection so writes never hit SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %v: %w", err, internalerr.ErrStoreUnavailable)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	data_dir TEXT,
	models TEXT,
	chunk_length INTEGER,
	participants INTEGER
);

CREATE TABLE IF NOT EXISTS scores (
	run_id TEXT NOT NULL,
	participant TEXT NOT NULL,
	model TEXT NOT NULL,
	parameters INTEGER NOT NULL,
	steps INTEGER NOT NULL,
	log_likelihood REAL,
	bic REAL,
	mean_cost REAL,
	final_posterior REAL,
	PRIMARY KEY(run_id, participant, model),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// CreateRun inserts a new run
func (s *sqliteStore) CreateRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("run without id: %w", internalerr.ErrInvalidInput)
	}
	models, err := json.Marshal(r.Models)
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO runs (id, started_at, data_dir, models, chunk_length, participants)
VALUES (?, ?, ?, ?, ?, ?);
`
	_, err = s.db.ExecContext(ctx, stmt,
		r.ID,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.DataDir,
		string(models),
		r.ChunkLength,
		r.Participants,
	)
	return err
}

// GetRun returns a run by ID
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, started_at, data_dir, models, chunk_length, participants
FROM runs WHERE id = ?`, id)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return r, err
}

// DeleteRun removes a run; scores go with it via ON DELETE CASCADE
func (s *sqliteStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

// ListRuns returns runs newest first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, data_dir, models, chunk_length, participants
FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SaveScores upserts scores for a run in one transaction
func (s *sqliteStore) SaveScores(ctx context.Context, runID string, scores []store.Score) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
	}

	const stmt = `
INSERT INTO scores (run_id, participant, model, parameters, steps, log_likelihood, bic, mean_cost, final_posterior)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, participant, model) DO UPDATE SET
	parameters=excluded.parameters,
	steps=excluded.steps,
	log_likelihood=excluded.log_likelihood,
	bic=excluded.bic,
	mean_cost=excluded.mean_cost,
	final_posterior=excluded.final_posterior;
`
	for _, sc := range scores {
		if _, err := tx.ExecContext(ctx, stmt,
			runID,
			sc.Participant,
			sc.Model,
			sc.Parameters,
			sc.Steps,
			sc.LogLikelihood,
			sc.BIC,
			sc.MeanCost,
			sc.FinalPosterior,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ScoresForRun returns scores ordered by participant then model
func (s *sqliteStore) ScoresForRun(ctx context.Context, runID string) ([]store.Score, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT participant, model, parameters, steps, log_likelihood, bic, mean_cost, final_posterior
FROM scores WHERE run_id = ?
ORDER BY participant, model`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []store.Score
	for rows.Next() {
		var sc store.Score
		if err := rows.Scan(
			&sc.Participant,
			&sc.Model,
			&sc.Parameters,
			&sc.Steps,
			&sc.LogLikelihood,
			&sc.BIC,
			&sc.MeanCost,
			&sc.FinalPosterior,
		); err != nil {
			return nil, err
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (store.Run, error) {
	var (
		r         store.Run
		startedAt string
		models    string
	)
	if err := row.Scan(&r.ID, &startedAt, &r.DataDir, &models, &r.ChunkLength, &r.Participants); err != nil {
		return store.Run{}, err
	}

	ts, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return store.Run{}, fmt.Errorf("run %s started_at: %w", r.ID, err)
	}
	r.StartedAt = ts

	if models != "" {
		if err := json.Unmarshal([]byte(models), &r.Models); err != nil {
			return store.Run{}, fmt.Errorf("run %s models: %w", r.ID, err)
		}
	}
	return r, nil
}
