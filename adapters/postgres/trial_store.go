// Package postgres persists tuning runs and trial results. It implements
// ports.TrialStore over a sqlx connection.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tablefit/domain/core"
	"tablefit/domain/tune"
	"tablefit/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS tune_runs (
	id         TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	grid_size  INTEGER NOT NULL,
	fold_count INTEGER NOT NULL,
	metrics    TEXT[] NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tune_trials (
	id       TEXT PRIMARY KEY,
	run_id   TEXT NOT NULL REFERENCES tune_runs(id) ON DELETE CASCADE,
	entry    JSONB NOT NULL,
	metrics  JSONB NOT NULL,
	failed   BOOLEAN NOT NULL DEFAULT FALSE,
	errors   JSONB NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_tune_trials_run ON tune_trials(run_id);
`

// Connect opens a pooled connection and ensures the trial tables exist
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure trial schema: %w", err)
	}
	return db, nil
}

// trialStore implements the TrialStore interface
type trialStore struct {
	db *sqlx.DB
}

// NewTrialStore creates a trial store over an open connection
func NewTrialStore(db *sqlx.DB) ports.TrialStore {
	return &trialStore{db: db}
}

// SaveRun upserts the run record so state transitions overwrite the
// earlier row
func (s *trialStore) SaveRun(ctx context.Context, run tune.RunRecord) error {
	query := `INSERT INTO tune_runs (id, state, grid_size, fold_count, metrics)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			grid_size = EXCLUDED.grid_size,
			fold_count = EXCLUDED.fold_count,
			metrics = EXCLUDED.metrics`

	_, err := s.db.ExecContext(ctx, query,
		string(run.ID), string(run.State), run.GridSize, run.FoldCount, pq.Array(run.Metrics),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// SaveTrials writes all trials of a run in one transaction
func (s *trialStore) SaveTrials(ctx context.Context, runID string, trials []tune.TrialResult) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO tune_trials (id, run_id, entry, metrics, failed, errors)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			entry = EXCLUDED.entry,
			metrics = EXCLUDED.metrics,
			failed = EXCLUDED.failed,
			errors = EXCLUDED.errors`

	for _, trial := range trials {
		entryJSON, metricsJSON, errorsJSON, err := marshalTrial(trial)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query,
			string(trial.ID), runID, entryJSON, metricsJSON, trial.Failed, errorsJSON,
		); err != nil {
			return fmt.Errorf("failed to save trial %s: %w", trial.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trials: %w", err)
	}
	return nil
}

// LoadTrials reads back the trials of a run, entry parameter order is not
// preserved (JSONB)
func (s *trialStore) LoadTrials(ctx context.Context, runID string) ([]tune.TrialResult, error) {
	query := `SELECT id, entry, metrics, failed, errors
		FROM tune_trials WHERE run_id = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trials for run %s: %w", runID, err)
	}
	defer rows.Close()

	var trials []tune.TrialResult
	for rows.Next() {
		var id string
		var entryJSON, metricsJSON, errorsJSON []byte
		var failed bool
		if err := rows.Scan(&id, &entryJSON, &metricsJSON, &failed, &errorsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan trial: %w", err)
		}
		trial, err := unmarshalTrial(id, entryJSON, metricsJSON, failed, errorsJSON)
		if err != nil {
			return nil, err
		}
		trials = append(trials, trial)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trials: %w", err)
	}
	return trials, nil
}

// RunExists reports whether a run record has been persisted
func (s *trialStore) RunExists(ctx context.Context, runID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tune_runs WHERE id = $1)`, runID,
	).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check run %s: %w", runID, err)
	}
	return exists, nil
}

func marshalTrial(trial tune.TrialResult) (entry, metrics, errs []byte, err error) {
	entry, err = json.Marshal(trial.Entry)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal entry for trial %s: %w", trial.ID, err)
	}
	metrics, err = json.Marshal(trial.Metrics)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal metrics for trial %s: %w", trial.ID, err)
	}
	cellErrors := trial.Errors
	if cellErrors == nil {
		cellErrors = []tune.CellError{}
	}
	errs, err = json.Marshal(cellErrors)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal errors for trial %s: %w", trial.ID, err)
	}
	return entry, metrics, errs, nil
}

func unmarshalTrial(id string, entryJSON, metricsJSON []byte, failed bool, errorsJSON []byte) (tune.TrialResult, error) {
	trial := tune.TrialResult{ID: core.TrialID(id), Failed: failed}
	if err := json.Unmarshal(entryJSON, &trial.Entry); err != nil {
		return tune.TrialResult{}, fmt.Errorf("failed to unmarshal entry for trial %s: %w", id, err)
	}
	if err := json.Unmarshal(metricsJSON, &trial.Metrics); err != nil {
		return tune.TrialResult{}, fmt.Errorf("failed to unmarshal metrics for trial %s: %w", id, err)
	}
	if err := json.Unmarshal(errorsJSON, &trial.Errors); err != nil {
		return tune.TrialResult{}, fmt.Errorf("failed to unmarshal errors for trial %s: %w", id, err)
	}
	return trial, nil
}
