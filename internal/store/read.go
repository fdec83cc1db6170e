package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID          string
	SessionName string
	Template    string
	CreatedAt   time.Time
	Status      string
	ConfigJSON  string
	StatsJSON   string
}

// JobRow is one persisted job record.
type JobRow struct {
	RunID    string
	Index    int
	Seed     int64
	Filename string
	Values   map[string]string
	Status   string
	Error    string
}

// ListRuns returns all recorded runs, newest first, with a deterministic
// id tie-break.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_name, template, created_at, status, config, stats
		FROM runs
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	if runs == nil {
		runs = []RunSummary{}
	}
	return runs, nil
}

// GetRun returns one run by ID. sql.ErrNoRows when absent.
func (s *Store) GetRun(ctx context.Context, id string) (RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_name, template, created_at, status, config, stats
		FROM runs
		WHERE id = ?
	`, id)
	if err != nil {
		return RunSummary{}, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return RunSummary{}, fmt.Errorf("iterate run: %w", err)
		}
		return RunSummary{}, sql.ErrNoRows
	}
	return scanRun(rows)
}

// ListJobs returns a run's job records in generation order.
func (s *Store) ListJobs(ctx context.Context, runID string) ([]JobRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, idx, seed, filename, vals, status, error
		FROM jobs
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobRow
	for rows.Next() {
		var (
			j    JobRow
			vals string
		)
		if err := rows.Scan(&j.RunID, &j.Index, &j.Seed, &j.Filename, &vals, &j.Status, &j.Error); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if err := json.Unmarshal([]byte(vals), &j.Values); err != nil {
			return nil, fmt.Errorf("unmarshal job %d values: %w", j.Index, err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}

	if jobs == nil {
		jobs = []JobRow{}
	}
	return jobs, nil
}

func scanRun(rows *sql.Rows) (RunSummary, error) {
	var (
		r       RunSummary
		created string
	)
	if err := rows.Scan(&r.ID, &r.SessionName, &r.Template, &created, &r.Status, &r.ConfigJSON, &r.StatsJSON); err != nil {
		return RunSummary{}, fmt.Errorf("scan run: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return RunSummary{}, fmt.Errorf("parse run created_at %q: %w", created, err)
	}
	r.CreatedAt = t
	return r, nil
}
