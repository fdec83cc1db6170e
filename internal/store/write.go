package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/promptloom/promptloom/internal/manifest"
	"github.com/promptloom/promptloom/internal/prompt"
)

// RecordRun persists one finalized run: the run row plus all job rows,
// atomically. Uses ON CONFLICT DO NOTHING on every insert so recording
// the same run twice (crash-and-retry) is a no-op.
func (s *Store) RecordRun(ctx context.Context, m manifest.Manifest, stats prompt.Stats) error {
	configJSON, err := json.Marshal(m.Config)
	if err != nil {
		return fmt.Errorf("record run: marshal config: %w", err)
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("record run: marshal stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, session_name, template, created_at, status, config, stats)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		m.RunID,
		m.Config.SessionName,
		m.Template,
		m.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(m.Status),
		string(configJSON),
		string(statsJSON),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	for _, job := range m.Jobs {
		valsJSON, err := json.Marshal(job.Values)
		if err != nil {
			return fmt.Errorf("record run: marshal job %d values: %w", job.Index, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO jobs (run_id, idx, seed, filename, vals, status, error)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, idx) DO NOTHING
		`,
			m.RunID,
			job.Index,
			job.Seed,
			job.Filename,
			string(valsJSON),
			job.Status,
			job.Error,
		)
		if err != nil {
			return fmt.Errorf("record run: job %d: %w", job.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: commit: %w", err)
	}
	return nil
}
