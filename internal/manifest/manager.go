package manifest

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Sink persists manifest snapshots. The session-folder JSON writer is
// the production implementation; tests inject an in-memory sink.
type Sink interface {
	// WriteManifest persists the given snapshot, replacing any previous
	// one for the same run.
	WriteManifest(m *Manifest) error
}

// Manager owns one run's manifest and serializes every mutation.
//
// Lifecycle: ongoing -> completed | aborted. Both terminal states are
// final; the manager enforces exactly one terminal transition per run.
// Job updates arriving after a terminal transition are logged and
// dropped, never applied.
//
// All methods are safe for concurrent use; job-record updates from
// concurrent workers are serialized here before being folded into the
// manifest.
type Manager struct {
	mu       sync.Mutex
	manifest *Manifest
	sink     Sink
	logger   *slog.Logger
}

// NewManager creates the manifest in its sole initial state (ongoing)
// from a config snapshot and the planned job list, and persists the
// first snapshot.
func NewManager(runID, templateName string, cfg ConfigSnapshot, jobs []JobSummary, sink Sink, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		manifest: &Manifest{
			Version:   Version,
			RunID:     runID,
			Template:  templateName,
			CreatedAt: time.Now().UTC(),
			Status:    StatusOngoing,
			Config:    cfg,
			Jobs:      jobs,
		},
		sink:   sink,
		logger: logger,
	}
	if err := m.persistLocked(); err != nil {
		return nil, fmt.Errorf("write initial manifest: %w", err)
	}
	return m, nil
}

// Status returns the current lifecycle state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.manifest.Status
}

// Snapshot returns a deep copy of the current manifest.
func (m *Manager) Snapshot() Manifest {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := *m.manifest
	out.Jobs = make([]JobSummary, len(m.manifest.Jobs))
	copy(out.Jobs, m.manifest.Jobs)
	return out
}

// UpdateJob folds one job outcome into the manifest. Updates against a
// terminal manifest are logged and dropped: the run is already decided
// and the persisted record must not change.
func (m *Manager) UpdateJob(index int, status, errDetail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.manifest.Status.Terminal() {
		m.logger.Warn("dropping job update after terminal transition",
			"run_id", m.manifest.RunID,
			"job_index", index,
			"status", status,
			"manifest_status", string(m.manifest.Status))
		return nil
	}
	if index < 0 || index >= len(m.manifest.Jobs) {
		return fmt.Errorf("job index %d out of range (jobs=%d)", index, len(m.manifest.Jobs))
	}

	m.manifest.Jobs[index].Status = status
	m.manifest.Jobs[index].Error = errDetail
	return m.persistLocked()
}

// Complete transitions ongoing -> completed.
func (m *Manager) Complete() error {
	return m.transition(StatusCompleted)
}

// Abort transitions ongoing -> aborted.
func (m *Manager) Abort() error {
	return m.transition(StatusAborted)
}

// transition performs the terminal transition exactly once. A second
// terminal request is an error for a conflicting state and a no-op for
// a repeat of the same state (an orchestrator's deferred abort sweep may
// race its own explicit abort).
func (m *Manager) transition(to Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.manifest.Status == to {
		return nil
	}
	if m.manifest.Status.Terminal() {
		return fmt.Errorf("manifest already %s, cannot transition to %s", m.manifest.Status, to)
	}

	m.manifest.Status = to
	return m.persistLocked()
}

// persistLocked writes the current snapshot through the sink. Callers
// hold m.mu.
func (m *Manager) persistLocked() error {
	if m.sink == nil {
		return nil
	}
	return m.sink.WriteManifest(m.manifest)
}
