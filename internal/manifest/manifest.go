// Package manifest owns the per-run manifest snapshot and its lifecycle
// state machine.
//
// The manifest's persisted shape is a compatibility contract: field
// names and nesting must stay stable across versions so downstream
// tooling (folder diffing, run browsers) keeps working. Change the
// shape only together with a Version bump.
package manifest

import (
	"encoding/json"
	"time"

	"github.com/promptloom/promptloom/internal/session"
)

// Version tags the persisted manifest shape.
const Version = 1

// Status is the manifest lifecycle state.
type Status string

const (
	// StatusOngoing is the sole initial state.
	StatusOngoing Status = "ongoing"
	// StatusCompleted means every job reached a terminal state with no
	// fatal error. Final.
	StatusCompleted Status = "completed"
	// StatusAborted means an orchestrator-level failure or cancellation
	// ended the run. Final.
	StatusAborted Status = "aborted"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted
}

// JobSummary is the persisted per-image record.
type JobSummary struct {
	Index    int               `json:"index"`
	Seed     int64             `json:"seed"`
	Values   map[string]string `json:"values"`
	Filename string            `json:"filename"`
	Status   string            `json:"status"`
	Error    string            `json:"error,omitempty"`
}

// ConfigSnapshot is the frozen session configuration embedded in the
// manifest. A distinct type from session.Config so the persisted field
// names stay stable even when the in-memory config evolves.
type ConfigSnapshot struct {
	OutputRoot   string   `json:"output_root"`
	SessionName  string   `json:"session_name,omitempty"`
	FilenameKeys []string `json:"filename_keys,omitempty"`
	Mode         string   `json:"mode"`
	SeedMode     string   `json:"seed_mode"`
	Seed         int64    `json:"seed"`
	MaxImages    int      `json:"max_images,omitempty"`
	Workers      int      `json:"workers"`
	Sampler      string   `json:"sampler,omitempty"`
	Steps        int      `json:"steps,omitempty"`
	CFGScale     float64  `json:"cfg_scale,omitempty"`
	Width        int      `json:"width,omitempty"`
	Height       int      `json:"height,omitempty"`
}

// Snapshot converts a session config into its persisted form.
func Snapshot(cfg session.Config) ConfigSnapshot {
	return ConfigSnapshot{
		OutputRoot:   cfg.OutputRoot,
		SessionName:  cfg.SessionName,
		FilenameKeys: cfg.FilenameKeys,
		Mode:         cfg.Mode,
		SeedMode:     cfg.SeedMode,
		Seed:         cfg.Seed,
		MaxImages:    cfg.MaxImages,
		Workers:      cfg.Workers,
		Sampler:      cfg.Parameters.Sampler,
		Steps:        cfg.Parameters.Steps,
		CFGScale:     cfg.Parameters.CFGScale,
		Width:        cfg.Parameters.Width,
		Height:       cfg.Parameters.Height,
	}
}

// Manifest is one run's persisted record.
type Manifest struct {
	Version   int            `json:"version"`
	RunID     string         `json:"run_id"`
	Template  string         `json:"template"`
	CreatedAt time.Time      `json:"created_at"`
	Status    Status         `json:"status"`
	Config    ConfigSnapshot `json:"config"`
	Jobs      []JobSummary   `json:"jobs"`
}

// MarshalIndent renders the manifest as stable, human-diffable JSON.
func (m *Manifest) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
