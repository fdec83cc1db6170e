package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SpoolSubmitter writes each request as a JSON file into a spool
// directory for an external transport worker to pick up.
//
// This is the default backend when no transport client is wired in: the
// core stays decoupled from HTTP details while the tool remains usable
// end to end. Each submission is synchronous (the spool write is the
// acceptance), so the driver marks jobs succeeded on write.
type SpoolSubmitter struct {
	dir string
}

// NewSpoolSubmitter creates the spool directory and returns a submitter
// writing into it.
func NewSpoolSubmitter(dir string) (*SpoolSubmitter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool directory: %w", err)
	}
	return &SpoolSubmitter{dir: dir}, nil
}

// Dir returns the spool directory path.
func (s *SpoolSubmitter) Dir() string { return s.dir }

// spoolRequest is the persisted request shape.
type spoolRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Seed           int64   `json:"seed"`
	Filename       string  `json:"filename"`
	Sampler        string  `json:"sampler,omitempty"`
	Steps          int     `json:"steps,omitempty"`
	CFGScale       float64 `json:"cfg_scale,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
}

// Submit implements Submitter. The handle is the spool file path.
func (s *SpoolSubmitter) Submit(_ context.Context, req Request) (Handle, error) {
	data, err := json.MarshalIndent(spoolRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Seed:           req.Seed,
		Filename:       req.Filename,
		Sampler:        req.Parameters.Sampler,
		Steps:          req.Parameters.Steps,
		CFGScale:       req.Parameters.CFGScale,
		Width:          req.Parameters.Width,
		Height:         req.Parameters.Height,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	path := filepath.Join(s.dir, req.Filename+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("spool request: %w", err)
	}
	return Handle(path), nil
}
