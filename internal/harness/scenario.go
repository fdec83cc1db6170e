// Package harness executes end-to-end pipeline scenarios described in
// YAML: a template directory, session overrides, scripted submission
// failures, and expectations on the finished run. Scenarios drive the
// full orchestrator with deterministic collaborators so the same
// scenario always produces the same run.
package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one end-to-end pipeline scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the session
	// name of the run, keeping output paths deterministic.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Template is the template document path, relative to the scenario
	// file location.
	Template string `yaml:"template"`

	// Overrides adjust the session beyond what the template declares.
	Overrides ScenarioOverrides `yaml:"overrides,omitempty"`

	// FailFilenames scripts submission failures for these filenames.
	FailFilenames []string `yaml:"fail_filenames,omitempty"`

	// FailAll scripts every submission to fail.
	FailAll bool `yaml:"fail_all,omitempty"`

	// RandSeed seeds the scenario's random source. Zero means 1.
	RandSeed int64 `yaml:"rand_seed,omitempty"`

	// Expect states the required outcome.
	Expect Expectation `yaml:"expect"`
}

// ScenarioOverrides mirrors the CLI's session overrides in YAML form.
// Pointer fields distinguish "not provided" from zero values.
type ScenarioOverrides struct {
	Mode         string   `yaml:"mode,omitempty"`
	SeedMode     string   `yaml:"seed_mode,omitempty"`
	Seed         *int64   `yaml:"seed,omitempty"`
	MaxImages    *int     `yaml:"max_images,omitempty"`
	Workers      *int     `yaml:"workers,omitempty"`
	FilenameKeys []string `yaml:"filename_keys,omitempty"`
}

// Expectation is the required outcome of a scenario run.
type Expectation struct {
	// Status is the required terminal manifest status.
	Status string `yaml:"status"`

	// Total is the required prompt count. Negative means unchecked.
	Total int `yaml:"total"`

	// Succeeded and Failed are the required job outcome counts.
	Succeeded int `yaml:"succeeded"`
	Failed    int `yaml:"failed"`

	// ErrorContains, when set, requires the run error to contain this
	// substring. Empty requires a nil run error.
	ErrorContains string `yaml:"error_contains,omitempty"`

	// Prompts, when set, is the required prompt text list in
	// generation order.
	Prompts []string `yaml:"prompts,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so typos fail loudly. The template path is resolved
// relative to the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if !filepath.IsAbs(s.Template) && s.Template != "" {
		s.Template = filepath.Join(filepath.Dir(path), s.Template)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Template == "" {
		return fmt.Errorf("template is required")
	}
	if _, err := os.Stat(s.Template); err != nil {
		return fmt.Errorf("template file not found: %s", s.Template)
	}
	switch s.Expect.Status {
	case "completed", "aborted":
	case "":
		return fmt.Errorf("expect.status is required")
	default:
		return fmt.Errorf("expect.status must be completed or aborted, got %q", s.Expect.Status)
	}
	if s.FailAll && len(s.FailFilenames) > 0 {
		return fmt.Errorf("fail_all and fail_filenames are mutually exclusive")
	}
	return nil
}
