// Package session builds the immutable per-run configuration from
// template-declared defaults and CLI-sourced overrides.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/promptloom/promptloom/internal/template"
)

// Default limits applied when neither the template nor the CLI sets one.
const (
	// DefaultWorkers bounds concurrent submissions. The bound respects
	// the backend's admission limits, not raw throughput.
	DefaultWorkers = 4

	// DefaultAttemptFactor sizes random mode's duplicate-rejection
	// budget as a multiple of the requested image count.
	DefaultAttemptFactor = 10
)

// Config is one run's frozen configuration. Built once by Build,
// validated once by Validate, never mutated afterwards; every consumer
// receives it by value.
type Config struct {
	// OutputRoot is the directory the session folder is created under.
	OutputRoot string

	// SessionName labels the run. Empty means the CLI derives one from
	// the template name and timestamp.
	SessionName string

	// FilenameKeys lists the placeholders whose chosen keys appear in
	// generated filenames, in the order given.
	FilenameKeys []string

	// Mode is the generation mode: "combinatorial" or "random".
	Mode string

	// SeedMode is "fixed", "progressive" or "random".
	SeedMode string

	// Seed is the base seed for fixed and progressive modes.
	Seed int64

	// BackendRandomSeed makes random seed mode report -1 per image,
	// requesting backend-side randomization instead of drawing locally.
	BackendRandomSeed bool

	// WeightedLoop enables weight-based loop ordering in combinatorial
	// mode.
	WeightedLoop bool

	// MaxImages caps the run. Zero means uncapped for combinatorial
	// mode; random mode requires a positive value.
	MaxImages int

	// AttemptBudget bounds random mode's duplicate-rejection retries.
	// Zero means DefaultAttemptFactor * MaxImages.
	AttemptBudget int

	// Workers bounds concurrent job submissions.
	Workers int

	// Parameters are the per-request backend parameters.
	Parameters template.Parameters
}

// Overrides carries CLI-sourced values. A nil pointer or zero string
// means "not provided"; provided values win over template defaults for
// the same key.
type Overrides struct {
	OutputRoot   string
	SessionName  string
	FilenameKeys []string
	Mode         string
	SeedMode     string
	Seed         *int64
	MaxImages    *int
	Workers      *int
}

// Build merges template-declared generation defaults with CLI overrides
// into one Config. Pure function: neither input is mutated.
//
// Precedence per key: CLI override > template declaration > package
// default. The result still needs Validate before use.
func Build(doc *template.Document, ov Overrides) Config {
	cfg := Config{
		OutputRoot:  ov.OutputRoot,
		SessionName: ov.SessionName,
		Workers:     DefaultWorkers,
	}

	if doc.Generation != nil {
		g := doc.Generation
		cfg.Mode = g.Mode
		cfg.SeedMode = g.SeedMode
		cfg.Seed = g.Seed
		cfg.MaxImages = g.MaxImages
		cfg.WeightedLoop = g.WeightedLoop
		cfg.BackendRandomSeed = g.BackendRandomSeed
		cfg.AttemptBudget = g.AttemptBudget
	}
	if doc.Parameters != nil {
		cfg.Parameters = *doc.Parameters
	}

	if ov.Mode != "" {
		cfg.Mode = ov.Mode
	}
	if ov.SeedMode != "" {
		cfg.SeedMode = ov.SeedMode
	}
	if ov.Seed != nil {
		cfg.Seed = *ov.Seed
	}
	if ov.MaxImages != nil {
		cfg.MaxImages = *ov.MaxImages
	}
	if ov.Workers != nil {
		cfg.Workers = *ov.Workers
	}
	if len(ov.FilenameKeys) > 0 {
		cfg.FilenameKeys = append([]string(nil), ov.FilenameKeys...)
	}

	if cfg.SeedMode == "" {
		cfg.SeedMode = "progressive"
	}
	if cfg.AttemptBudget == 0 && cfg.MaxImages > 0 {
		cfg.AttemptBudget = DefaultAttemptFactor * cfg.MaxImages
	}

	return cfg
}

// InvalidConfigError reports every violation found in one pass.
type InvalidConfigError struct {
	Violations []string
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid session config: %s", strings.Join(e.Violations, "; "))
}

// IsInvalidConfigError reports whether err is an InvalidConfigError.
func IsInvalidConfigError(err error) bool {
	var ce *InvalidConfigError
	return errors.As(err, &ce)
}

// Validate checks the config for required fields and coherent values.
// All violations are collected before returning, never fail-fast.
func (c Config) Validate() error {
	var violations []string

	if strings.TrimSpace(c.OutputRoot) == "" {
		violations = append(violations, "output root is required")
	}
	if c.Mode == "" {
		violations = append(violations, "generation mode is required")
	} else if !template.ValidGenerationModes[c.Mode] {
		violations = append(violations, fmt.Sprintf("unknown generation mode %q", c.Mode))
	}
	if !template.ValidSeedModes[c.SeedMode] {
		violations = append(violations, fmt.Sprintf("unknown seed mode %q", c.SeedMode))
	}
	if c.MaxImages < 0 {
		violations = append(violations, fmt.Sprintf("max images must be >= 0, got %d", c.MaxImages))
	}
	if c.Mode == "random" && c.MaxImages == 0 {
		violations = append(violations, "random mode requires a positive max images")
	}
	if c.AttemptBudget < 0 {
		violations = append(violations, fmt.Sprintf("attempt budget must be >= 0, got %d", c.AttemptBudget))
	}
	if c.Workers < 1 {
		violations = append(violations, fmt.Sprintf("workers must be >= 1, got %d", c.Workers))
	}

	if len(violations) > 0 {
		return &InvalidConfigError{Violations: violations}
	}
	return nil
}
