package prompt

import (
	"time"
)

// Generation modes.
const (
	ModeCombinatorial = "combinatorial"
	ModeRandom        = "random"
)

// Seed modes.
const (
	SeedFixed       = "fixed"
	SeedProgressive = "progressive"
	SeedRandom      = "random"
)

// RandomSeedSentinel is reported per image in random seed mode when the
// backend is asked to randomize server-side.
const RandomSeedSentinel int64 = -1

// Options configures one generation run. Built from the session config;
// immutable during generation.
type Options struct {
	// Mode is ModeCombinatorial or ModeRandom.
	Mode string

	// MaxImages caps the run. Zero means the full product in
	// combinatorial mode; random mode requires a positive value.
	MaxImages int

	// WeightedLoop enables weight-based loop ordering in combinatorial
	// mode: axes iterate in descending weight order so higher-weight
	// variations vary faster. Ties keep declaration order. This changes
	// combination order, never the resulting set.
	WeightedLoop bool

	// SeedMode is SeedFixed, SeedProgressive or SeedRandom.
	SeedMode string

	// Seed is the base seed for fixed and progressive modes.
	Seed int64

	// BackendRandomSeed makes SeedRandom report RandomSeedSentinel per
	// image instead of drawing an integer locally.
	BackendRandomSeed bool

	// AttemptBudget bounds random mode's duplicate-rejection retries.
	// Zero applies the generator default (10x MaxImages).
	AttemptBudget int

	// FilenameKeys lists placeholders whose chosen keys embed in
	// generated filenames, in the order given.
	FilenameKeys []string
}

// Resolved is one terminal resolution artifact: final prompt text,
// negative prompt, concrete value per placeholder, assigned seed and
// filename. Immutable once produced.
type Resolved struct {
	// Index is the zero-based position in generation order.
	Index int `json:"index"`

	// Prompt is the final prompt text.
	Prompt string `json:"prompt"`

	// NegativePrompt is the final negative prompt text.
	NegativePrompt string `json:"negative_prompt,omitempty"`

	// Values maps placeholder name to the chosen entry key.
	Values map[string]string `json:"values"`

	// Seed is the assigned seed (RandomSeedSentinel requests
	// backend-side randomization).
	Seed int64 `json:"seed"`

	// Filename is the deterministic output filename.
	Filename string `json:"filename"`
}

// Stats accumulates generation statistics for one run.
type Stats struct {
	// TotalImages is the number of resolved prompts produced.
	TotalImages int `json:"total_images"`

	// Distribution counts, per placeholder, how often each entry key
	// was chosen.
	Distribution map[string]map[string]int `json:"distribution"`

	// Attempts is the number of draws random mode made, including
	// rejected duplicates. Zero in combinatorial mode.
	Attempts int `json:"attempts,omitempty"`

	// Elapsed is the wall time generation took.
	Elapsed time.Duration `json:"elapsed"`
}

// record tallies one chosen combination into the distribution.
func (s *Stats) record(values map[string]string) {
	if s.Distribution == nil {
		s.Distribution = make(map[string]map[string]int)
	}
	for placeholder, key := range values {
		m := s.Distribution[placeholder]
		if m == nil {
			m = make(map[string]int)
			s.Distribution[placeholder] = m
		}
		m[key]++
	}
}

// Batch is the complete output of one generation run.
type Batch struct {
	Prompts []Resolved
	Stats   Stats
}
