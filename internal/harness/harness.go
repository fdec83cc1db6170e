package harness

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/promptloom/promptloom/internal/orchestrator"
	"github.com/promptloom/promptloom/internal/prompt"
	"github.com/promptloom/promptloom/internal/session"
	"github.com/promptloom/promptloom/internal/testutil"
)

// FixedRunID is the run identifier every scenario run uses. A constant
// id keeps manifests and golden snapshots byte-stable across runs.
const FixedRunID = "00000000-0000-7000-8000-000000000001"

// Result captures one scenario execution.
type Result struct {
	// RunID is always FixedRunID.
	RunID string

	// Status is the terminal manifest status.
	Status string

	// Prompts is the generated batch in order.
	Prompts []prompt.Resolved

	// Succeeded, Failed and Pending are the final job outcome counts.
	Succeeded int
	Failed    int
	Pending   int

	// Events is the full orchestrator event log.
	Events []orchestrator.Event

	// RunErr is the orchestrator's returned error, nil on a completed
	// run.
	RunErr error
}

// Run executes a scenario against a scripted submitter, writing the
// session under outDir. Deterministic by construction: fixed run id,
// seeded random source, single worker unless the scenario widens it.
//
// The returned error covers harness failures only; the run's own
// outcome, including an aborting error, lands on the Result.
func Run(s *Scenario, outDir string) (*Result, error) {
	sub := testutil.NewFakeSubmitter()
	sub.FailAll = s.FailAll
	for _, name := range s.FailFilenames {
		sub.FailFilenames[name] = true
	}

	workers := 1
	if s.Overrides.Workers != nil {
		workers = *s.Overrides.Workers
	}
	ov := session.Overrides{
		OutputRoot:   outDir,
		SessionName:  s.Name,
		Mode:         s.Overrides.Mode,
		SeedMode:     s.Overrides.SeedMode,
		Seed:         s.Overrides.Seed,
		MaxImages:    s.Overrides.MaxImages,
		Workers:      &workers,
		FilenameKeys: s.Overrides.FilenameKeys,
	}

	seed := s.RandSeed
	if seed == 0 {
		seed = 1
	}

	result, runErr := orchestrator.Run(context.Background(), s.Template, ov, orchestrator.Options{
		Submitter: sub,
		RunIDs:    orchestrator.NewFixedGenerator(FixedRunID),
		Rand:      rand.New(rand.NewSource(seed)),
	})

	out := &Result{
		RunID:     result.RunID,
		Succeeded: result.Aggregate.Succeeded,
		Failed:    result.Aggregate.Failed,
		Pending:   result.Aggregate.Pending,
		Events:    result.Events,
		RunErr:    runErr,
	}
	if result.Batch != nil {
		out.Prompts = result.Batch.Prompts
	}
	if result.Manifest != nil {
		out.Status = string(result.Manifest.Status)
	}
	return out, nil
}

// CheckExpectations compares a result against the scenario's
// expectations, collecting every violation rather than stopping at the
// first.
func CheckExpectations(s *Scenario, r *Result) []string {
	var violations []string

	if r.Status != s.Expect.Status {
		violations = append(violations, fmt.Sprintf("status: want %s, got %s", s.Expect.Status, r.Status))
	}
	if s.Expect.Total >= 0 && len(r.Prompts) != s.Expect.Total {
		violations = append(violations, fmt.Sprintf("total prompts: want %d, got %d", s.Expect.Total, len(r.Prompts)))
	}
	if r.Succeeded != s.Expect.Succeeded {
		violations = append(violations, fmt.Sprintf("succeeded: want %d, got %d", s.Expect.Succeeded, r.Succeeded))
	}
	if r.Failed != s.Expect.Failed {
		violations = append(violations, fmt.Sprintf("failed: want %d, got %d", s.Expect.Failed, r.Failed))
	}

	if s.Expect.ErrorContains == "" {
		if r.RunErr != nil {
			violations = append(violations, fmt.Sprintf("run error: want none, got %v", r.RunErr))
		}
	} else {
		if r.RunErr == nil {
			violations = append(violations, fmt.Sprintf("run error: want containing %q, got none", s.Expect.ErrorContains))
		} else if !strings.Contains(r.RunErr.Error(), s.Expect.ErrorContains) {
			violations = append(violations, fmt.Sprintf("run error: want containing %q, got %v", s.Expect.ErrorContains, r.RunErr))
		}
	}

	if len(s.Expect.Prompts) > 0 {
		if len(r.Prompts) != len(s.Expect.Prompts) {
			violations = append(violations, fmt.Sprintf("prompt list: want %d entries, got %d", len(s.Expect.Prompts), len(r.Prompts)))
		} else {
			for i, want := range s.Expect.Prompts {
				if r.Prompts[i].Prompt != want {
					violations = append(violations, fmt.Sprintf("prompt[%d]: want %q, got %q", i, want, r.Prompts[i].Prompt))
				}
			}
		}
	}

	return violations
}
