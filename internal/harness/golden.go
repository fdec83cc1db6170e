package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/promptloom/promptloom/internal/orchestrator"
	"github.com/promptloom/promptloom/internal/prompt"
)

// runSnapshot is the golden-file shape of a scenario run. It carries
// only deterministic fields: elapsed times and absolute paths are
// excluded.
type runSnapshot struct {
	Scenario string            `json:"scenario"`
	RunID    string            `json:"run_id"`
	Status   string            `json:"status"`
	Prompts  []prompt.Resolved `json:"prompts"`
	Events   []eventSnapshot   `json:"events"`
}

type eventSnapshot struct {
	Seq      int64  `json:"seq"`
	Kind     string `json:"kind"`
	Phase    string `json:"phase,omitempty"`
	JobIndex int    `json:"job_index,omitempty"`
	JobState string `json:"job_state,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// RunWithGolden executes a scenario and compares the run snapshot
// against testdata/golden/{scenario.Name}.golden.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario, outDir string) *Result {
	t.Helper()

	result, err := Run(s, outDir)
	if err != nil {
		t.Fatalf("scenario %s: %v", s.Name, err)
	}

	snapshot := runSnapshot{
		Scenario: s.Name,
		RunID:    result.RunID,
		Status:   result.Status,
		Prompts:  result.Prompts,
		Events:   snapshotEvents(result.Events),
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, append(data, '\n'))

	return result
}

func snapshotEvents(events []orchestrator.Event) []eventSnapshot {
	out := make([]eventSnapshot, len(events))
	for i, e := range events {
		out[i] = eventSnapshot{
			Seq:      e.Seq,
			Kind:     string(e.Kind),
			Phase:    string(e.Phase),
			JobIndex: e.JobIndex,
			JobState: e.JobState,
			Detail:   e.Detail,
		}
	}
	return out
}
