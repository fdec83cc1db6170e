package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptloom/promptloom/internal/testutil"
)

func TestPlanCommandPrintsEveryPrompt(t *testing.T) {
	tmplPath := writeFixtures(t)

	out, err := execute(t, "plan", tmplPath)
	require.NoError(t, err)

	assert.Contains(t, out, "8 prompt(s)")
	assert.Contains(t, out, "001.png")
	assert.Contains(t, out, "008.png")
	assert.Contains(t, out, "photo of woman, auburn hair")
}

func TestPlanCommandJSONFormat(t *testing.T) {
	tmplPath := writeFixtures(t)

	out, err := execute(t, "--format", "json", "plan", tmplPath,
		"--filename-keys", "Expression,Lighting")
	require.NoError(t, err)

	var report struct {
		Template string `json:"template"`
		Prompts  []struct {
			Seed     int64  `json:"seed"`
			Filename string `json:"filename"`
		} `json:"prompts"`
		Stats struct {
			TotalImages int `json:"total_images"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, tmplPath, report.Template)
	require.Len(t, report.Prompts, 8)
	assert.Equal(t, 8, report.Stats.TotalImages)

	// Progressive seeds from the template's base.
	assert.EqualValues(t, 1000, report.Prompts[0].Seed)
	assert.EqualValues(t, 1007, report.Prompts[7].Seed)
	assert.Equal(t, "001_Expression-Smiling_Lighting-Golden.png", report.Prompts[0].Filename)
}

func TestPlanCommandBackendRandomSeeds(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDoc(t, dir, "lighting.vars.yaml", testutil.LightingYAML)
	path := testutil.WriteDoc(t, dir, "moods.yaml", `version: 1
type: template
name: moods
imports:
  Lighting: lighting.vars.yaml
template: |
  a room lit by {{Lighting}}
generation:
  mode: combinatorial
  seed_mode: random
  backend_random_seed: true
`)

	out, err := execute(t, "--format", "json", "plan", path)
	require.NoError(t, err)

	var report struct {
		Prompts []struct {
			Seed int64 `json:"seed"`
		} `json:"prompts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Prompts, 3)

	// Every job asks the backend to randomize server-side.
	for _, p := range report.Prompts {
		assert.EqualValues(t, -1, p.Seed)
	}
}

func TestPlanCommandOverridesCapTheBatch(t *testing.T) {
	tmplPath := writeFixtures(t)

	out, err := execute(t, "plan", tmplPath, "--max-images", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "3 prompt(s)")
}

func TestPlanCommandFailsOnBrokenTemplate(t *testing.T) {
	_, err := execute(t, "plan", filepath.Join(t.TempDir(), "ghost.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
