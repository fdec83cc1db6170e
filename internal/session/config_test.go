package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptloom/promptloom/internal/template"
)

func templateDoc() *template.Document {
	return &template.Document{
		Version: 1,
		Type:    template.KindTemplate,
		Name:    "portrait",
		Generation: &template.Generation{
			Mode:      "combinatorial",
			SeedMode:  "fixed",
			Seed:      42,
			MaxImages: 20,
		},
		Parameters: &template.Parameters{Sampler: "euler_a", Steps: 30},
	}
}

// =============================================================================
// Build Tests
// =============================================================================

func TestBuildTemplateDefaults(t *testing.T) {
	cfg := Build(templateDoc(), Overrides{OutputRoot: "/out"})

	assert.Equal(t, "/out", cfg.OutputRoot)
	assert.Equal(t, "combinatorial", cfg.Mode)
	assert.Equal(t, "fixed", cfg.SeedMode)
	assert.EqualValues(t, 42, cfg.Seed)
	assert.Equal(t, 20, cfg.MaxImages)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, DefaultAttemptFactor*20, cfg.AttemptBudget)
	assert.Equal(t, "euler_a", cfg.Parameters.Sampler)
	assert.Equal(t, 30, cfg.Parameters.Steps)
}

func TestBuildOverridesWinOverTemplate(t *testing.T) {
	seed := int64(7)
	maxImages := 5
	workers := 2

	cfg := Build(templateDoc(), Overrides{
		OutputRoot:   "/out",
		SessionName:  "nightly",
		Mode:         "random",
		SeedMode:     "progressive",
		Seed:         &seed,
		MaxImages:    &maxImages,
		Workers:      &workers,
		FilenameKeys: []string{"Expression"},
	})

	assert.Equal(t, "nightly", cfg.SessionName)
	assert.Equal(t, "random", cfg.Mode)
	assert.Equal(t, "progressive", cfg.SeedMode)
	assert.EqualValues(t, 7, cfg.Seed)
	assert.Equal(t, 5, cfg.MaxImages)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []string{"Expression"}, cfg.FilenameKeys)
}

func TestBuildSourcesSeedBehaviorFromTemplate(t *testing.T) {
	doc := templateDoc()
	doc.Generation.Mode = "random"
	doc.Generation.SeedMode = "random"
	doc.Generation.BackendRandomSeed = true
	doc.Generation.AttemptBudget = 64

	cfg := Build(doc, Overrides{OutputRoot: "/out"})

	assert.True(t, cfg.BackendRandomSeed)
	// A declared budget wins over the 10x default.
	assert.Equal(t, 64, cfg.AttemptBudget)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsNegativeAttemptBudget(t *testing.T) {
	cfg := Build(templateDoc(), Overrides{OutputRoot: "/out"})
	cfg.AttemptBudget = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attempt budget")
}

func TestBuildZeroOverrideIsExplicit(t *testing.T) {
	// A pointer to zero is a provided value, not an absent flag.
	zero := 0
	cfg := Build(templateDoc(), Overrides{OutputRoot: "/out", MaxImages: &zero})

	assert.Zero(t, cfg.MaxImages)
	assert.Zero(t, cfg.AttemptBudget)
}

func TestBuildDefaultsWithoutGenerationBlock(t *testing.T) {
	doc := &template.Document{Version: 1, Type: template.KindTemplate, Name: "bare"}
	cfg := Build(doc, Overrides{OutputRoot: "/out", Mode: "combinatorial"})

	assert.Equal(t, "progressive", cfg.SeedMode)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Zero(t, cfg.Seed)
}

func TestBuildDoesNotMutateInputs(t *testing.T) {
	doc := templateDoc()
	ov := Overrides{OutputRoot: "/out", FilenameKeys: []string{"A"}}

	cfg := Build(doc, ov)
	cfg.FilenameKeys[0] = "mutated"

	assert.Equal(t, []string{"A"}, ov.FilenameKeys)
	assert.Equal(t, "combinatorial", doc.Generation.Mode)
}

// =============================================================================
// Validation Tests
// =============================================================================

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := Build(templateDoc(), Overrides{OutputRoot: "/out"})
	assert.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := Config{
		Mode:      "exhaustive",
		SeedMode:  "sequential",
		MaxImages: -1,
		Workers:   0,
	}

	err := cfg.Validate()
	require.Error(t, err)
	require.True(t, IsInvalidConfigError(err))

	var ice *InvalidConfigError
	require.ErrorAs(t, err, &ice)
	assert.Len(t, ice.Violations, 5)
	assert.Contains(t, err.Error(), "output root is required")
	assert.Contains(t, err.Error(), "unknown generation mode")
	assert.Contains(t, err.Error(), "unknown seed mode")
	assert.Contains(t, err.Error(), "workers must be >= 1")
}

func TestValidateRandomModeNeedsMaxImages(t *testing.T) {
	cfg := Config{
		OutputRoot: "/out",
		Mode:       "random",
		SeedMode:   "progressive",
		Workers:    1,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "random mode requires a positive max images")
}

func TestValidateMissingMode(t *testing.T) {
	cfg := Config{OutputRoot: "/out", SeedMode: "progressive", Workers: 1}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation mode is required")
}
