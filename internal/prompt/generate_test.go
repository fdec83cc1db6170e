package prompt

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptloom/promptloom/internal/resolve"
	"github.com/promptloom/promptloom/internal/template"
)

func axisOf(name string, weight float64, keys ...string) resolve.Axis {
	entries := make([]template.Entry, len(keys))
	for i, k := range keys {
		entries[i] = template.Entry{Key: k, Value: "text for " + k}
	}
	return resolve.Axis{Name: name, Candidates: entries, Weight: weight}
}

func testResolution(axes ...resolve.Axis) *resolve.Resolution {
	body := "shot:"
	for _, a := range axes {
		body += " {{" + a.Name + "}}"
	}
	return &resolve.Resolution{
		Template: &template.Document{Name: "t", Template: body},
		Axes:     axes,
	}
}

// =============================================================================
// Combinatorial Mode Tests
// =============================================================================

func TestGenerateCombinatorialFullProduct(t *testing.T) {
	res := testResolution(
		axisOf("A", 1, "A1", "A2"),
		axisOf("B", 1, "B1", "B2", "B3"),
	)

	batch, err := Generate(res, Options{Mode: ModeCombinatorial, SeedMode: SeedFixed}, nil)
	require.NoError(t, err)

	require.Len(t, batch.Prompts, 6)
	assert.Equal(t, 6, batch.Stats.TotalImages)

	// The last-declared axis varies fastest.
	assert.Equal(t, map[string]string{"A": "A1", "B": "B1"}, batch.Prompts[0].Values)
	assert.Equal(t, map[string]string{"A": "A1", "B": "B2"}, batch.Prompts[1].Values)
	assert.Equal(t, map[string]string{"A": "A1", "B": "B3"}, batch.Prompts[2].Values)
	assert.Equal(t, map[string]string{"A": "A2", "B": "B1"}, batch.Prompts[3].Values)
}

func TestGenerateCombinatorialCapped(t *testing.T) {
	res := testResolution(
		axisOf("A", 1, "A1", "A2"),
		axisOf("B", 1, "B1", "B2", "B3"),
	)

	batch, err := Generate(res, Options{Mode: ModeCombinatorial, MaxImages: 4, SeedMode: SeedFixed}, nil)
	require.NoError(t, err)

	// The first MaxImages combinations in deterministic order.
	require.Len(t, batch.Prompts, 4)
	assert.Equal(t, map[string]string{"A": "A1", "B": "B1"}, batch.Prompts[0].Values)
	assert.Equal(t, map[string]string{"A": "A2", "B": "B1"}, batch.Prompts[3].Values)
}

func TestGenerateWeightedLoopOrdersAxes(t *testing.T) {
	// A outweighs B, so A varies fastest despite plain mode's
	// last-declared-fastest nesting.
	res := testResolution(
		axisOf("A", 3, "A1", "A2"),
		axisOf("B", 1, "B1", "B2"),
	)

	batch, err := Generate(res, Options{Mode: ModeCombinatorial, WeightedLoop: true, SeedMode: SeedFixed}, nil)
	require.NoError(t, err)

	require.Len(t, batch.Prompts, 4)
	assert.Equal(t, map[string]string{"A": "A1", "B": "B1"}, batch.Prompts[0].Values)
	assert.Equal(t, map[string]string{"A": "A2", "B": "B1"}, batch.Prompts[1].Values)
	assert.Equal(t, map[string]string{"A": "A1", "B": "B2"}, batch.Prompts[2].Values)
}

func TestGenerateWeightedLoopTiesKeepDeclarationOrder(t *testing.T) {
	res := testResolution(
		axisOf("A", 2, "A1", "A2"),
		axisOf("B", 2, "B1", "B2"),
	)

	batch, err := Generate(res, Options{Mode: ModeCombinatorial, WeightedLoop: true, SeedMode: SeedFixed}, nil)
	require.NoError(t, err)

	// Equal weights: the first-declared axis varies fastest under the
	// stable sort.
	assert.Equal(t, map[string]string{"A": "A1", "B": "B1"}, batch.Prompts[0].Values)
	assert.Equal(t, map[string]string{"A": "A2", "B": "B1"}, batch.Prompts[1].Values)
}

func TestGenerateWeightedLoopSameSetAsPlain(t *testing.T) {
	res := testResolution(
		axisOf("A", 1, "A1", "A2"),
		axisOf("B", 3, "B1", "B2", "B3"),
	)

	plain, err := Generate(res, Options{Mode: ModeCombinatorial, SeedMode: SeedFixed}, nil)
	require.NoError(t, err)
	weighted, err := Generate(res, Options{Mode: ModeCombinatorial, WeightedLoop: true, SeedMode: SeedFixed}, nil)
	require.NoError(t, err)

	keyed := func(b *Batch) map[string]bool {
		out := make(map[string]bool, len(b.Prompts))
		for _, p := range b.Prompts {
			out[CombinationKey(p.Values)] = true
		}
		return out
	}
	assert.Equal(t, keyed(plain), keyed(weighted))
}

// =============================================================================
// Random Mode Tests
// =============================================================================

func TestGenerateRandomDistinct(t *testing.T) {
	res := testResolution(
		axisOf("A", 1, "A1", "A2", "A3"),
		axisOf("B", 1, "B1", "B2", "B3"),
	)

	batch, err := Generate(res, Options{Mode: ModeRandom, MaxImages: 5, SeedMode: SeedFixed}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	require.Len(t, batch.Prompts, 5)
	seen := make(map[string]bool)
	for _, p := range batch.Prompts {
		key := CombinationKey(p.Values)
		assert.False(t, seen[key], "duplicate combination %v", p.Values)
		seen[key] = true
	}
	assert.GreaterOrEqual(t, batch.Stats.Attempts, 5)
}

func TestGenerateRandomDeterministicPerSeed(t *testing.T) {
	res := testResolution(
		axisOf("A", 1, "A1", "A2", "A3"),
		axisOf("B", 1, "B1", "B2"),
	)
	opts := Options{Mode: ModeRandom, MaxImages: 4, SeedMode: SeedFixed}

	first, err := Generate(res, opts, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	second, err := Generate(res, opts, rand.New(rand.NewSource(11)))
	require.NoError(t, err)

	require.Len(t, second.Prompts, len(first.Prompts))
	for i := range first.Prompts {
		assert.Equal(t, first.Prompts[i].Values, second.Prompts[i].Values)
	}
}

func TestGenerateRandomBudgetExhaustionReturnsShort(t *testing.T) {
	// Only 2 combinations exist; asking for 10 must stop at the budget
	// instead of looping forever.
	res := testResolution(axisOf("A", 1, "A1", "A2"))

	batch, err := Generate(res, Options{
		Mode:          ModeRandom,
		MaxImages:     10,
		AttemptBudget: 30,
		SeedMode:      SeedFixed,
	}, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	assert.Len(t, batch.Prompts, 2)
	assert.Equal(t, 30, batch.Stats.Attempts)
}

func TestGenerateRandomRequiresMaxImages(t *testing.T) {
	res := testResolution(axisOf("A", 1, "A1"))

	_, err := Generate(res, Options{Mode: ModeRandom, SeedMode: SeedFixed}, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive max images")
}

func TestGenerateRandomRequiresRand(t *testing.T) {
	res := testResolution(axisOf("A", 1, "A1"))

	_, err := Generate(res, Options{Mode: ModeRandom, MaxImages: 1, SeedMode: SeedFixed}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "random source")
}

// =============================================================================
// Seed Assignment Tests
// =============================================================================

func TestGenerateSeedsFixed(t *testing.T) {
	res := testResolution(axisOf("A", 1, "A1", "A2", "A3"))

	batch, err := Generate(res, Options{Mode: ModeCombinatorial, SeedMode: SeedFixed, Seed: 777}, nil)
	require.NoError(t, err)

	for _, p := range batch.Prompts {
		assert.EqualValues(t, 777, p.Seed)
	}
}

func TestGenerateSeedsProgressive(t *testing.T) {
	res := testResolution(axisOf("A", 1, "A1", "A2", "A3"))

	batch, err := Generate(res, Options{Mode: ModeCombinatorial, SeedMode: SeedProgressive, Seed: 1000}, nil)
	require.NoError(t, err)

	require.Len(t, batch.Prompts, 3)
	assert.EqualValues(t, 1000, batch.Prompts[0].Seed)
	assert.EqualValues(t, 1001, batch.Prompts[1].Seed)
	assert.EqualValues(t, 1002, batch.Prompts[2].Seed)
}

func TestGenerateSeedsBackendRandomSentinel(t *testing.T) {
	res := testResolution(axisOf("A", 1, "A1", "A2"))

	batch, err := Generate(res, Options{
		Mode:              ModeCombinatorial,
		SeedMode:          SeedRandom,
		BackendRandomSeed: true,
	}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	for _, p := range batch.Prompts {
		assert.Equal(t, RandomSeedSentinel, p.Seed)
	}
}

func TestGenerateSeedsLocalRandomDrawn(t *testing.T) {
	res := testResolution(axisOf("A", 1, "A1", "A2"))

	batch, err := Generate(res, Options{
		Mode:     ModeCombinatorial,
		SeedMode: SeedRandom,
	}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	for _, p := range batch.Prompts {
		assert.GreaterOrEqual(t, p.Seed, int64(0))
	}
}

// =============================================================================
// Rendering Tests
// =============================================================================

func TestGenerateRendersPromptText(t *testing.T) {
	res := testResolution(axisOf("Expression", 1, "Smiling"))

	batch, err := Generate(res, Options{Mode: ModeCombinatorial, SeedMode: SeedFixed}, nil)
	require.NoError(t, err)

	require.Len(t, batch.Prompts, 1)
	assert.Equal(t, "shot: text for Smiling", batch.Prompts[0].Prompt)
}

func TestGenerateRendersChunkWithFieldOverride(t *testing.T) {
	chunk := &resolve.ResolvedChunk{
		Name:       "hero",
		Fields:     map[string]string{"gender": "woman", "skin_tone": "fair skin"},
		FieldOrder: []string{"gender", "skin_tone"},
	}
	res := &resolve.Resolution{
		Template: &template.Document{
			Name:           "t",
			Template:       "{{Hero}}, {{Ethnicity}}",
			NegativePrompt: "blurry",
		},
		Axes: []resolve.Axis{{
			Name: "Ethnicity",
			Candidates: []template.Entry{{
				Key: "Mediterranean",
				Values: map[string]string{
					"skin_tone": "olive skin",
					"eye_color": "dark brown eyes",
				},
			}},
		}},
		Chunks: []resolve.ChunkBinding{{Name: "Hero", Chunk: chunk}},
	}

	batch, err := Generate(res, Options{Mode: ModeCombinatorial, SeedMode: SeedFixed}, nil)
	require.NoError(t, err)

	require.Len(t, batch.Prompts, 1)
	// The multi-field entry overrides skin_tone, so the chunk omits it
	// and the entry's own marker carries the values.
	assert.Equal(t, "woman, dark brown eyes, olive skin", batch.Prompts[0].Prompt)
	assert.Equal(t, "blurry", batch.Prompts[0].NegativePrompt)
}

func TestGenerateStatsDistribution(t *testing.T) {
	res := testResolution(
		axisOf("A", 1, "A1", "A2"),
		axisOf("B", 1, "B1"),
	)

	batch, err := Generate(res, Options{Mode: ModeCombinatorial, SeedMode: SeedFixed}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, batch.Stats.Distribution["A"]["A1"])
	assert.Equal(t, 1, batch.Stats.Distribution["A"]["A2"])
	assert.Equal(t, 2, batch.Stats.Distribution["B"]["B1"])
}

func TestGenerateNoAxes(t *testing.T) {
	res := &resolve.Resolution{Template: &template.Document{Name: "t", Template: "static"}}

	_, err := Generate(res, Options{Mode: ModeCombinatorial, SeedMode: SeedFixed}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no variation axes")
}

func TestGenerateUnknownMode(t *testing.T) {
	res := testResolution(axisOf("A", 1, "A1"))

	_, err := Generate(res, Options{Mode: "exhaustive", SeedMode: SeedFixed}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown generation mode")
}

func TestGenerateFilenamesEmbedKeys(t *testing.T) {
	res := testResolution(axisOf("Expression", 1, "Smiling", "Pensive", "Laughing"))

	batch, err := Generate(res, Options{
		Mode:         ModeCombinatorial,
		SeedMode:     SeedFixed,
		FilenameKeys: []string{"Expression"},
	}, nil)
	require.NoError(t, err)

	require.Len(t, batch.Prompts, 3)
	assert.Equal(t, "001_Expression-Smiling.png", batch.Prompts[0].Filename)
	assert.Equal(t, "003_Expression-Laughing.png", batch.Prompts[2].Filename)
}
