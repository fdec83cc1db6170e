package prompt

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/promptloom/promptloom/internal/resolve"
	"github.com/promptloom/promptloom/internal/template"
)

// defaultAttemptFactor sizes random mode's duplicate-rejection budget
// when the options leave it unset.
const defaultAttemptFactor = 10

// Generate expands a resolution into the ordered prompt batch.
//
// The rng is consumed only by random combination selection and random
// seed drawing; combinatorial mode with fixed or progressive seeds never
// touches it and may pass nil.
func Generate(res *resolve.Resolution, opts Options, rng *rand.Rand) (*Batch, error) {
	start := time.Now()

	if len(res.Axes) == 0 {
		return nil, fmt.Errorf("resolution has no variation axes, nothing to generate")
	}

	var (
		combos   [][]int
		attempts int
		err      error
	)
	switch opts.Mode {
	case ModeCombinatorial:
		combos = combinatorialCombinations(res.Axes, opts)
	case ModeRandom:
		combos, attempts, err = randomCombinations(res.Axes, opts, rng)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown generation mode %q", opts.Mode)
	}

	batch := &Batch{
		Prompts: make([]Resolved, 0, len(combos)),
		Stats:   Stats{Attempts: attempts},
	}

	for i, combo := range combos {
		resolved := renderCombination(res, combo, i, len(combos), opts)
		batch.Stats.record(resolved.Values)
		batch.Prompts = append(batch.Prompts, resolved)
	}

	assignSeeds(batch.Prompts, opts, rng)

	batch.Stats.TotalImages = len(batch.Prompts)
	batch.Stats.Elapsed = time.Since(start)
	return batch, nil
}

// combinatorialCombinations enumerates the Cartesian product in
// deterministic order, optionally capped to the first MaxImages
// combinations. No shuffling happens here; weighting changes iteration
// order only, never the resulting set.
func combinatorialCombinations(axes []resolve.Axis, opts Options) [][]int {
	total := 1
	for _, a := range axes {
		total *= len(a.Candidates)
	}

	count := total
	if opts.MaxImages > 0 && opts.MaxImages < count {
		count = opts.MaxImages
	}

	// fast[0] is the fastest-varying axis position. Plain mode nests in
	// declaration order (the last-declared placeholder varies fastest);
	// weighted mode makes higher-weight axes vary faster, ties keeping
	// declaration order via the stable sort.
	fast := make([]int, len(axes))
	for i := range axes {
		fast[i] = len(axes) - 1 - i
	}
	if opts.WeightedLoop {
		for i := range axes {
			fast[i] = i
		}
		sort.SliceStable(fast, func(a, b int) bool {
			return axes[fast[a]].Weight > axes[fast[b]].Weight
		})
	}

	combos := make([][]int, 0, count)
	for i := 0; i < count; i++ {
		combo := make([]int, len(axes))
		rem := i
		for _, axis := range fast {
			size := len(axes[axis].Candidates)
			combo[axis] = rem % size
			rem /= size
		}
		combos = append(combos, combo)
	}
	return combos
}

// randomCombinations samples distinct combinations without replacement.
//
// Each attempt draws independently at every axis; exact duplicates are
// rejected by combination key and redrawn. When the attempt budget runs
// out the sample is returned short rather than looping forever.
func randomCombinations(axes []resolve.Axis, opts Options, rng *rand.Rand) ([][]int, int, error) {
	if opts.MaxImages <= 0 {
		return nil, 0, fmt.Errorf("random mode requires a positive max images, got %d", opts.MaxImages)
	}
	if rng == nil {
		return nil, 0, fmt.Errorf("random mode requires a random source")
	}

	budget := opts.AttemptBudget
	if budget <= 0 {
		budget = defaultAttemptFactor * opts.MaxImages
	}

	seen := make(map[string]bool, opts.MaxImages)
	combos := make([][]int, 0, opts.MaxImages)
	attempts := 0

	for len(combos) < opts.MaxImages && attempts < budget {
		attempts++

		combo := make([]int, len(axes))
		values := make(map[string]string, len(axes))
		for i, a := range axes {
			pick := rng.Intn(len(a.Candidates))
			combo[i] = pick
			values[a.Name] = a.Candidates[pick].Key
		}

		key := CombinationKey(values)
		if seen[key] {
			continue
		}
		seen[key] = true
		combos = append(combos, combo)
	}

	return combos, attempts, nil
}

// renderCombination produces the Resolved artifact for one combination.
// Seed assignment happens afterwards in assignSeeds; the zero seed here
// is a placeholder.
func renderCombination(res *resolve.Resolution, combo []int, index, total int, opts Options) Resolved {
	values := make(map[string]string, len(res.Axes))
	markers := make(map[string]string, len(res.Axes)+len(res.Chunks))
	var picks []resolve.Assignment

	for i, a := range res.Axes {
		entry := a.Candidates[combo[i]]
		values[a.Name] = entry.Key
		markers[a.Name] = resolve.EntryText(entry)
		if entry.MultiField() {
			picks = append(picks, resolve.ExpandEntry(a.Name, entry)...)
		}
	}

	merged := resolve.MergeFields(res.Defaults, chunksOf(res.Chunks), picks)
	for _, cb := range res.Chunks {
		markers[cb.Name] = cb.Chunk.Render(merged)
	}

	return Resolved{
		Index:          index,
		Prompt:         strings.TrimSpace(template.SubstitutePlaceholders(res.Template.Template, markers)),
		NegativePrompt: strings.TrimSpace(res.Template.NegativePrompt),
		Values:         values,
		Filename:       BuildFilename(index, total, values, opts.FilenameKeys),
	}
}

func chunksOf(bindings []resolve.ChunkBinding) []*resolve.ResolvedChunk {
	out := make([]*resolve.ResolvedChunk, len(bindings))
	for i, b := range bindings {
		out[i] = b.Chunk
	}
	return out
}

// assignSeeds stamps every prompt with its seed, in generation order,
// after combination selection:
//
//	fixed       - the base seed on every image
//	progressive - base seed + position offset
//	random      - an independently drawn integer, or the -1 sentinel
//	              when backend-side randomization is requested
func assignSeeds(prompts []Resolved, opts Options, rng *rand.Rand) {
	for i := range prompts {
		switch opts.SeedMode {
		case SeedFixed:
			prompts[i].Seed = opts.Seed
		case SeedProgressive:
			prompts[i].Seed = opts.Seed + int64(i)
		case SeedRandom:
			if opts.BackendRandomSeed || rng == nil {
				prompts[i].Seed = RandomSeedSentinel
			} else {
				prompts[i].Seed = rng.Int63()
			}
		}
	}
}
