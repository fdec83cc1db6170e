package resolve

import (
	"math/rand"

	"github.com/promptloom/promptloom/internal/template"
)

// Axis is one generation axis: a placeholder bound to a variation file
// with its selector already applied.
type Axis struct {
	// Name is the placeholder's symbolic name.
	Name string

	// Candidates is the ordered candidate entry list after selector
	// evaluation.
	Candidates []template.Entry

	// Weight orders weighted combinatorial loops. It is the maximum
	// effective entry weight among the candidates; ties between axes
	// keep declaration order.
	Weight float64

	// Index is the placeholder's declaration position in the body.
	Index int
}

// ChunkBinding is a placeholder bound to a resolved chunk. Chunks do not
// vary; they render once per combination after field merging.
type ChunkBinding struct {
	Name  string
	Chunk *ResolvedChunk
}

// Resolution is the output of structural resolution: everything the
// prompt generator needs, with all randomness already spent.
type Resolution struct {
	// Template is the resolved template document.
	Template *template.Document

	// Axes lists variation-bound placeholders in declaration order.
	Axes []Axis

	// Chunks lists chunk-bound placeholders in declaration order.
	Chunks []ChunkBinding

	// Defaults are the template-level field defaults.
	Defaults map[string]string
}

// TotalCombinations returns the full Cartesian product size across all
// axes. An empty axis list yields zero.
func (r *Resolution) TotalCombinations() int {
	if len(r.Axes) == 0 {
		return 0
	}
	total := 1
	for _, a := range r.Axes {
		total *= len(a.Candidates)
	}
	return total
}

// Resolve runs structural resolution for one template document:
// imports, coverage, selector evaluation, per-axis weights.
//
// The rng is consumed only by random:N selectors, in placeholder
// declaration order, so identical inputs with an identically seeded
// source resolve identically.
func Resolve(doc *template.Document, reg *Registry, rng *rand.Rand) (*Resolution, error) {
	ns, err := ResolveImports(doc, reg)
	if err != nil {
		return nil, err
	}
	if err := CheckCoverage(doc, ns); err != nil {
		return nil, err
	}

	res := &Resolution{
		Template: doc,
		Defaults: doc.Defaults,
	}

	for i, ref := range template.ScanPlaceholders(doc.Template) {
		if chunk := ns.Chunk(ref.Name); chunk != nil {
			res.Chunks = append(res.Chunks, ChunkBinding{Name: ref.Name, Chunk: chunk})
			continue
		}

		vars := ns.Variations(ref.Name)
		sel, err := ParseSelector(ref.Selector, ref.Name)
		if err != nil {
			return nil, err
		}
		candidates, err := sel.Evaluate(vars, ref.Name, rng)
		if err != nil {
			return nil, err
		}

		weight := 0.0
		for _, c := range candidates {
			if w := c.EffectiveWeight(); w > weight {
				weight = w
			}
		}

		res.Axes = append(res.Axes, Axis{
			Name:       ref.Name,
			Candidates: candidates,
			Weight:     weight,
			Index:      i,
		})
	}

	return res, nil
}
