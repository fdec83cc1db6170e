package template

// DocKind distinguishes the three document kinds sharing the YAML envelope.
type DocKind string

const (
	// KindTemplate is a top-level template document with a prompt body.
	KindTemplate DocKind = "template"
	// KindChunk is a reusable field-set (e.g. a character definition).
	KindChunk DocKind = "chunk"
	// KindVariations is an ordered list of variation entries.
	KindVariations DocKind = "variations"
)

// ValidKinds defines the allowed document kinds.
var ValidKinds = map[DocKind]bool{
	KindTemplate:   true,
	KindChunk:      true,
	KindVariations: true,
}

// Document is the decoded form of one promptloom YAML document.
//
// The envelope fields (Version, Type, Name) are present on every kind.
// The remaining sections are kind-specific:
//   - template:   Implements?, Imports?, Template, NegativePrompt?,
//     Generation?, Parameters?, Defaults?
//   - chunk:      Implements?, Fields
//   - variations: Entries
//
// Which sections are required per kind is enforced by Validate, not by
// the decoder.
type Document struct {
	Version int     `yaml:"version"`
	Type    DocKind `yaml:"type"`
	Name    string  `yaml:"name"`

	// Implements names a single parent document. The inheritance graph
	// must be acyclic; cycle detection happens in the resolve package.
	Implements string `yaml:"implements,omitempty"`

	// Imports maps symbolic names usable in the template body to source
	// files (chunk or variation documents).
	Imports map[string]string `yaml:"imports,omitempty"`

	// Template is the prompt body with {{Placeholder}} and
	// {{Placeholder:[selector]}} markers.
	Template string `yaml:"template,omitempty"`

	// NegativePrompt is passed through to the backend unchanged.
	NegativePrompt string `yaml:"negative_prompt,omitempty"`

	// Generation holds template-declared generation defaults. CLI flags
	// override these during session config building.
	Generation *Generation `yaml:"generation,omitempty"`

	// Parameters holds per-request backend parameters.
	Parameters *Parameters `yaml:"parameters,omitempty"`

	// Defaults are template-level field defaults, the lowest-precedence
	// source in field merging.
	Defaults map[string]string `yaml:"defaults,omitempty"`

	// Fields are chunk field groups: category -> field name -> value.
	// Categories are free-form; identity/appearance/expression/technical
	// by convention.
	Fields map[string]map[string]string `yaml:"fields,omitempty"`

	// Entries are the ordered variation entries of a variations document.
	Entries []Entry `yaml:"entries,omitempty"`

	// Source is the path the document was loaded from. Set by the
	// loader, not part of the YAML shape.
	Source string `yaml:"-"`
}

// Generation holds template-declared generation defaults.
type Generation struct {
	Mode         string `yaml:"mode,omitempty"`      // "combinatorial" | "random"
	SeedMode     string `yaml:"seed_mode,omitempty"` // "fixed" | "progressive" | "random"
	Seed         int64  `yaml:"seed,omitempty"`
	MaxImages    int    `yaml:"max_images,omitempty"`
	WeightedLoop bool   `yaml:"weighted_loop,omitempty"`

	// BackendRandomSeed makes random seed mode report -1 per image,
	// asking the backend to randomize server-side.
	BackendRandomSeed bool `yaml:"backend_random_seed,omitempty"`

	// AttemptBudget bounds random mode's duplicate-rejection retries.
	// Zero means 10x max_images.
	AttemptBudget int `yaml:"attempt_budget,omitempty"`
}

// Parameters holds per-request backend parameters, passed through to the
// submission capability unmodified.
type Parameters struct {
	Sampler  string  `yaml:"sampler,omitempty"`
	Steps    int     `yaml:"steps,omitempty"`
	CFGScale float64 `yaml:"cfg_scale,omitempty"`
	Width    int     `yaml:"width,omitempty"`
	Height   int     `yaml:"height,omitempty"`
}

// Entry is one variation entry.
//
// Exactly one of Value or Values is set: Value for a single-field entry,
// Values for a multi-field entry (one key driving several template fields
// at once, e.g. an ethnicity entry setting both skin tone and eye color).
type Entry struct {
	Key string `yaml:"key"`

	Value string `yaml:"value,omitempty"`

	Values map[string]string `yaml:"values,omitempty"`

	// Weight orders weighted combinatorial loops. It is never a
	// probability. Zero means unset; the effective default is 1.0.
	Weight float64 `yaml:"weight,omitempty"`
}

// EffectiveWeight returns the entry weight, defaulting to 1.0 when unset.
func (e Entry) EffectiveWeight() float64 {
	if e.Weight <= 0 {
		return 1.0
	}
	return e.Weight
}

// MultiField reports whether the entry drives multiple template fields.
func (e Entry) MultiField() bool {
	return len(e.Values) > 0
}

// Variations is the resolved view of a variations document: the ordered
// entry list plus a key index for selector evaluation.
type Variations struct {
	Name    string
	Entries []Entry

	byKey map[string]int
}

// NewVariations builds a Variations view over a document's entries.
// Entry order is preserved; the key index is built once.
func NewVariations(name string, entries []Entry) *Variations {
	v := &Variations{
		Name:    name,
		Entries: entries,
		byKey:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		// First occurrence wins; duplicate keys are a validation error
		// caught before this point.
		if _, ok := v.byKey[e.Key]; !ok {
			v.byKey[e.Key] = i
		}
	}
	return v
}

// Len returns the number of entries.
func (v *Variations) Len() int { return len(v.Entries) }

// IndexOf returns the position of the entry with the given key, or -1.
func (v *Variations) IndexOf(key string) int {
	if i, ok := v.byKey[key]; ok {
		return i
	}
	return -1
}
