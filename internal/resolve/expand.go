package resolve

import (
	"sort"
	"strings"

	"github.com/promptloom/promptloom/internal/template"
)

// Origin tags where a field assignment came from. Higher values take
// precedence; a higher-precedence source fully replaces a lower one for
// that field, never merges partially within a field.
type Origin int

const (
	// OriginDefault is a template-level default, the lowest precedence.
	OriginDefault Origin = iota
	// OriginChunk is a field from a resolved chunk.
	OriginChunk
	// OriginOverride is an inline override, including multi-field
	// variation entries chosen for one combination. Highest precedence.
	OriginOverride
)

// String returns the provenance label used in diagnostics.
func (o Origin) String() string {
	switch o {
	case OriginDefault:
		return "default"
	case OriginChunk:
		return "chunk"
	case OriginOverride:
		return "override"
	default:
		return "unknown"
	}
}

// FieldValue is a field assignment with explicit provenance.
type FieldValue struct {
	Value  string
	Origin Origin
}

// FieldSet merges field assignments by precedence. The zero map is not
// usable; construct with NewFieldSet.
type FieldSet struct {
	fields map[string]FieldValue
}

// NewFieldSet creates an empty field set.
func NewFieldSet() *FieldSet {
	return &FieldSet{fields: make(map[string]FieldValue)}
}

// Apply records an assignment. An existing assignment survives only if
// its origin outranks the incoming one; equal origins are last-write-wins
// (later sources in application order are more specific).
func (f *FieldSet) Apply(name, value string, origin Origin) {
	if existing, ok := f.fields[name]; ok && existing.Origin > origin {
		return
	}
	f.fields[name] = FieldValue{Value: value, Origin: origin}
}

// Get returns the winning value for a field and whether it is set.
func (f *FieldSet) Get(name string) (string, bool) {
	v, ok := f.fields[name]
	return v.Value, ok
}

// Lookup returns the winning assignment with its provenance.
func (f *FieldSet) Lookup(name string) (FieldValue, bool) {
	v, ok := f.fields[name]
	return v, ok
}

// Values flattens the set to field name -> winning value.
func (f *FieldSet) Values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for name, v := range f.fields {
		out[name] = v.Value
	}
	return out
}

// ExpandEntry converts one variation entry into its field assignments.
//
// A multi-field entry yields one assignment per field it drives; a
// single-field entry yields a single assignment under the placeholder's
// own name. Assignments are returned in sorted field order so downstream
// merging and rendering are deterministic.
func ExpandEntry(placeholder string, entry template.Entry) []Assignment {
	if !entry.MultiField() {
		return []Assignment{{Field: placeholder, Value: entry.Value}}
	}

	names := make([]string, 0, len(entry.Values))
	for name := range entry.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Assignment, 0, len(names))
	for _, name := range names {
		out = append(out, Assignment{Field: name, Value: entry.Values[name]})
	}
	return out
}

// Assignment is one field assignment produced by expansion.
type Assignment struct {
	Field string
	Value string
}

// EntryText renders the prompt text contributed by a chosen entry: the
// value itself for single-field entries, the driven field values joined
// in sorted field order for multi-field entries.
func EntryText(entry template.Entry) string {
	if !entry.MultiField() {
		return entry.Value
	}
	parts := make([]string, 0, len(entry.Values))
	for _, a := range ExpandEntry("", entry) {
		if a.Value != "" {
			parts = append(parts, a.Value)
		}
	}
	return strings.Join(parts, ", ")
}

// MergeFields builds the merged field set for one combination:
// template defaults first, chunk fields next, multi-field entry
// assignments last (as inline overrides).
func MergeFields(defaults map[string]string, chunks []*ResolvedChunk, picks []Assignment) *FieldSet {
	fs := NewFieldSet()

	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fs.Apply(name, defaults[name], OriginDefault)
	}

	for _, chunk := range chunks {
		for _, name := range chunk.FieldOrder {
			fs.Apply(name, chunk.Fields[name], OriginChunk)
		}
	}

	for _, a := range picks {
		fs.Apply(a.Field, a.Value, OriginOverride)
	}

	return fs
}
