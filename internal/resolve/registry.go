package resolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/promptloom/promptloom/internal/template"
)

// Registry loads and caches promptloom documents under one root
// directory and resolves chunk inheritance chains.
//
// Documents are cached by reference, so diamond-shaped inheritance loads
// each file once. The registry is not safe for concurrent use; the
// pipeline resolves documents strictly sequentially.
type Registry struct {
	root  string
	cache map[string]*template.Document
}

// candidateSuffixes are the filename forms tried when a reference does
// not name an existing file directly. Order matters: an exact match
// wins over convention suffixes.
var candidateSuffixes = []string{"", ".yaml", ".yml", ".chunk.yaml", ".vars.yaml"}

// NewRegistry creates a registry rooted at the given directory.
func NewRegistry(root string) *Registry {
	return &Registry{
		root:  root,
		cache: make(map[string]*template.Document),
	}
}

// Load resolves a reference to a document, loading and caching it on
// first use. References may be bare names ("hero"), conventional names
// ("hero.chunk.yaml") or relative paths.
func (r *Registry) Load(ref string) (*template.Document, error) {
	if doc, ok := r.cache[ref]; ok {
		return doc, nil
	}

	path, err := r.locate(ref)
	if err != nil {
		return nil, err
	}

	doc, verrs := template.ValidateFile(path)
	if len(verrs) > 0 {
		// Document-level schema failures surface through the same error
		// channel as missing references: both mean the reference cannot
		// produce a usable document.
		return nil, fmt.Errorf("document %q invalid: %w", ref, joinValidationErrors(verrs))
	}

	r.cache[ref] = doc
	return doc, nil
}

// locate maps a reference to an existing file path under the root.
func (r *Registry) locate(ref string) (string, error) {
	for _, suffix := range candidateSuffixes {
		path := filepath.Join(r.root, ref+suffix)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", NewMissingReferenceError("", ref)
}

// ResolvedChunk is a chunk with its implements chain flattened into a
// single field map.
type ResolvedChunk struct {
	// Name is the leaf document's name.
	Name string

	// Fields maps field name to value after applying the whole chain,
	// ancestors first, child overrides last.
	Fields map[string]string

	// FieldOrder lists field names in deterministic render order:
	// conventional category order (identity, appearance, expression,
	// technical, then any others sorted), field names sorted within a
	// category. Overriding a field keeps its first position.
	FieldOrder []string
}

// Render joins the chunk's field values in FieldOrder, comma separated,
// taking each field's winning value from the merged set. Fields won by
// an inline override are skipped: the override's text renders at its own
// marker, and repeating it here would duplicate the phrase.
//
// The same resolved chunk and merged set always render the same text.
func (c *ResolvedChunk) Render(merged *FieldSet) string {
	var b strings.Builder
	for _, name := range c.FieldOrder {
		v := c.Fields[name]
		if fv, ok := merged.Lookup(name); ok {
			if fv.Origin == OriginOverride {
				continue
			}
			v = fv.Value
		}
		if v == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v)
	}
	return b.String()
}

// categoryRank orders the conventional chunk categories; unknown
// categories sort after them alphabetically.
var categoryRank = map[string]int{
	"identity":   0,
	"appearance": 1,
	"expression": 2,
	"technical":  3,
}

// ResolveChunk loads a chunk reference and flattens its implements
// chain.
//
// The chain is walked iteratively with an explicit on-path set, so a
// cycle is detected the moment a reference reappears on the current
// path rather than by exhausting the stack. Fields merge last-write-wins
// per field key, ancestors applied first.
func (r *Registry) ResolveChunk(ref string) (*ResolvedChunk, error) {
	// Walk child -> parent, collecting the chain. The on-path set
	// detects cycles; the ordered path makes the cycle report readable.
	var (
		chain  []*template.Document
		path   []string
		onPath = make(map[string]bool)
	)

	current, referrer := ref, ""
	for current != "" {
		if onPath[current] {
			return nil, NewCycleError(ref, append(path, current))
		}
		onPath[current] = true
		path = append(path, current)

		doc, err := r.Load(current)
		if err != nil {
			var se *StructuralError
			if errors.As(err, &se) && se.Code == ErrCodeMissingReference {
				// Re-attribute: the missing document was referenced
				// while resolving this chain.
				return nil, NewMissingReferenceError(referrer, current)
			}
			return nil, err
		}

		chain = append(chain, doc)
		current, referrer = doc.Implements, doc.Name
	}

	// Apply ancestors first, child overrides last.
	resolved := &ResolvedChunk{
		Name:   chain[0].Name,
		Fields: make(map[string]string),
	}
	for i := len(chain) - 1; i >= 0; i-- {
		applyChunkFields(resolved, chain[i])
	}
	return resolved, nil
}

// applyChunkFields folds one document's fields into the resolved chunk
// in deterministic order.
func applyChunkFields(resolved *ResolvedChunk, doc *template.Document) {
	categories := make([]string, 0, len(doc.Fields))
	for cat := range doc.Fields {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		ri, iKnown := categoryRank[categories[i]]
		rj, jKnown := categoryRank[categories[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return categories[i] < categories[j]
		}
	})

	for _, cat := range categories {
		fields := doc.Fields[cat]
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if _, exists := resolved.Fields[name]; !exists {
				resolved.FieldOrder = append(resolved.FieldOrder, name)
			}
			resolved.Fields[name] = fields[name]
		}
	}
}

// joinValidationErrors folds a validation error list into one error
// preserving each violation's text.
func joinValidationErrors(verrs []template.ValidationError) error {
	errs := make([]error, len(verrs))
	for i, v := range verrs {
		errs[i] = v
	}
	return errors.Join(errs...)
}
