package resolve

import (
	"fmt"
	"sort"

	"github.com/promptloom/promptloom/internal/template"
)

// Namespace is the flat symbol table produced from a template's imports
// mapping: every symbolic name the template body may reference, bound to
// either a resolved chunk or a variation file.
type Namespace struct {
	chunks     map[string]*ResolvedChunk
	variations map[string]*template.Variations
}

// Chunk returns the chunk bound to symbol, or nil.
func (n *Namespace) Chunk(symbol string) *ResolvedChunk {
	return n.chunks[symbol]
}

// Variations returns the variation file bound to symbol, or nil.
func (n *Namespace) Variations(symbol string) *template.Variations {
	return n.variations[symbol]
}

// Has reports whether symbol is bound to anything.
func (n *Namespace) Has(symbol string) bool {
	return n.chunks[symbol] != nil || n.variations[symbol] != nil
}

// ResolveImports builds the namespace for a template document.
//
// Each import source is loaded through the registry and classified by
// its declared document type: chunks go through ResolveChunk (flattening
// their implements chain), variation documents become ordered entry
// views. A source that is itself a template document cannot be imported.
func ResolveImports(doc *template.Document, reg *Registry) (*Namespace, error) {
	ns := &Namespace{
		chunks:     make(map[string]*ResolvedChunk),
		variations: make(map[string]*template.Variations),
	}

	// Sorted symbol order keeps error reporting deterministic.
	symbols := make([]string, 0, len(doc.Imports))
	for symbol := range doc.Imports {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		source := doc.Imports[symbol]
		imported, err := reg.Load(source)
		if err != nil {
			return nil, fmt.Errorf("import %q: %w", symbol, err)
		}

		switch imported.Type {
		case template.KindChunk:
			chunk, err := reg.ResolveChunk(source)
			if err != nil {
				return nil, fmt.Errorf("import %q: %w", symbol, err)
			}
			ns.chunks[symbol] = chunk

		case template.KindVariations:
			ns.variations[symbol] = template.NewVariations(imported.Name, imported.Entries)

		default:
			return nil, fmt.Errorf("import %q: source %q is a %s document, want chunk or variations",
				symbol, source, imported.Type)
		}
	}

	return ns, nil
}

// CheckCoverage verifies every placeholder in the template body is bound
// in the namespace. The first unbound symbol (in declaration order) is
// reported; resolution cannot proceed past it anyway.
func CheckCoverage(doc *template.Document, ns *Namespace) error {
	for _, ref := range template.ScanPlaceholders(doc.Template) {
		if !ns.Has(ref.Name) {
			return NewUnresolvedImportError(doc.Name, ref.Name)
		}
	}
	return nil
}
