package template

import (
	"regexp"
)

// PlaceholderRef is one placeholder occurrence in a template body.
//
// Syntax:
//
//	{{Expression}}                 - all entries of the bound source
//	{{Expression:[limit:4]}}       - entries filtered by a selector
//
// The selector text between the brackets is opaque at this layer; parsing
// and evaluation live in the resolve package.
type PlaceholderRef struct {
	// Name is the symbolic name, resolved against the imports namespace.
	Name string

	// Selector is the raw selector expression without brackets, empty
	// when the placeholder has no selector.
	Selector string

	// Raw is the full matched marker including braces, used for body
	// substitution.
	Raw string
}

// placeholderPattern matches {{Name}} and {{Name:[selector]}} markers.
// Names are identifier-like; selectors may contain anything but brackets.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z][A-Za-z0-9_-]*)(?::\[([^\[\]]*)\])?\}\}`)

// ScanPlaceholders extracts placeholder references from a template body
// in declaration order.
//
// A name appearing more than once keeps its first selector; later bare
// occurrences reuse the same candidate set so one placeholder varies
// consistently across the body.
func ScanPlaceholders(body string) []PlaceholderRef {
	matches := placeholderPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	refs := make([]PlaceholderRef, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		refs = append(refs, PlaceholderRef{
			Name:     name,
			Selector: m[2],
			Raw:      m[0],
		})
	}
	return refs
}

// SubstitutePlaceholders replaces every marker for the named placeholders
// with their chosen values. Markers with no value in the map are left
// untouched (the caller validates coverage beforehand).
func SubstitutePlaceholders(body string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(body, func(raw string) string {
		m := placeholderPattern.FindStringSubmatch(raw)
		if v, ok := values[m[1]]; ok {
			return v
		}
		return raw
	})
}
