package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// StructuralError represents a defect in the document reference graph:
// inheritance cycles, missing parents, unresolved import symbols.
//
// Structural errors are always fatal and surface before any manifest
// exists.
type StructuralError struct {
	// Code identifies the error category.
	Code StructuralErrorCode

	// Message is a human-readable description.
	Message string

	// Document names the document being resolved when the error arose.
	Document string

	// Reference names the offending reference or import symbol.
	Reference string

	// Path is the resolution path for cycle errors, ending at the
	// revisited node (e.g. ["portrait", "base", "portrait"]).
	Path []string
}

// StructuralErrorCode categorizes structural errors.
type StructuralErrorCode string

const (
	// ErrCodeCycle indicates an inheritance chain revisits a document.
	ErrCodeCycle StructuralErrorCode = "CYCLE_DETECTED"

	// ErrCodeMissingReference indicates a referenced document cannot be
	// located.
	ErrCodeMissingReference StructuralErrorCode = "MISSING_REFERENCE"

	// ErrCodeUnresolvedImport indicates the template body references a
	// symbol absent from the imports namespace.
	ErrCodeUnresolvedImport StructuralErrorCode = "UNRESOLVED_IMPORT"
)

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s: %s (path: %s)", e.Code, e.Message, strings.Join(e.Path, " -> "))
	}
	if e.Reference != "" {
		return fmt.Sprintf("%s: %s (document=%s, reference=%s)", e.Code, e.Message, e.Document, e.Reference)
	}
	return fmt.Sprintf("%s: %s (document=%s)", e.Code, e.Message, e.Document)
}

// NewCycleError creates a StructuralError for an inheritance cycle.
func NewCycleError(document string, path []string) *StructuralError {
	return &StructuralError{
		Code:     ErrCodeCycle,
		Message:  "inheritance chain revisits a document",
		Document: document,
		Path:     path,
	}
}

// NewMissingReferenceError creates a StructuralError for a reference
// that cannot be located.
func NewMissingReferenceError(document, reference string) *StructuralError {
	return &StructuralError{
		Code:      ErrCodeMissingReference,
		Message:   fmt.Sprintf("referenced document %q not found", reference),
		Document:  document,
		Reference: reference,
	}
}

// NewUnresolvedImportError creates a StructuralError for a template body
// symbol with no imports binding.
func NewUnresolvedImportError(document, symbol string) *StructuralError {
	return &StructuralError{
		Code:      ErrCodeUnresolvedImport,
		Message:   fmt.Sprintf("template body references %q but imports does not bind it", symbol),
		Document:  document,
		Reference: symbol,
	}
}

// IsStructuralError reports whether err is a StructuralError.
// Uses errors.As to handle wrapped errors.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// SelectorError represents a selector that cannot be satisfied by its
// variation file: too few entries, an out-of-range index, an unknown
// key, or unparseable selector text.
//
// Selector errors are fatal at resolution time and always name the
// offending placeholder.
type SelectorError struct {
	// Code identifies the error category.
	Code SelectorErrorCode

	// Message is a human-readable description.
	Message string

	// Placeholder names the placeholder whose selector failed.
	Placeholder string

	// File names the variation file the selector was evaluated against.
	File string
}

// SelectorErrorCode categorizes selector errors.
type SelectorErrorCode string

const (
	// ErrCodeInsufficientEntries indicates random:N or limit:N requested
	// more entries than the file holds.
	ErrCodeInsufficientEntries SelectorErrorCode = "INSUFFICIENT_ENTRIES"

	// ErrCodeIndexOutOfRange indicates indexes:... named a position past
	// the end of the file.
	ErrCodeIndexOutOfRange SelectorErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeUnknownKey indicates an explicit key list named a key the
	// file does not contain.
	ErrCodeUnknownKey SelectorErrorCode = "UNKNOWN_KEY"

	// ErrCodeBadSelector indicates the selector text could not be parsed.
	ErrCodeBadSelector SelectorErrorCode = "BAD_SELECTOR"
)

// Error implements the error interface.
func (e *SelectorError) Error() string {
	return fmt.Sprintf("%s: %s (placeholder=%s, file=%s)", e.Code, e.Message, e.Placeholder, e.File)
}

// IsSelectorError reports whether err is a SelectorError.
// Uses errors.As to handle wrapped errors.
func IsSelectorError(err error) bool {
	var se *SelectorError
	return errors.As(err, &se)
}
