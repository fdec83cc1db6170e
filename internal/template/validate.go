package template

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// Validation error codes (E100-E149).
const (
	// Envelope / CUE schema errors (E100-E109)
	ErrSchemaViolation = "E100" // CUE schema unification failure
	ErrBadVersion      = "E101" // version missing or < 1
	ErrBadKind         = "E102" // unknown document type
	ErrNameEmpty       = "E103" // name is required

	// Template document errors (E110-E119)
	ErrTemplateBodyEmpty = "E110" // template body required for type: template
	ErrNoPlaceholders    = "E111" // template body declares no placeholders
	ErrBadGenerationMode = "E112" // unknown generation mode
	ErrBadSeedMode       = "E113" // unknown seed mode

	// Chunk document errors (E120-E129)
	ErrChunkNoFields = "E120" // chunk declares no fields

	// Variation document errors (E130-E139)
	ErrNoEntries       = "E130" // variations document has no entries
	ErrEntryKeyEmpty   = "E131" // entry key is required
	ErrDuplicateKey    = "E132" // duplicate entry key within one file
	ErrEntryValueShape = "E133" // entry must set exactly one of value/values
	ErrEntryBadWeight  = "E134" // weight must be positive
)

// ValidGenerationModes defines the allowed generation modes.
var ValidGenerationModes = map[string]bool{
	"combinatorial": true,
	"random":        true,
}

// ValidSeedModes defines the allowed seed modes.
var ValidSeedModes = map[string]bool{
	"fixed":       true,
	"progressive": true,
	"random":      true,
}

// ValidationError represents one schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var (
	schemaOnce  sync.Once
	schemaValue cue.Value
)

// documentSchema compiles the embedded CUE schema once.
func documentSchema() cue.Value {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		schemaValue = v.LookupPath(cue.ParsePath("#Document"))
	})
	return schemaValue
}

// ValidateBytes checks raw document YAML against the embedded CUE schema.
// Every CUE violation is reported; this never stops at the first error.
func ValidateBytes(data []byte) []ValidationError {
	schema := documentSchema()
	if err := schema.Err(); err != nil {
		// The embedded schema failing to compile is a programming error,
		// surfaced as a single violation rather than a panic.
		return []ValidationError{{
			Field:   "schema.cue",
			Message: err.Error(),
			Code:    ErrSchemaViolation,
		}}
	}

	err := cueyaml.Validate(data, schema)
	if err == nil {
		return nil
	}

	var errs []ValidationError
	for _, e := range cueerrors.Errors(err) {
		field := strings.Join(e.Path(), ".")
		if field == "" {
			field = "document"
		}
		errs = append(errs, ValidationError{
			Field:   field,
			Message: e.Error(),
			Code:    ErrSchemaViolation,
		})
	}
	return errs
}

// Validate checks a decoded document for kind-specific requirements the
// CUE schema cannot express. Returns all violations found.
func Validate(doc *Document) []ValidationError {
	var errs []ValidationError

	if doc.Version < 1 {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: "version is required and must be >= 1",
			Code:    ErrBadVersion,
		})
	}
	if !ValidKinds[doc.Type] {
		errs = append(errs, ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("unknown document type %q", doc.Type),
			Code:    ErrBadKind,
		})
	}
	if strings.TrimSpace(doc.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "name is required and must be non-empty",
			Code:    ErrNameEmpty,
		})
	}

	switch doc.Type {
	case KindTemplate:
		errs = append(errs, validateTemplate(doc)...)
	case KindChunk:
		errs = append(errs, validateChunk(doc)...)
	case KindVariations:
		errs = append(errs, validateVariations(doc)...)
	}

	return errs
}

func validateTemplate(doc *Document) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(doc.Template) == "" {
		errs = append(errs, ValidationError{
			Field:   "template",
			Message: "template body is required for type: template",
			Code:    ErrTemplateBodyEmpty,
		})
	} else if len(ScanPlaceholders(doc.Template)) == 0 {
		errs = append(errs, ValidationError{
			Field:   "template",
			Message: "template body declares no placeholders",
			Code:    ErrNoPlaceholders,
		})
	}

	if g := doc.Generation; g != nil {
		if g.Mode != "" && !ValidGenerationModes[g.Mode] {
			errs = append(errs, ValidationError{
				Field:   "generation.mode",
				Message: fmt.Sprintf("unknown generation mode %q (want combinatorial or random)", g.Mode),
				Code:    ErrBadGenerationMode,
			})
		}
		if g.SeedMode != "" && !ValidSeedModes[g.SeedMode] {
			errs = append(errs, ValidationError{
				Field:   "generation.seed_mode",
				Message: fmt.Sprintf("unknown seed mode %q (want fixed, progressive or random)", g.SeedMode),
				Code:    ErrBadSeedMode,
			})
		}
	}

	return errs
}

func validateChunk(doc *Document) []ValidationError {
	// A chunk with no fields of its own is only useful when it inherits;
	// without a parent it is empty and almost certainly a mistake.
	if len(doc.Fields) == 0 && doc.Implements == "" {
		return []ValidationError{{
			Field:   "fields",
			Message: "chunk declares no fields and no parent",
			Code:    ErrChunkNoFields,
		}}
	}
	return nil
}

func validateVariations(doc *Document) []ValidationError {
	var errs []ValidationError

	if len(doc.Entries) == 0 {
		errs = append(errs, ValidationError{
			Field:   "entries",
			Message: "variations document has no entries",
			Code:    ErrNoEntries,
		})
	}

	seen := make(map[string]bool, len(doc.Entries))
	for i, e := range doc.Entries {
		field := fmt.Sprintf("entries[%d]", i)

		if strings.TrimSpace(e.Key) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".key",
				Message: "entry key is required",
				Code:    ErrEntryKeyEmpty,
			})
		} else if seen[e.Key] {
			errs = append(errs, ValidationError{
				Field:   field + ".key",
				Message: fmt.Sprintf("duplicate entry key %q", e.Key),
				Code:    ErrDuplicateKey,
			})
		}
		seen[e.Key] = true

		hasValue := e.Value != ""
		hasValues := len(e.Values) > 0
		if hasValue == hasValues {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "entry must set exactly one of value or values",
				Code:    ErrEntryValueShape,
			})
		}

		if e.Weight < 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".weight",
				Message: fmt.Sprintf("weight must be positive, got %g", e.Weight),
				Code:    ErrEntryBadWeight,
			})
		}
	}

	return errs
}

// ValidateFile loads a document and runs both the CUE schema check and
// the kind-specific checks, returning the decoded document plus every
// violation found. A document that fails to decode at all returns a nil
// document and a single violation describing the decode failure.
func ValidateFile(path string) (*Document, []ValidationError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []ValidationError{{
			Field:   path,
			Message: err.Error(),
			Code:    ErrSchemaViolation,
		}}
	}

	errs := ValidateBytes(data)

	doc, err := Parse(data)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   path,
			Message: err.Error(),
			Code:    ErrSchemaViolation,
		})
		return nil, errs
	}
	doc.Source = path

	errs = append(errs, Validate(doc)...)
	return doc, errs
}
