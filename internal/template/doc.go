// Package template defines the on-disk document model for promptloom:
// template documents, chunk documents, and variation files.
//
// All three document kinds share one YAML envelope (version, type, name)
// and are decoded strictly - unknown fields are rejected so typos surface
// as load errors instead of silently ignored sections.
//
// Structural schema validation is backed by an embedded CUE schema
// (schema.cue) plus Go-side checks that CUE cannot express (duplicate
// entry keys, placeholder references). Validation collects every
// violation before returning; it never stops at the first error.
package template
