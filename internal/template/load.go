package template

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and decodes a promptloom document from disk.
//
// Decoding is strict: unknown fields are rejected so typos like
// "entrys:" fail loudly at load time. Load performs no schema
// validation beyond decoding; callers run Validate for that.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// Parse decodes a document from raw YAML bytes with strict field
// checking.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields (catches typos)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}
	return &doc, nil
}
