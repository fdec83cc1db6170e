package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplateDocument(t *testing.T) {
	doc, err := Parse([]byte(`
version: 1
type: template
name: portrait
imports:
  Expression: expressions.vars.yaml
template: |
  photo of {{Expression}}
negative_prompt: blurry
generation:
  mode: combinatorial
  seed_mode: progressive
  seed: 42
parameters:
  steps: 30
  cfg_scale: 7.5
`))
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, KindTemplate, doc.Type)
	assert.Equal(t, "portrait", doc.Name)
	assert.Equal(t, "expressions.vars.yaml", doc.Imports["Expression"])
	assert.Contains(t, doc.Template, "{{Expression}}")
	assert.Equal(t, "blurry", doc.NegativePrompt)
	require.NotNil(t, doc.Generation)
	assert.Equal(t, "combinatorial", doc.Generation.Mode)
	assert.EqualValues(t, 42, doc.Generation.Seed)
	require.NotNil(t, doc.Parameters)
	assert.Equal(t, 30, doc.Parameters.Steps)
	assert.InDelta(t, 7.5, doc.Parameters.CFGScale, 1e-9)
}

func TestParseVariationsDocument(t *testing.T) {
	doc, err := Parse([]byte(`
version: 1
type: variations
name: expressions
entries:
  - key: Smiling
    value: warm smile
    weight: 2.0
  - key: Nordic
    values:
      skin_tone: pale skin
      eye_color: blue eyes
`))
	require.NoError(t, err)

	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "Smiling", doc.Entries[0].Key)
	assert.False(t, doc.Entries[0].MultiField())
	assert.InDelta(t, 2.0, doc.Entries[0].EffectiveWeight(), 1e-9)
	assert.True(t, doc.Entries[1].MultiField())
	// Unset weight defaults to 1.
	assert.InDelta(t, 1.0, doc.Entries[1].EffectiveWeight(), 1e-9)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`
version: 1
type: variations
name: expressions
entrys:
  - key: Smiling
    value: warm smile
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode YAML")
}

func TestLoadSetsSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\ntype: chunk\nname: c\nfields:\n  identity:\n    gender: person\n"), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)
	assert.Equal(t, "person", doc.Fields["identity"]["gender"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read document")
}

// =============================================================================
// Variations View Tests
// =============================================================================

func TestVariationsIndexOf(t *testing.T) {
	v := NewVariations("lighting", []Entry{
		{Key: "Golden", Value: "golden hour"},
		{Key: "Neon", Value: "neon glow"},
	})

	assert.Equal(t, 2, v.Len())
	assert.Equal(t, 0, v.IndexOf("Golden"))
	assert.Equal(t, 1, v.IndexOf("Neon"))
	assert.Equal(t, -1, v.IndexOf("Studio"))
}
