package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptloom/promptloom/internal/template"
)

func writeVariationFiles(t *testing.T, dir string) {
	t.Helper()
	writeDoc(t, dir, "expressions.vars.yaml", `version: 1
type: variations
name: expressions
entries:
  - key: Smiling
    value: warm smile
  - key: Serious
    value: stern look
`)
}

func TestResolveImportsClassifiesByKind(t *testing.T) {
	dir := t.TempDir()
	writeChunkChain(t, dir)
	writeVariationFiles(t, dir)
	reg := NewRegistry(dir)

	doc := &template.Document{
		Name: "portrait",
		Imports: map[string]string{
			"Hero":       "hero.chunk.yaml",
			"Expression": "expressions.vars.yaml",
		},
	}

	ns, err := ResolveImports(doc, reg)
	require.NoError(t, err)

	require.NotNil(t, ns.Chunk("Hero"))
	assert.Equal(t, "hero", ns.Chunk("Hero").Name)
	require.NotNil(t, ns.Variations("Expression"))
	assert.Equal(t, 2, ns.Variations("Expression").Len())
	assert.True(t, ns.Has("Hero"))
	assert.False(t, ns.Has("Lighting"))
}

func TestResolveImportsMissingSource(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	doc := &template.Document{
		Name:    "portrait",
		Imports: map[string]string{"Hero": "hero.chunk.yaml"},
	}

	_, err := ResolveImports(doc, reg)
	require.Error(t, err)
	assert.True(t, IsStructuralError(err))
	assert.Contains(t, err.Error(), `import "Hero"`)
}

func TestResolveImportsRejectsTemplateSource(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "other.yaml", `version: 1
type: template
name: other
template: "{{X}}"
`)
	reg := NewRegistry(dir)

	doc := &template.Document{
		Name:    "portrait",
		Imports: map[string]string{"Nested": "other.yaml"},
	}

	_, err := ResolveImports(doc, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want chunk or variations")
}

func TestCheckCoverage(t *testing.T) {
	dir := t.TempDir()
	writeVariationFiles(t, dir)
	reg := NewRegistry(dir)

	doc := &template.Document{
		Name:     "portrait",
		Template: "photo of {{Expression}} with {{Lighting}}",
		Imports:  map[string]string{"Expression": "expressions.vars.yaml"},
	}

	ns, err := ResolveImports(doc, reg)
	require.NoError(t, err)

	err = CheckCoverage(doc, ns)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeUnresolvedImport, se.Code)
	assert.Equal(t, "Lighting", se.Reference)
	assert.Equal(t, "portrait", se.Document)
}
