package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptloom/promptloom/internal/template"
)

// =============================================================================
// Field Set Tests
// =============================================================================

func TestFieldSetPrecedence(t *testing.T) {
	fs := NewFieldSet()
	fs.Apply("skin_tone", "fair skin", OriginDefault)
	fs.Apply("skin_tone", "olive skin", OriginChunk)

	v, ok := fs.Get("skin_tone")
	require.True(t, ok)
	assert.Equal(t, "olive skin", v)

	// A lower-precedence source never displaces a higher one.
	fs.Apply("skin_tone", "pale skin", OriginDefault)
	v, _ = fs.Get("skin_tone")
	assert.Equal(t, "olive skin", v)

	fs.Apply("skin_tone", "tanned skin", OriginOverride)
	fv, ok := fs.Lookup("skin_tone")
	require.True(t, ok)
	assert.Equal(t, "tanned skin", fv.Value)
	assert.Equal(t, OriginOverride, fv.Origin)
}

func TestFieldSetEqualOriginLastWriteWins(t *testing.T) {
	fs := NewFieldSet()
	fs.Apply("hair_color", "brown hair", OriginChunk)
	fs.Apply("hair_color", "auburn hair", OriginChunk)

	v, _ := fs.Get("hair_color")
	assert.Equal(t, "auburn hair", v)
}

func TestFieldSetValues(t *testing.T) {
	fs := NewFieldSet()
	fs.Apply("a", "1", OriginDefault)
	fs.Apply("b", "2", OriginChunk)

	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, fs.Values())
}

func TestOriginString(t *testing.T) {
	assert.Equal(t, "default", OriginDefault.String())
	assert.Equal(t, "chunk", OriginChunk.String())
	assert.Equal(t, "override", OriginOverride.String())
}

// =============================================================================
// Entry Expansion Tests
// =============================================================================

func TestExpandEntrySingleField(t *testing.T) {
	entry := template.Entry{Key: "Smiling", Value: "warm smile"}

	got := ExpandEntry("Expression", entry)
	assert.Equal(t, []Assignment{{Field: "Expression", Value: "warm smile"}}, got)
}

func TestExpandEntryMultiField(t *testing.T) {
	entry := template.Entry{
		Key: "Nordic",
		Values: map[string]string{
			"skin_tone": "pale freckled skin",
			"eye_color": "ice blue eyes",
		},
	}

	got := ExpandEntry("Ethnicity", entry)
	// Sorted field order, independent of map iteration.
	assert.Equal(t, []Assignment{
		{Field: "eye_color", Value: "ice blue eyes"},
		{Field: "skin_tone", Value: "pale freckled skin"},
	}, got)
}

func TestEntryText(t *testing.T) {
	single := template.Entry{Key: "Smiling", Value: "warm smile"}
	assert.Equal(t, "warm smile", EntryText(single))

	multi := template.Entry{
		Key: "Nordic",
		Values: map[string]string{
			"skin_tone": "pale freckled skin",
			"eye_color": "ice blue eyes",
		},
	}
	assert.Equal(t, "ice blue eyes, pale freckled skin", EntryText(multi))
}

// =============================================================================
// Field Merging Tests
// =============================================================================

func TestMergeFieldsPrecedenceChain(t *testing.T) {
	chunk := &ResolvedChunk{
		Name:       "hero",
		Fields:     map[string]string{"skin_tone": "fair skin", "gender": "woman"},
		FieldOrder: []string{"gender", "skin_tone"},
	}

	merged := MergeFields(
		map[string]string{"skin_tone": "default skin", "mood": "neutral"},
		[]*ResolvedChunk{chunk},
		[]Assignment{{Field: "skin_tone", Value: "olive skin"}},
	)

	got := merged.Values()
	assert.Equal(t, "olive skin", got["skin_tone"])
	assert.Equal(t, "woman", got["gender"])
	assert.Equal(t, "neutral", got["mood"])

	fv, _ := merged.Lookup("skin_tone")
	assert.Equal(t, OriginOverride, fv.Origin)
	fv, _ = merged.Lookup("mood")
	assert.Equal(t, OriginDefault, fv.Origin)
}
