package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteDoc writes one YAML document into dir and returns its full path.
// Fails the test on any write error.
func WriteDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// ExpressionsYAML is a 4-entry single-field variation fixture.
const ExpressionsYAML = `version: 1
type: variations
name: expressions
entries:
  - key: Smiling
    value: warm genuine smile
    weight: 2.0
  - key: Pensive
    value: pensive distant gaze
  - key: Laughing
    value: head thrown back laughing
  - key: Serious
    value: stern focused expression
`

// LightingYAML is a 3-entry single-field variation fixture.
const LightingYAML = `version: 1
type: variations
name: lighting
entries:
  - key: Golden
    value: golden hour sunlight
  - key: Studio
    value: soft studio lighting
  - key: Neon
    value: neon city glow
`

// EthnicityYAML is a multi-field variation fixture: one key drives both
// skin tone and eye color.
const EthnicityYAML = `version: 1
type: variations
name: ethnicity
entries:
  - key: Nordic
    values:
      skin_tone: pale freckled skin
      eye_color: ice blue eyes
  - key: Mediterranean
    values:
      skin_tone: olive skin
      eye_color: dark brown eyes
`

// HeroChunkYAML is a chunk fixture inheriting from BaseChunkYAML.
const HeroChunkYAML = `version: 1
type: chunk
name: hero
implements: base-human
fields:
  appearance:
    hair_color: auburn hair
  identity:
    gender: woman
`

// BaseChunkYAML is the root chunk fixture.
const BaseChunkYAML = `version: 1
type: chunk
name: base-human
fields:
  identity:
    gender: person
  appearance:
    hair_color: brown hair
    skin_tone: fair skin
  technical:
    detail: highly detailed
`

// PortraitYAML is a complete template fixture exercising a chunk import,
// two variation imports and selectors.
const PortraitYAML = `version: 1
type: template
name: portrait
imports:
  Hero: hero.chunk.yaml
  Expression: expressions.vars.yaml
  Lighting: lighting.vars.yaml
template: |
  photo of {{Hero}}, {{Expression:[limit:4]}}, {{Lighting:[indexes:0,2]}}
negative_prompt: |
  blurry, low quality
generation:
  mode: combinatorial
  seed_mode: progressive
  seed: 1000
parameters:
  sampler: euler_a
  steps: 30
  width: 832
  height: 1216
`

// WriteStandardFixtures writes the full fixture set into dir and
// returns the template path.
func WriteStandardFixtures(t *testing.T, dir string) string {
	t.Helper()
	WriteDoc(t, dir, "base-human.chunk.yaml", BaseChunkYAML)
	WriteDoc(t, dir, "hero.chunk.yaml", HeroChunkYAML)
	WriteDoc(t, dir, "expressions.vars.yaml", ExpressionsYAML)
	WriteDoc(t, dir, "lighting.vars.yaml", LightingYAML)
	WriteDoc(t, dir, "ethnicity.vars.yaml", EthnicityYAML)
	return WriteDoc(t, dir, "portrait.yaml", PortraitYAML)
}
