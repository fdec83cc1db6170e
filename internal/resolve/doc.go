// Package resolve turns raw template documents into candidate field sets
// ready for prompt generation.
//
// Resolution is structural and deterministic:
//
//  1. Registry loads chunk and template documents and flattens
//     implements chains (ancestors first, child overrides last) with an
//     explicit on-path set for cycle detection.
//  2. Imports binds the template's symbolic names to resolved chunks or
//     variation files.
//  3. Selector evaluation filters and orders each variation file's
//     entries ([random:N], [limit:N], [indexes:...], explicit keys).
//  4. The expander merges field assignments from template defaults,
//     chunk fields and multi-field variation entries, with tagged
//     provenance so precedence is a total function.
//
// All randomness (the random:N selector) flows through an injected
// *rand.Rand; resolving the same inputs with the same source yields
// byte-identical output.
package resolve
