// Package prompt expands resolved candidate sets into the ordered list
// of concrete prompt/seed tuples for one run.
//
// Two generation modes exist: combinatorial (Cartesian product across
// all axes, optionally capped) and random (sampling without replacement
// up to a configured count, bounded by an attempt budget). Seeds and
// filenames are assigned from the prompt's position in generation order,
// before any concurrent dispatch, so completion reordering downstream
// never changes which seed or filename belongs to which prompt.
//
// Determinism: given the same resolution, options and seeded random
// source, generation yields a byte-identical prompt sequence.
package prompt
