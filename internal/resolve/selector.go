package resolve

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/promptloom/promptloom/internal/template"
)

// SelectorKind identifies the selector form.
type SelectorKind int

const (
	// SelectorAll takes every entry in file order (absent selector).
	SelectorAll SelectorKind = iota
	// SelectorRandom takes N distinct entries in randomized order.
	SelectorRandom
	// SelectorLimit takes the first N entries in file order.
	SelectorLimit
	// SelectorIndexes takes entries at explicit zero-based positions.
	SelectorIndexes
	// SelectorKeys takes entries matching explicit keys, in listed order.
	SelectorKeys
)

// Selector is a parsed selector expression.
//
// Forms:
//
//	""                    -> all entries
//	"random:3"            -> 3 distinct entries, randomized order
//	"limit:4"             -> first 4 entries
//	"indexes:0,2,2"       -> positions 0, 2, 2 (repeats allowed)
//	"keys:Smiling,Pensive" -> named entries in listed order
type Selector struct {
	Kind    SelectorKind
	N       int
	Indexes []int
	Keys    []string
}

// ParseSelector parses raw selector text (the part between the brackets).
// An empty string yields SelectorAll. The placeholder name is only used
// for error reporting.
func ParseSelector(raw, placeholder string) (Selector, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Selector{Kind: SelectorAll}, nil
	}

	op, arg, found := strings.Cut(raw, ":")
	if !found {
		return Selector{}, &SelectorError{
			Code:        ErrCodeBadSelector,
			Message:     fmt.Sprintf("selector %q has no argument", raw),
			Placeholder: placeholder,
		}
	}
	op = strings.TrimSpace(op)
	arg = strings.TrimSpace(arg)

	switch op {
	case "random", "limit":
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return Selector{}, &SelectorError{
				Code:        ErrCodeBadSelector,
				Message:     fmt.Sprintf("selector %s wants a positive count, got %q", op, arg),
				Placeholder: placeholder,
			}
		}
		kind := SelectorRandom
		if op == "limit" {
			kind = SelectorLimit
		}
		return Selector{Kind: kind, N: n}, nil

	case "indexes":
		parts := strings.Split(arg, ",")
		indexes := make([]int, 0, len(parts))
		for _, p := range parts {
			i, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || i < 0 {
				return Selector{}, &SelectorError{
					Code:        ErrCodeBadSelector,
					Message:     fmt.Sprintf("selector indexes wants non-negative integers, got %q", p),
					Placeholder: placeholder,
				}
			}
			indexes = append(indexes, i)
		}
		return Selector{Kind: SelectorIndexes, Indexes: indexes}, nil

	case "keys":
		parts := strings.Split(arg, ",")
		keys := make([]string, 0, len(parts))
		for _, p := range parts {
			k := strings.TrimSpace(p)
			if k == "" {
				return Selector{}, &SelectorError{
					Code:        ErrCodeBadSelector,
					Message:     "selector keys contains an empty key",
					Placeholder: placeholder,
				}
			}
			keys = append(keys, k)
		}
		return Selector{Kind: SelectorKeys, Keys: keys}, nil

	default:
		return Selector{}, &SelectorError{
			Code:        ErrCodeBadSelector,
			Message:     fmt.Sprintf("unknown selector %q (want random, limit, indexes or keys)", op),
			Placeholder: placeholder,
		}
	}
}

// Evaluate applies the selector to a variation file, returning the
// ordered candidate list.
//
// Requesting more entries than exist, an out-of-range index, or an
// unknown key is an error, never a silent truncation. The rng is only
// consulted for SelectorRandom; every other form is deterministic.
func (s Selector) Evaluate(v *template.Variations, placeholder string, rng *rand.Rand) ([]template.Entry, error) {
	switch s.Kind {
	case SelectorAll:
		out := make([]template.Entry, len(v.Entries))
		copy(out, v.Entries)
		return out, nil

	case SelectorRandom:
		if s.N > v.Len() {
			return nil, &SelectorError{
				Code:        ErrCodeInsufficientEntries,
				Message:     fmt.Sprintf("random:%d requested but file has only %d entries", s.N, v.Len()),
				Placeholder: placeholder,
				File:        v.Name,
			}
		}
		// Sample without replacement: a permutation prefix gives N
		// distinct entries in randomized order.
		perm := rng.Perm(v.Len())
		out := make([]template.Entry, 0, s.N)
		for _, i := range perm[:s.N] {
			out = append(out, v.Entries[i])
		}
		return out, nil

	case SelectorLimit:
		if s.N > v.Len() {
			return nil, &SelectorError{
				Code:        ErrCodeInsufficientEntries,
				Message:     fmt.Sprintf("limit:%d requested but file has only %d entries", s.N, v.Len()),
				Placeholder: placeholder,
				File:        v.Name,
			}
		}
		out := make([]template.Entry, s.N)
		copy(out, v.Entries[:s.N])
		return out, nil

	case SelectorIndexes:
		out := make([]template.Entry, 0, len(s.Indexes))
		for _, i := range s.Indexes {
			if i >= v.Len() {
				return nil, &SelectorError{
					Code:        ErrCodeIndexOutOfRange,
					Message:     fmt.Sprintf("index %d out of range for file of length %d", i, v.Len()),
					Placeholder: placeholder,
					File:        v.Name,
				}
			}
			out = append(out, v.Entries[i])
		}
		return out, nil

	case SelectorKeys:
		out := make([]template.Entry, 0, len(s.Keys))
		for _, k := range s.Keys {
			i := v.IndexOf(k)
			if i < 0 {
				return nil, &SelectorError{
					Code:        ErrCodeUnknownKey,
					Message:     fmt.Sprintf("key %q not present in file", k),
					Placeholder: placeholder,
					File:        v.Name,
				}
			}
			out = append(out, v.Entries[i])
		}
		return out, nil

	default:
		return nil, &SelectorError{
			Code:        ErrCodeBadSelector,
			Message:     fmt.Sprintf("unhandled selector kind %d", s.Kind),
			Placeholder: placeholder,
			File:        v.Name,
		}
	}
}
