package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// combinationDomain versions the combination key scheme so a future
// change cannot collide with keys computed today.
const combinationDomain = "promptloom/combination/v1"

// CombinationKey computes a content-addressed key for one combination
// (placeholder name -> chosen entry key).
//
// The key is stable across runs and processes: pairs are sorted by
// placeholder name, strings are NFC normalized, and fields are joined
// with null separators before hashing, so no field boundary ambiguity
// can make two distinct combinations collide.
//
// Random mode uses these keys for duplicate rejection.
func CombinationKey(values map[string]string) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	h.Write([]byte(combinationDomain))
	h.Write([]byte{0x00})
	for _, name := range names {
		h.Write([]byte(norm.NFC.String(name)))
		h.Write([]byte{0x00})
		h.Write([]byte(norm.NFC.String(values[name])))
		h.Write([]byte{0x00})
	}
	return hex.EncodeToString(h.Sum(nil))
}
