package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// filenameExt is the extension applied to every generated filename.
const filenameExt = ".png"

// BuildFilename computes the deterministic filename for an image.
//
// Shape: NNN_Key-Value[_Key-Value...].png where NNN is the 1-based image
// index zero-padded to at least three digits (wider when the run is
// large), followed by one Placeholder-ChosenKey pair per configured
// filename key. The same resolved prompt and naming configuration always
// yields the same filename.
func BuildFilename(index, total int, values map[string]string, filenameKeys []string) string {
	width := 3
	for n := 1000; total >= n; n *= 10 {
		width++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%0*d", width, index+1)

	for _, key := range filenameKeys {
		chosen, ok := values[key]
		if !ok {
			continue
		}
		b.WriteByte('_')
		b.WriteString(SanitizeFilenamePart(key))
		b.WriteByte('-')
		b.WriteString(SanitizeFilenamePart(chosen))
	}

	b.WriteString(filenameExt)
	return b.String()
}

// SanitizeFilenamePart normalizes one filename component to a
// filesystem-safe form: NFC Unicode normalization, then every rune
// outside [A-Za-z0-9._-] replaced by '-', with repeated and edge
// dashes collapsed away.
func SanitizeFilenamePart(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	lastDash := true // leading dashes are dropped
	for _, r := range s {
		safe := r == '.' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if safe {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}

	return strings.TrimRight(b.String(), "-")
}
