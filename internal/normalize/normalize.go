// Package normalize canonicalizes user-supplied names before storage and
// comparison. Tag and ingredient names are deduplicated per user on their
// normalized form, so "Vegan " and "Vegan" resolve to the same row.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Name canonicalizes a display name: Unicode NFC composition, leading and
// trailing whitespace trimmed, internal whitespace runs collapsed to a
// single space. Returns "" for names that are empty or all whitespace.
func Name(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
