// Package dex normalizes display names from the wire into Showdown id form:
// lowercase with everything outside [a-z0-9] removed. Species like
// "Farfetch'd", "Mr. Mime", "Flabébé" or "Nidoran♀" all reduce to stable
// ids this way, matching how the reference data keys its entries.
package dex

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold strips combining marks so accented letters reduce to their base
// letter before the ascii filter runs.
var fold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ToID converts a display name to id form.
func ToID(name string) string {
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
