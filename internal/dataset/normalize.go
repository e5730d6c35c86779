package dataset

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeLabel normalizes a label for comparison (lowercase, no diacritics,
// dashes and underscores as spaces, collapsed whitespace).
func NormalizeLabel(label string) string {
	label = RemoveDiacritics(label)
	label = strings.ToLower(label)
	label = strings.NewReplacer("-", " ", "_", " ").Replace(label)
	return strings.Join(strings.Fields(label), " ")
}

// SimilarLabels returns the existing labels that normalize to the same value
// as label but are spelled differently. Capturing under such a name would
// split one person into two classes.
func SimilarLabels(existing []string, label string) []string {
	want := NormalizeLabel(label)
	var out []string
	for _, l := range existing {
		if l != label && NormalizeLabel(l) == want {
			out = append(out, l)
		}
	}
	return out
}
