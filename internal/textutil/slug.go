package textutil

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SuffixLength is the number of hex characters in a filename collision suffix.
const SuffixLength = 4

// SanitizeSlug converts free text into a lowercase filesystem-safe slug.
// Accents are folded to their base letters, anything other than ASCII letters
// and digits becomes a hyphen, repeated hyphens collapse and leading or
// trailing hyphens are stripped. Applying it twice yields the same result.
func SanitizeSlug(value string) string {
	folded := foldAccents(strings.TrimSpace(value))
	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// LimitWords keeps at most n hyphen-separated words of a slug.
func LimitWords(slug string, n int) string {
	if n <= 0 {
		return slug
	}
	parts := strings.Split(slug, "-")
	if len(parts) <= n {
		return slug
	}
	return strings.Join(parts[:n], "-")
}

// RandomSuffix returns SuffixLength lowercase hex characters.
func RandomSuffix() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:SuffixLength]
}

func foldAccents(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}
