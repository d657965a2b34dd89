package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify lower-cases s, keeps letters, digits and combining marks (Thai vowels
// and tone marks are marks) and joins everything else with single dashes.
func Slugify(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}

// ProductSlug derives the storefront slug from name and sku.
func ProductSlug(name, sku string) string {
	return Slugify(name + " " + sku)
}
