package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// NormalizeName canonicalizes a symbolic name for catalog lookups. The input
// is NFKC-normalized and case-folded, surrounding whitespace is trimmed, and
// runs of spaces, hyphens, or underscores collapse to a single underscore.
// Non-ASCII letters survive untouched so they can still match by similarity.
func NormalizeName(value string) string {
	value = strings.TrimSpace(norm.NFKC.String(value))
	if value == "" {
		return ""
	}
	value = folder.String(value)

	var b strings.Builder
	b.Grow(len(value))
	pendingSep := false
	for _, r := range value {
		if unicode.IsSpace(r) || r == '-' || r == '_' {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// StemName strips a file extension and normalizes the remainder, so
// "Money-Bag.SVG" and "money bag" compare equal.
func StemName(fileName string) string {
	if idx := strings.LastIndexByte(fileName, '.'); idx > 0 {
		fileName = fileName[:idx]
	}
	return NormalizeName(fileName)
}
