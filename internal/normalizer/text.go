package normalizer

import (
	"strings"
	"unicode"

	"github.com/kennygrant/sanitize"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var combiningMarks = runes.In(unicode.Mn)

// CleanText canonicalizes a free-text value: strips HTML markup, decomposes
// accented characters to their base form, lowercases, replaces punctuation
// with spaces, and collapses runs of whitespace. Stable under repeated
// application.
func CleanText(raw string) string {
	if raw == "" {
		return ""
	}

	text := sanitize.HTML(raw)
	text = foldAccents(text)
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// foldAccents applies NFKD and drops the combining marks, so "é" becomes "e".
// The transform chain is built per call; chains carry state and are not safe
// for concurrent use.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(combiningMarks))
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
