package text

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips any HTML markup from s and collapses whitespace.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Excerpt returns the plain-text prefix of s at most maxRunes long, cut at a
// word boundary when one is close enough.
func Excerpt(s string, maxRunes int) string {
	plain := PlainText(s)
	runes := []rune(plain)
	if len(runes) <= maxRunes {
		return plain
	}

	cut := maxRunes - 1
	if i := strings.LastIndex(string(runes[:cut]), " "); i > len(string(runes[:cut]))/2 {
		return strings.TrimRight(string(runes[:cut])[:i], " .,;:") + "…"
	}
	return string(runes[:cut]) + "…"
}
