package telegram

import (
	"strings"
	"unicode/utf8"
)

const truncatedSuffix = "\n\n... (truncated)"

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes user supplied text for legacy Markdown parse mode.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Truncate shortens text to at most maxLen runes, preferring to cut at a
// newline in the second half of the allowed window.
func Truncate(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}

	// Leave room for the suffix and for closing an open code block.
	keep := maxLen - utf8.RuneCountInString(truncatedSuffix) - len("\n```")
	if keep <= 0 {
		return string([]rune(text)[:maxLen])
	}
	runes := []rune(text)
	chunk := string(runes[:keep])
	if i := strings.LastIndex(chunk, "\n"); i > len(chunk)/2 {
		chunk = chunk[:i]
	}
	return FixMarkdown(chunk) + truncatedSuffix
}

// FixMarkdown closes code spans and blocks left open, e.g. by truncation.
func FixMarkdown(text string) string {
	if strings.Count(text, "```")%2 != 0 {
		text += "\n```"
	}
	return fixInlineCode(text)
}

func fixInlineCode(text string) string {
	var builder strings.Builder
	inCodeBlock := false
	inlineOpen := false

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && string(runes[i:i+3]) == "```" {
			if inlineOpen {
				builder.WriteRune('`')
				inlineOpen = false
			}
			inCodeBlock = !inCodeBlock
			builder.WriteString("```")
			i += 2
			continue
		}

		// Escaped backticks do not open a span.
		if !inCodeBlock && runes[i] == '`' && (i == 0 || runes[i-1] != '\\') {
			inlineOpen = !inlineOpen
		}

		builder.WriteRune(runes[i])
	}

	if inlineOpen {
		builder.WriteRune('`')
	}

	return builder.String()
}
