package util

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// CleanText strips markup, control and invisible characters from free text
// (notes, names) and truncates it to maxRunes when maxRunes > 0. Entities are
// decoded before sanitizing so escaped tags are stripped too.
func CleanText(raw string, maxRunes int) string {
	decoded := html.UnescapeString(raw)

	builder := strings.Builder{}
	builder.Grow(len(decoded))

	for _, char := range decoded {
		if char == '\n' || char == '\r' || char == '\t' {
			builder.WriteRune(' ')
			continue
		}
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := entityReplacer.Replace(strictPolicy.Sanitize(builder.String()))
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	// Truncate by runes (not bytes) to avoid splitting multi-byte characters.
	if maxRunes > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxRunes {
			cleaned = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}

	return cleaned
}

// bluemonday escapes the characters it keeps; values are stored as plain
// text and escaped again on output. One pass only, so a decoded "&lt;" left
// in the text stays literal.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&#39;", "'",
	"&#34;", `"`,
	"&quot;", `"`,
	"&lt;", "<",
	"&gt;", ">",
)

// isInvisibleUnicode returns true for zero-width, formatting, and other
// invisible Unicode characters.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u200E', // Left-to-Right Mark
		'\u200F', // Right-to-Left Mark
		'\u2060', // Word Joiner
		'\uFEFF', // Zero-Width No-Break Space / BOM
		'\uFFF9', // Interlinear Annotation Anchor
		'\uFFFA', // Interlinear Annotation Separator
		'\uFFFB': // Interlinear Annotation Terminator
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
