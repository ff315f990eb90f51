// Package htmlsanitize provides sanitization for user-supplied text.
// It uses bluemonday to strip HTML from values that should be plain text
// (game names, identifiers) before they are stored or rendered.
package htmlsanitize

import (
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strict strips all HTML, leaving plain text only.
	strict     *bluemonday.Policy
	strictOnce sync.Once
)

func getStrict() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// PlainText strips all HTML tags from input and collapses surrounding
// whitespace. Use for values that must never contain markup.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(getStrict().Sanitize(s))
}

// PlainTextToHTML converts plain text to minimal HTML by:
// - Escaping HTML entities
// - Converting newlines to <br> tags
// - Wrapping in a <p> tag
func PlainTextToHTML(text string) template.HTML {
	if text == "" {
		return ""
	}
	escaped := template.HTMLEscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return template.HTML("<p>" + escaped + "</p>")
}
