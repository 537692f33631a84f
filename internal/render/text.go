package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var punctuation = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
	"–", "-",
	"—", "-",
)

// CleanText replaces typographic quotes and dashes with ASCII equivalents.
func CleanText(s string) string {
	return punctuation.Replace(s)
}

// goldmark's default renderer omits raw HTML, so narrative text from the
// bundle cannot inject markup.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough),
)

// Markdown renders narrative text to HTML. Plain text comes back as a single
// paragraph.
func Markdown(s string) template.HTML {
	s = CleanText(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(s), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(s) + "</p>")
	}
	return template.HTML(strings.TrimSpace(buf.String())) //nolint:gosec
}
