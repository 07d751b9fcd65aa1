package render

import (
	"strings"

	"git.home.luguber.info/inful/contractcatalog/internal/document"
)

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML replaces the five HTML-significant characters with entities.
func EscapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}

var scriptReplacer = strings.NewReplacer(
	"<", `\u003c`,
	">", `\u003e`,
	"/", `\/`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// ScriptJSON encodes v as compact JSON that is safe to place inside an inline
// <script> element: it can neither close the element nor break a JS string.
func ScriptJSON(v any) (string, error) {
	b, err := document.Encode(v, "")
	if err != nil {
		return "", err
	}
	return scriptReplacer.Replace(string(b)), nil
}
