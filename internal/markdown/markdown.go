// Package markdown renders the free-text description fields of contracts.
package markdown

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Options controls description rendering.
type Options struct {
	// HardWraps turns single newlines into <br>, matching how most contract
	// authors write multi-line descriptions in YAML block scalars.
	HardWraps bool
}

// Renderer converts CommonMark (plus GFM tables, strikethrough and autolinks) to
// HTML. Raw HTML in the source is omitted and dangerous link schemes are dropped,
// so the result is safe to embed unescaped.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a Renderer for opts.
func New(opts Options) *Renderer {
	var ext []goldmark.Option
	ext = append(ext, goldmark.WithExtensions(extension.GFM))
	if opts.HardWraps {
		ext = append(ext, goldmark.WithRendererOptions(html.WithHardWraps()))
	}
	return &Renderer{md: goldmark.New(ext...)}
}

// Render converts src to HTML. Empty input yields empty output.
func (r *Renderer) Render(src string) (template.HTML, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	// #nosec G203 -- goldmark runs without html.WithUnsafe
	return template.HTML(buf.String()), nil
}

// Summary returns the plain text of the first paragraph or heading of src, with
// markup stripped and line breaks collapsed to single spaces.
func (r *Renderer) Summary(src string) string {
	body := []byte(src)
	root := r.md.Parser().Parse(text.NewReader(body))

	var sb strings.Builder
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch n.Kind() {
		case gmast.KindParagraph, gmast.KindHeading, gmast.KindTextBlock:
			collectText(&sb, n, body)
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}

func collectText(sb *strings.Builder, n gmast.Node, source []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *gmast.Text:
			sb.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(node.Value)
		case *gmast.AutoLink:
			sb.Write(node.URL(source))
		default:
			collectText(sb, c, source)
		}
	}
}
