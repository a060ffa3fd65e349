// Package markdown converts between Markdown and HTML while keeping LaTeX
// intact in both directions.
package markdown

import (
	"bytes"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates Markdown rendering failed.
var ErrHTMLConversion = errors.New("markdown to HTML conversion failed")

// Office hosts ignore stylesheets, so code highlighting is emitted as inline
// styles rather than classes.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,      // Tables, strikethrough, autolinks, task lists
		extension.Footnote, // [^1] footnotes
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(false),
			),
		),
	),
	goldmark.WithRendererOptions(
		html.WithXHTML(),
		// Raw HTML stays escaped; math travels as plain tokens instead.
	),
)

// ToHTML renders Markdown to an HTML fragment.
func ToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return buf.String(), nil
}
