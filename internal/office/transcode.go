// Package office produces the HTML dialect that Word and other Office hosts
// paste predictably, plus the clipboard plumbing around it.
package office

import (
	"strings"

	"golang.org/x/net/html"
)

// Inline presentation applied when an element carries no style of its own.
var inlineStyles = map[string]string{
	"code":       "font-family:Consolas, 'Courier New', monospace; background:#f5f5f5; padding:0 2px; border-radius:2px;",
	"pre":        "font-family:Consolas, 'Courier New', monospace; background:#f5f5f5; padding:8px; border-radius:4px; white-space:pre-wrap;",
	"a":          "color:#1155cc; text-decoration:underline;",
	"blockquote": "border-left:3px solid #ccc; margin:0 0 0 0; padding-left:12px; color:#555;",
	"table":      "border-collapse:collapse;",
	"th":         "border:1px solid #ddd; padding:4px 6px;",
	"td":         "border:1px solid #ddd; padding:4px 6px;",
	"ul":         "margin:0 0 0 0; padding-left:40px;",
	"ol":         "margin:0 0 0 0; padding-left:40px;",
	"li":         "margin:0 0 0 0;",
	"img":        "max-width:100%; height:auto; vertical-align:middle;",
}

var renamedTags = map[string]string{
	"strong": "b",
	"em":     "i",
}

// ToOfficeHTML renames semantic tags to their presentational equivalents and
// adds inline styles. Everything else, comments in particular, is copied
// byte for byte.
func ToOfficeHTML(src string) string {
	var b strings.Builder
	b.Grow(len(src) + len(src)/10)

	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF is the only error a strings.Reader can produce.
			return b.String()
		}
		// Raw must be copied before Token lower-cases the buffer in place.
		raw := string(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if !rewriteStartTag(&tok) {
				b.WriteString(raw)
				continue
			}
			b.WriteString(tok.String())
		case html.EndTagToken:
			tok := z.Token()
			if mapped, ok := renamedTags[tok.Data]; ok {
				b.WriteString("</" + mapped + ">")
				continue
			}
			b.WriteString(raw)
		default:
			b.WriteString(raw)
		}
	}
}

// rewriteStartTag applies renames and styles to tok and reports whether
// anything changed.
func rewriteStartTag(tok *html.Token) bool {
	changed := false
	if mapped, ok := renamedTags[tok.Data]; ok {
		tok.Data = mapped
		tok.DataAtom = 0
		changed = true
	}
	style, ok := inlineStyles[tok.Data]
	if !ok {
		return changed
	}
	for _, a := range tok.Attr {
		if strings.EqualFold(a.Key, "style") {
			return changed
		}
	}
	tok.Attr = append(tok.Attr, html.Attribute{Key: "style", Val: style})
	return true
}
