// Package sanitize reduces arbitrary HTML to the allow-listed subset that
// Office and clipboard consumers accept.
package sanitize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/officemath/internal/htmldom"
	"golang.org/x/net/html"
)

var keepTags = map[string]bool{
	"div": true, "p": true, "br": true, "hr": true,
	"b": true, "strong": true, "i": true, "em": true, "u": true, "s": true,
	"sub": true, "sup": true, "pre": true, "code": true, "blockquote": true,
	"ul": true, "ol": true, "li": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "th": true, "td": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"a": true, "img": true, "math": true,
}

// DropTags are removed together with everything inside them.
var DropTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"iframe": true, "object": true, "embed": true, "svg": true,
}

// Allowed reports whether tag survives sanitizing outside of MathML.
func Allowed(tag string) bool {
	return keepTags[strings.ToLower(tag)]
}

// ForOffice rebuilds the body of src under the allow-list: unknown elements
// are unwrapped, DropTags are removed, MathML passes through untouched and
// only tag-specific attributes are retained.
func ForOffice(src string) (string, error) {
	doc, err := htmldom.Parse(src)
	if err != nil {
		return "", err
	}
	var out []*html.Node
	for _, c := range htmldom.BodyChildren(doc) {
		out = append(out, sanitizeNode(c, false, false)...)
	}
	return htmldom.Render(out)
}

func sanitizeChildren(n *html.Node, inMath, inLi bool) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, sanitizeNode(c, inMath, inLi)...)
	}
	return out
}

func sanitizeNode(n *html.Node, inMath, inLi bool) []*html.Node {
	switch n.Type {
	case html.TextNode:
		return []*html.Node{htmldom.Text(n.Data)}
	case html.CommentNode:
		return []*html.Node{htmldom.Comment(n.Data)}
	case html.DocumentNode:
		return sanitizeChildren(n, inMath, inLi)
	case html.ElementNode:
	default:
		return nil
	}

	tag := strings.ToLower(n.Data)

	if inMath {
		el := &html.Node{
			Type:      html.ElementNode,
			Data:      n.Data,
			DataAtom:  n.DataAtom,
			Namespace: n.Namespace,
			Attr:      append([]html.Attribute(nil), n.Attr...),
		}
		appendAll(el, sanitizeChildren(n, true, inLi))
		return []*html.Node{el}
	}

	if DropTags[tag] {
		return nil
	}

	if tag == "span" && htmldom.HasClass(n, "katex", "katex-display") {
		if m := htmldom.FindElement(n, "math"); m != nil {
			return sanitizeNode(m, false, inLi)
		}
	}

	if tag == "math" {
		el := htmldom.Element("math", keepAttrs("math", n)...)
		el.Namespace = n.Namespace
		appendAll(el, sanitizeChildren(n, true, inLi))
		return []*html.Node{el}
	}

	nowInLi := inLi || tag == "li"
	if nowInLi && (tag == "p" || tag == "div") {
		kids := sanitizeChildren(n, false, true)
		if !endsWithSpace(kids) {
			kids = append(kids, htmldom.Text(" "))
		}
		return kids
	}

	if tag == "span" {
		if cls, ok := placeholderClass(n); ok {
			el := htmldom.Element("span", html.Attribute{Key: "class", Val: cls})
			appendAll(el, sanitizeChildren(n, false, nowInLi))
			return []*html.Node{el}
		}
	}

	if !keepTags[tag] {
		return sanitizeChildren(n, false, nowInLi)
	}

	el := htmldom.Element(tag, keepAttrs(tag, n)...)
	appendAll(el, sanitizeChildren(n, false, nowInLi))
	return []*html.Node{el}
}

// placeholderClass reports the class of a math placeholder span, which keeps
// its wrapper so markers stay inline or block.
func placeholderClass(n *html.Node) (string, bool) {
	v, _ := htmldom.Attr(n, "class")
	switch v = strings.TrimSpace(v); v {
	case "cof-math-inline", "cof-math-block":
		return v, true
	}
	return "", false
}

func keepAttrs(tag string, n *html.Node) []html.Attribute {
	var names []string
	switch tag {
	case "a":
		var out []html.Attribute
		if v, ok := htmldom.Attr(n, "href"); ok {
			if h, ok := htmldom.SanitizeHref(v); ok {
				out = append(out, html.Attribute{Key: "href", Val: h})
			}
		}
		if v, ok := htmldom.Attr(n, "title"); ok {
			out = append(out, html.Attribute{Key: "title", Val: v})
		}
		return out
	case "img":
		names = []string{"src", "alt", "title", "width", "height"}
	case "td", "th":
		names = []string{"colspan", "rowspan"}
	case "math":
		names = []string{"xmlns", "display"}
	default:
		return nil
	}
	var out []html.Attribute
	for _, k := range names {
		if v, ok := htmldom.Attr(n, k); ok {
			out = append(out, html.Attribute{Key: k, Val: v})
		}
	}
	return out
}

func endsWithSpace(nodes []*html.Node) bool {
	if len(nodes) == 0 {
		return false
	}
	last := nodes[len(nodes)-1]
	if last.Type != html.TextNode || last.Data == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(last.Data)
	return unicode.IsSpace(r)
}

func appendAll(parent *html.Node, kids []*html.Node) {
	for _, k := range kids {
		parent.AppendChild(k)
	}
}
