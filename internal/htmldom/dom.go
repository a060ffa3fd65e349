// Package htmldom wraps golang.org/x/net/html with the handful of helpers the
// conversion passes share: fragment-tolerant parsing, body lookup, attribute
// access, href sanitizing and rendering back to markup.
package htmldom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

const fragmentPrefix = `<!doctype html><html><head><meta charset="utf-8"></head><body>`
const fragmentSuffix = `</body></html>`

// Parse parses a full document or a body fragment. Fragments are wrapped in a
// minimal document first so that leading comments land inside <body>.
// Comment data is kept exactly as written, entity references included.
func Parse(src string) (*html.Node, error) {
	if !strings.Contains(strings.ToLower(src), "<html") {
		src = fragmentPrefix + src + fragmentSuffix
	}
	doc, err := html.Parse(strings.NewReader(protectComments(src)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// protectComments escapes ampersands inside comments so the parser's entity
// decoding gives back the comment text as written. OMML carried in
// conditional comments relies on its &lt; and &amp; surviving.
func protectComments(src string) string {
	if !strings.Contains(src, "<!") || !strings.Contains(src, "&") {
		return src
	}
	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	b.Grow(len(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return b.String()
		}
		raw := z.Raw()
		if tt == html.CommentToken {
			b.WriteString(strings.ReplaceAll(string(raw), "&", "&amp;"))
			continue
		}
		b.Write(raw)
	}
}

// ParseBody parses src and returns the children of its <body>.
func ParseBody(src string) ([]*html.Node, error) {
	doc, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return BodyChildren(doc), nil
}

// BodyChildren returns the children of the first <body> element, or of the
// document itself when there is none.
func BodyChildren(doc *html.Node) []*html.Node {
	parent := FindElement(doc, "body")
	if parent == nil {
		parent = doc
	}
	return Children(parent)
}

// Children returns a snapshot of n's children. Callers may re-parent the
// returned nodes while iterating.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// FindElement returns the first element named tag in document order.
func FindElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// FindAll appends every descendant element named tag, including n itself.
func FindAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// Attr returns the value of the named attribute.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// HasClass reports whether the class attribute of n contains one of names,
// compared case-insensitively.
func HasClass(n *html.Node, names ...string) bool {
	class, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(strings.ToLower(class)) {
		for _, name := range names {
			if c == name {
				return true
			}
		}
	}
	return false
}

// ClassContains reports whether the raw class attribute contains sub.
func ClassContains(n *html.Node, sub string) bool {
	class, _ := Attr(n, "class")
	return strings.Contains(strings.ToLower(class), sub)
}

// TextContent concatenates every text node below n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// SanitizeHref trims href and rejects empty values and script-bearing
// schemes.
func SanitizeHref(href string) (string, bool) {
	h := strings.TrimSpace(href)
	if h == "" {
		return "", false
	}
	low := strings.ToLower(h)
	for _, scheme := range []string{"javascript:", "data:", "vbscript:"} {
		if strings.HasPrefix(low, scheme) {
			return "", false
		}
	}
	return h, true
}
