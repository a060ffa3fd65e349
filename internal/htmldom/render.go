package htmldom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Render serializes nodes in order. Comments are written verbatim, so
// conditional comments and placeholder markers round-trip unchanged.
func Render(nodes []*html.Node) (string, error) {
	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return restoreComments(b.String()), nil
}

// restoreComments undoes the escaping html.Render applies to comment data.
func restoreComments(s string) string {
	if !strings.Contains(s, "<!--") || !strings.Contains(s, "&") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return b.String()
		}
		if tt == html.CommentToken {
			b.WriteString("<!--")
			b.Write(z.Text())
			b.WriteString("-->")
			continue
		}
		b.Write(z.Raw())
	}
}

// Element builds a detached element node.
func Element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// Text builds a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Comment builds a detached comment node.
func Comment(s string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: s}
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) *html.Node {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	return n
}

// Replace puts repl where old was and detaches old.
func Replace(old *html.Node, repl ...*html.Node) {
	parent := old.Parent
	if parent == nil {
		return
	}
	for _, r := range repl {
		parent.InsertBefore(Detach(r), old)
	}
	parent.RemoveChild(old)
}
