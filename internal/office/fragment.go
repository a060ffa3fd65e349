package office

import (
	"errors"
	"strings"

	"github.com/dgallion1/officemath/internal/htmldom"
	"golang.org/x/net/html"
)

var (
	// ErrInvalidTokens means a start or end token was empty.
	ErrInvalidTokens = errors.New("fragment tokens must both be non-empty")
	// ErrStartMarkerNotFound means no comment equal to the start token exists.
	ErrStartMarkerNotFound = errors.New("start marker not found")
	// ErrEndMarkerNotFound means the end token does not follow the start token.
	ErrEndMarkerNotFound = errors.New("end marker not found")
)

// fragmentExtractor walks a parsed page in document order, tracking the open
// elements so that a capture can re-open and later close them.
type fragmentExtractor struct {
	start, end string
	stack      []*html.Node
	out        strings.Builder
	capturing  bool
	foundStart bool
	foundEnd   bool
}

// ExtractFragment returns the markup between the comments <!--start--> and
// <!--end--> of page. Elements open at the start comment are re-opened at the
// beginning of the result and closed at the end, except html, head and body.
func ExtractFragment(page, start, end string) (string, error) {
	if start == "" || end == "" {
		return "", ErrInvalidTokens
	}
	doc, err := htmldom.Parse(page)
	if err != nil {
		return "", err
	}
	x := &fragmentExtractor{start: start, end: end}
	x.walk(doc)
	if !x.foundStart {
		return "", ErrStartMarkerNotFound
	}
	if !x.foundEnd {
		return "", ErrEndMarkerNotFound
	}
	return x.out.String(), nil
}

// walk reports whether the end marker has been reached.
func (x *fragmentExtractor) walk(n *html.Node) bool {
	switch n.Type {
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if x.walk(c) {
				return true
			}
		}
	case html.TextNode:
		if x.capturing {
			x.out.WriteString(html.EscapeString(n.Data))
		}
	case html.CommentNode:
		switch {
		case !x.capturing && n.Data == x.start:
			x.capturing, x.foundStart = true, true
			for _, open := range x.stack {
				x.writeStart(open)
			}
		case x.capturing && n.Data == x.end:
			x.foundEnd = true
			for i := len(x.stack) - 1; i >= 0; i-- {
				x.writeEnd(x.stack[i])
			}
			x.capturing = false
			return true
		case x.capturing:
			x.out.WriteString("<!--" + n.Data + "-->")
		}
	case html.ElementNode:
		x.stack = append(x.stack, n)
		if x.capturing {
			x.writeStart(n)
		}
		done := false
		for c := n.FirstChild; c != nil && !done; c = c.NextSibling {
			done = x.walk(c)
		}
		// Ancestors were already closed when the end marker was seen.
		if x.capturing {
			x.writeEnd(n)
		}
		x.stack = x.stack[:len(x.stack)-1]
		return done
	}
	return false
}

func isDocumentWrapper(tag string) bool {
	switch tag {
	case "html", "head", "body":
		return true
	}
	return false
}

func (x *fragmentExtractor) writeStart(n *html.Node) {
	if isDocumentWrapper(n.Data) {
		return
	}
	tok := html.Token{Type: html.StartTagToken, Data: n.Data, Attr: n.Attr}
	x.out.WriteString(tok.String())
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

func (x *fragmentExtractor) writeEnd(n *html.Node) {
	if isDocumentWrapper(n.Data) || voidElements[n.Data] {
		return
	}
	x.out.WriteString("</" + n.Data + ">")
}
