package markdown

import (
	"fmt"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/dgallion1/officemath/internal/htmldom"
	"github.com/dgallion1/officemath/internal/texmath"
	"golang.org/x/net/html"
)

// The converter escapes Markdown syntax in text, which would mangle LaTeX,
// so math is parked behind tokens and restored after conversion.
const tokenPrefix = "COFMDMATH"

type mathSpan struct {
	tex     string
	display bool
}

// FromHTML converts HTML to Markdown. LaTeX is recovered from data-math
// attributes and from MathML x-tex annotations; MathJax containers are
// dropped and links with unusable hrefs degrade to their text.
func FromHTML(src string) (string, error) {
	doc, err := htmldom.Parse(src)
	if err != nil {
		return "", err
	}

	var spans []mathSpan
	for _, n := range htmldom.BodyChildren(doc) {
		prepareNode(n, &spans)
	}
	prepared, err := htmldom.Render(htmldom.BodyChildren(doc))
	if err != nil {
		return "", err
	}

	out, err := htmltomarkdown.ConvertString(prepared)
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}

	pairs := make([]string, 0, 2*len(spans))
	for i, s := range spans {
		repl := "$" + s.tex + "$"
		if s.display {
			repl = "$$" + s.tex + "$$"
		}
		pairs = append(pairs, token(i), repl)
	}
	out = strings.NewReplacer(pairs...).Replace(out)
	return strings.TrimSpace(strings.ReplaceAll(out, "\r\n", "\n")), nil
}

func token(i int) string {
	return tokenPrefix + strconv.Itoa(i) + "X"
}

func prepareNode(n *html.Node, spans *[]mathSpan) {
	if n.Type != html.ElementNode {
		return
	}
	tag := strings.ToLower(n.Data)

	switch {
	case tag == "mjx-container" || tag == "mjx-assistive-mml":
		htmldom.Detach(n)
		return

	case tag == "math":
		tex, display, ok := AnnotationTeX(n)
		if !ok {
			htmldom.Detach(n)
			return
		}
		htmldom.Replace(n, mathNode(spans, tex, display))
		return

	case tag == "a":
		href, _ := htmldom.Attr(n, "href")
		if _, ok := htmldom.SanitizeHref(href); !ok {
			kids := htmldom.Children(n)
			for _, c := range kids {
				prepareNode(c, spans)
			}
			htmldom.Replace(n, htmldom.Children(n)...)
			return
		}
	}

	if raw, ok := htmldom.Attr(n, "data-math"); ok {
		tex := strings.TrimSpace(texmath.DecodeEntities(raw))
		display := htmldom.ClassContains(n, "math-block")
		htmldom.Replace(n, mathNode(spans, tex, display))
		return
	}

	for _, c := range htmldom.Children(n) {
		prepareNode(c, spans)
	}
}

// mathNode records a span and returns the node that stands in for it.
// Display math gets a paragraph of its own.
func mathNode(spans *[]mathSpan, tex string, display bool) *html.Node {
	*spans = append(*spans, mathSpan{tex: tex, display: display})
	t := htmldom.Text(token(len(*spans) - 1))
	if !display {
		return t
	}
	p := htmldom.Element("p")
	p.AppendChild(t)
	return p
}

// AnnotationTeX returns the application/x-tex annotation of a MathML element
// and whether the element is display math.
func AnnotationTeX(m *html.Node) (string, bool, bool) {
	for _, a := range htmldom.FindAll(m, "annotation") {
		enc, _ := htmldom.Attr(a, "encoding")
		if !strings.EqualFold(strings.TrimSpace(enc), "application/x-tex") {
			continue
		}
		tex := strings.TrimSpace(texmath.DecodeEntities(htmldom.TextContent(a)))
		if tex == "" {
			return "", false, false
		}
		display, _ := htmldom.Attr(m, "display")
		return tex, strings.EqualFold(display, "block"), true
	}
	return "", false, false
}
