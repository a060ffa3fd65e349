package mathph

import (
	"strings"

	"github.com/dgallion1/officemath/internal/htmldom"
	"github.com/dgallion1/officemath/internal/markdown"
	"github.com/dgallion1/officemath/internal/sanitize"
	"github.com/dgallion1/officemath/internal/texmath"
	"golang.org/x/net/html"
)

var blockMathTags = map[string]bool{
	"div": true, "p": true, "li": true, "section": true,
	"article": true, "td": true, "th": true,
}

// ReplaceDataMath replaces every element carrying a data-math attribute with
// a placeholder and returns the rewritten body. Elements inside content the
// sanitizer drops, or inside MathML, are left alone so that no job is created
// for a placeholder that could never survive.
func ReplaceDataMath(src string) (string, []TexJob, error) {
	var jobs jobList
	out, err := replaceDataMath(src, &jobs, false)
	return out, jobs.jobs, err
}

// replaceDataMath runs the data-math pass. With annotated set, rendered
// MathML that still carries its TeX annotation (KaTeX, MathML with an
// application/x-tex annotation) becomes a job too.
func replaceDataMath(src string, jobs *jobList, annotated bool) (string, error) {
	doc, err := htmldom.Parse(src)
	if err != nil {
		return "", err
	}
	body := htmldom.BodyChildren(doc)
	for _, n := range body {
		walkDataMath(n, jobs, annotated)
	}
	// Top-level elements may themselves have been replaced.
	return htmldom.Render(htmldom.BodyChildren(doc))
}

func walkDataMath(n *html.Node, jobs *jobList, annotated bool) {
	if n.Type != html.ElementNode {
		return
	}
	tag := strings.ToLower(n.Data)
	if sanitize.DropTags[tag] {
		return
	}
	if annotated {
		if latex, display, ok := annotatedMath(tag, n); ok {
			id := jobs.add(texmath.NormalizeLatex(latex), display)
			htmldom.Replace(n, placeholderNode(id, display))
			return
		}
	}
	if tag == "math" {
		return
	}
	if raw, ok := htmldom.Attr(n, "data-math"); ok {
		latex := texmath.NormalizeLatex(strings.TrimSpace(texmath.DecodeEntities(raw)))
		display := isBlockMath(tag, n)
		id := jobs.add(latex, display)
		htmldom.Replace(n, placeholderNode(id, display))
		return
	}
	for _, c := range htmldom.Children(n) {
		walkDataMath(c, jobs, annotated)
	}
}

// annotatedMath recovers the TeX behind a math element or a KaTeX wrapper.
// The wrapper is replaced whole so its visual copy of the formula goes too.
func annotatedMath(tag string, n *html.Node) (string, bool, bool) {
	var m *html.Node
	switch {
	case tag == "math":
		m = n
	case tag == "span" && htmldom.HasClass(n, "katex", "katex-display"):
		m = htmldom.FindElement(n, "math")
	}
	if m == nil {
		return "", false, false
	}
	latex, display, ok := markdown.AnnotationTeX(m)
	if !ok {
		return "", false, false
	}
	return latex, display || htmldom.HasClass(n, "katex-display"), true
}

func isBlockMath(tag string, n *html.Node) bool {
	if blockMathTags[tag] {
		return true
	}
	return htmldom.ClassContains(n, "math-block") || htmldom.ClassContains(n, "katex-display")
}
