package mathph

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/officemath/internal/htmldom"
	"github.com/dgallion1/officemath/internal/texmath"
	"golang.org/x/net/html"
)

// piece is either a literal run of text or a math span.
type piece struct {
	text    string
	math    bool
	display bool
}

var pairedDelims = []struct {
	open, close string
	display     bool
}{
	{"$$", "$$", true},
	{`\[`, `\]`, true},
	{`\(`, `\)`, false},
}

// scanTextMath splits text into literal runs and math spans. Delimiters are
// tried in order $$, \[, \( and $ at every position; the first complete match
// wins and matches never overlap.
func scanTextMath(text string) []piece {
	var out []piece
	last, i := 0, 0
	literal := func(end int) {
		if end > last {
			out = append(out, piece{text: text[last:end]})
		}
	}

outer:
	for i < len(text) {
		for _, d := range pairedDelims {
			if !strings.HasPrefix(text[i:], d.open) {
				continue
			}
			rel := strings.Index(text[i+len(d.open):], d.close)
			if rel < 0 {
				continue
			}
			inner := text[i+len(d.open) : i+len(d.open)+rel]
			next := i + len(d.open) + rel + len(d.close)
			if latex, ok := cleanLatex(inner); ok {
				literal(i)
				out = append(out, piece{text: latex, math: true, display: d.display})
				last = next
			}
			// Blank spans stay in the pending literal run.
			i = next
			continue outer
		}

		if text[i] == '$' && !escapedAt(text, i) {
			if latex, next, ok := inlineDollar(text, i); ok {
				literal(i)
				out = append(out, piece{text: latex, math: true})
				i, last = next, next
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	literal(len(text))
	return out
}

// inlineDollar matches a single-dollar span opening at i. "$$" never opens
// one, and neither does a "$" that looks like a price.
func inlineDollar(text string, i int) (string, int, bool) {
	if strings.HasPrefix(text[i:], "$$") {
		return "", 0, false
	}
	k := i + 1
	for k < len(text) && !isASCIISpace(text[k]) && text[k] != '$' {
		k++
	}
	if k > i+1 && k < len(text) && isASCIISpace(text[k]) && currencyLike(text[i+1:k]) {
		return "", 0, false
	}

	j := i + 1
	for j < len(text) && (text[j] != '$' || escapedAt(text, j)) {
		j++
	}
	if j >= len(text) {
		return "", 0, false
	}
	inner := text[i+1 : j]
	if currencyLike(inner) {
		return "", 0, false
	}
	latex, ok := cleanLatex(inner)
	if !ok {
		return "", 0, false
	}
	return latex, j + 1, true
}

func cleanLatex(inner string) (string, bool) {
	latex := texmath.NormalizeLatex(texmath.DecodeEntities(strings.TrimSpace(inner)))
	if strings.TrimSpace(latex) == "" {
		return "", false
	}
	return latex, true
}

func escapedAt(text string, i int) bool {
	return i > 0 && text[i-1] == '\\'
}

// currencyLike reports whether s is blank or made only of digits, commas and
// periods, as in "$100" or "$1,000.50".
func currencyLike(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		if (r < '0' || r > '9') && r != ',' && r != '.' {
			return false
		}
	}
	return true
}

func isASCIISpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

// InjectTextMath replaces delimited LaTeX in text nodes with placeholders.
// Text inside code, pre and MathML is not scanned. Job ids start at startID
// so the result can follow the jobs of ReplaceDataMath.
func InjectTextMath(src string, startID int) (string, []TexJob, error) {
	jobs := jobList{base: startID}
	out, err := injectTextMath(src, &jobs)
	return out, jobs.jobs, err
}

func injectTextMath(src string, jobs *jobList) (string, error) {
	doc, err := htmldom.Parse(src)
	if err != nil {
		return "", err
	}
	for _, n := range htmldom.BodyChildren(doc) {
		walkTextMath(n, jobs)
	}
	return htmldom.Render(htmldom.BodyChildren(doc))
}

func walkTextMath(n *html.Node, jobs *jobList) {
	switch n.Type {
	case html.TextNode:
		pieces := scanTextMath(n.Data)
		if !hasMath(pieces) {
			return
		}
		repl := make([]*html.Node, 0, len(pieces))
		for _, p := range pieces {
			if !p.math {
				repl = append(repl, htmldom.Text(p.text))
				continue
			}
			id := jobs.add(p.text, p.display)
			repl = append(repl, placeholderNode(id, p.display))
		}
		htmldom.Replace(n, repl...)
	case html.ElementNode:
		switch strings.ToLower(n.Data) {
		case "code", "pre", "math", "script", "style", "textarea":
			return
		}
		for _, c := range htmldom.Children(n) {
			walkTextMath(c, jobs)
		}
	}
}

func hasMath(pieces []piece) bool {
	for _, p := range pieces {
		if p.math {
			return true
		}
	}
	return false
}
