package mathrender

import (
	"context"
	"strings"
)

// OMMLRenderer converts LaTeX straight to Office Math Markup, for documents
// written without a MathML step. The result is wrapped in the conditional
// comment Office uses for equations, which is how the block builder
// recognises it.
type OMMLRenderer struct{}

func (OMMLRenderer) Render(ctx context.Context, latex string, display bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	omml, err := LatexToOMML(latex, display)
	if err != nil {
		return "", err
	}
	return "<!--[if gte msEquation 12]>" + omml + "<![endif]-->", nil
}

// LatexToOMML converts latex to an m:oMath element, or m:oMathPara for
// display math.
func LatexToOMML(latex string, display bool) (string, error) {
	nodes, err := parseTeX(latex)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if display {
		b.WriteString("<m:oMathPara>")
	}
	b.WriteString("<m:oMath>")
	writeAll(&b, nodes)
	b.WriteString("</m:oMath>")
	if display {
		b.WriteString("</m:oMathPara>")
	}
	return b.String(), nil
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

func writeAll(b *strings.Builder, nodes []mnode) {
	for _, n := range nodes {
		if n != nil {
			n.writeOMML(b)
		}
	}
}

// wrap writes <m:tag>nodes</m:tag>.
func wrap(b *strings.Builder, tag string, nodes []mnode) {
	b.WriteString("<m:" + tag + ">")
	writeAll(b, nodes)
	b.WriteString("</m:" + tag + ">")
}

func val(tag, v string) string {
	return `<m:` + tag + ` m:val="` + xmlEscaper.Replace(v) + `"/>`
}

func (r *mrun) writeOMML(b *strings.Builder) {
	if r.text == "" {
		return
	}
	b.WriteString("<m:r>")
	if r.sty != "" || r.scr != "" {
		b.WriteString("<m:rPr>")
		if r.scr != "" {
			b.WriteString(val("scr", r.scr))
		}
		if r.sty != "" {
			b.WriteString(val("sty", r.sty))
		}
		b.WriteString("</m:rPr>")
	}
	b.WriteString(`<m:t xml:space="preserve">`)
	b.WriteString(xmlEscaper.Replace(r.text))
	b.WriteString("</m:t></m:r>")
}

func (g *mgroup) writeOMML(b *strings.Builder) {
	writeAll(b, g.body)
}

func (f *mfrac) writeOMML(b *strings.Builder) {
	b.WriteString("<m:f>")
	if f.noBar {
		b.WriteString("<m:fPr>" + val("type", "noBar") + "</m:fPr>")
	}
	wrap(b, "num", f.num)
	wrap(b, "den", f.den)
	b.WriteString("</m:f>")
}

func (r *mrad) writeOMML(b *strings.Builder) {
	b.WriteString("<m:rad>")
	if len(r.deg) == 0 {
		b.WriteString("<m:radPr>" + val("degHide", "1") + "</m:radPr><m:deg/>")
	} else {
		wrap(b, "deg", r.deg)
	}
	wrap(b, "e", r.body)
	b.WriteString("</m:rad>")
}

func (s *mscript) writeOMML(b *strings.Builder) {
	base := []mnode{s.base}
	switch {
	case len(s.sub) > 0 && len(s.sup) > 0:
		b.WriteString("<m:sSubSup>")
		wrap(b, "e", base)
		wrap(b, "sub", s.sub)
		wrap(b, "sup", s.sup)
		b.WriteString("</m:sSubSup>")
	case len(s.sub) > 0:
		b.WriteString("<m:sSub>")
		wrap(b, "e", base)
		wrap(b, "sub", s.sub)
		b.WriteString("</m:sSub>")
	case len(s.sup) > 0:
		b.WriteString("<m:sSup>")
		wrap(b, "e", base)
		wrap(b, "sup", s.sup)
		b.WriteString("</m:sSup>")
	default:
		writeAll(b, base)
	}
}

func (d *mdelim) writeOMML(b *strings.Builder) {
	b.WriteString("<m:d><m:dPr>")
	b.WriteString(val("begChr", d.open))
	b.WriteString(val("endChr", d.close))
	b.WriteString("</m:dPr>")
	wrap(b, "e", d.body)
	b.WriteString("</m:d>")
}

func (n *mnary) writeOMML(b *strings.Builder) {
	b.WriteString("<m:nary><m:naryPr>")
	b.WriteString(val("chr", n.chr))
	if n.undOvr {
		b.WriteString(val("limLoc", "undOvr"))
	} else {
		b.WriteString(val("limLoc", "subSup"))
	}
	if len(n.sub) == 0 {
		b.WriteString(val("subHide", "1"))
	}
	if len(n.sup) == 0 {
		b.WriteString(val("supHide", "1"))
	}
	b.WriteString("</m:naryPr>")
	wrap(b, "sub", n.sub)
	wrap(b, "sup", n.sup)
	wrap(b, "e", n.body)
	b.WriteString("</m:nary>")
}

func (a *macc) writeOMML(b *strings.Builder) {
	b.WriteString("<m:acc><m:accPr>" + val("chr", a.chr) + "</m:accPr>")
	wrap(b, "e", a.body)
	b.WriteString("</m:acc>")
}

func (r *mbar) writeOMML(b *strings.Builder) {
	pos := "bot"
	if r.top {
		pos = "top"
	}
	b.WriteString("<m:bar><m:barPr>" + val("pos", pos) + "</m:barPr>")
	wrap(b, "e", r.body)
	b.WriteString("</m:bar>")
}

func (m *mmatrix) writeOMML(b *strings.Builder) {
	b.WriteString("<m:m>")
	for _, row := range m.rows {
		b.WriteString("<m:mr>")
		for _, cell := range row {
			wrap(b, "e", cell)
		}
		b.WriteString("</m:mr>")
	}
	b.WriteString("</m:m>")
}

func (e *meqarr) writeOMML(b *strings.Builder) {
	b.WriteString("<m:eqArr>")
	for _, row := range e.rows {
		wrap(b, "e", row)
	}
	b.WriteString("</m:eqArr>")
}
