package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/officemath/internal/htmldom"
	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"
)

// DOCXParser handles .docx files by rebuilding HTML from the body: headings,
// paragraphs, bold and italic runs, hyperlinks, numbered lists and tables.
type DOCXParser struct{}

// orderedNumID is the numbering instance written for ordered lists. Other
// list paragraphs come back as bullets.
const orderedNumID = "2"

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	w := &docxWriter{links: make(map[string]string)}
	doc.RangeRelationships(func(rel *docx.Relationship) error {
		if rel.TargetMode == "External" {
			w.links[rel.ID] = rel.Target
		}
		return nil
	})

	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			w.paragraph(it)
		case *docx.Table:
			w.closeLists(0)
			w.table(it)
		}
	}
	w.closeLists(0)

	return &Document{
		Title:  stem(filename),
		Source: filename,
		Format: FormatHTML,
		Body:   w.sb.String(),
	}, nil
}

type docxWriter struct {
	sb    strings.Builder
	links map[string]string
	lists []string
}

func (w *docxWriter) paragraph(para *docx.Paragraph) {
	content := w.inline(para)

	if numID, ilvl, ok := docxListInfo(para); ok {
		tag := "ul"
		if numID == orderedNumID {
			tag = "ol"
		}
		w.openItem(ilvl+1, tag)
		w.sb.WriteString(content)
		return
	}
	w.closeLists(0)

	if strings.TrimSpace(content) == "" {
		return
	}
	tag := "p"
	switch style := docxStyle(para); {
	case docxHeadingLevel(style) > 0:
		tag = "h" + strconv.Itoa(docxHeadingLevel(style))
	case strings.EqualFold(style, "CodeBlock"):
		tag = "pre"
	}
	w.sb.WriteString("<" + tag + ">" + content + "</" + tag + ">\n")
}

// openItem starts a list item at depth, closing deeper lists and switching
// list type at the same depth when needed.
func (w *docxWriter) openItem(depth int, tag string) {
	w.closeLists(depth)
	if n := len(w.lists); n == depth {
		if w.lists[n-1] == tag {
			w.sb.WriteString("</li>")
		} else {
			w.closeLists(depth - 1)
		}
	}
	for len(w.lists) < depth {
		w.sb.WriteString("<" + tag + ">")
		w.lists = append(w.lists, tag)
	}
	w.sb.WriteString("<li>")
}

func (w *docxWriter) closeLists(depth int) {
	for len(w.lists) > depth {
		top := w.lists[len(w.lists)-1]
		w.lists = w.lists[:len(w.lists)-1]
		w.sb.WriteString("</li></" + top + ">")
		if len(w.lists) == 0 {
			w.sb.WriteString("\n")
		}
	}
}

func (w *docxWriter) table(tbl *docx.Table) {
	w.sb.WriteString("<table>\n")
	for _, row := range tbl.TableRows {
		w.sb.WriteString("<tr>")
		for _, cell := range row.TableCells {
			w.sb.WriteString("<td>")
			for _, para := range cell.Paragraphs {
				if content := w.inline(para); strings.TrimSpace(content) != "" {
					w.sb.WriteString("<p>" + content + "</p>")
				}
			}
			w.sb.WriteString("</td>")
		}
		w.sb.WriteString("</tr>\n")
	}
	w.sb.WriteString("</table>\n")
}

// inline renders the runs and hyperlinks of a paragraph.
func (w *docxWriter) inline(para *docx.Paragraph) string {
	var sb strings.Builder
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			sb.WriteString(docxRun(c))
		case *docx.Hyperlink:
			text := docxRun(&c.Run)
			href, ok := htmldom.SanitizeHref(w.links[c.ID])
			if !ok {
				sb.WriteString(text)
				continue
			}
			sb.WriteString(`<a href="` + html.EscapeString(href) + `">` + text + "</a>")
		}
	}
	return sb.String()
}

func docxRun(run *docx.Run) string {
	var sb strings.Builder
	for _, rc := range run.Children {
		switch t := rc.(type) {
		case *docx.Text:
			sb.WriteString(html.EscapeString(t.Text))
		case *docx.BarterRabbet:
			sb.WriteString("<br>")
		case *docx.Tab:
			sb.WriteString(" ")
		}
	}
	text := sb.String()
	if text == "" || run.RunProperties == nil {
		return text
	}
	props := run.RunProperties
	if props.Fonts != nil && monospace(props.Fonts.ASCII) {
		text = "<code>" + text + "</code>"
	}
	if props.Italic != nil {
		text = "<i>" + text + "</i>"
	}
	if props.Bold != nil {
		text = "<b>" + text + "</b>"
	}
	return text
}

func monospace(font string) bool {
	switch strings.ToLower(font) {
	case "consolas", "courier new", "courier", "menlo", "monaco":
		return true
	}
	return false
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func docxListInfo(para *docx.Paragraph) (numID string, ilvl int, ok bool) {
	if para.Properties == nil || para.Properties.NumProperties == nil {
		return "", 0, false
	}
	np := para.Properties.NumProperties
	if np.NumID == nil || np.NumID.Val == "" || np.NumID.Val == "0" {
		return "", 0, false
	}
	if np.Ilvl != nil {
		ilvl, _ = strconv.Atoi(np.Ilvl.Val)
	}
	return np.NumID.Val, min(max(ilvl, 0), 8), true
}

func docxHeadingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	if !strings.HasPrefix(s, "heading") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "heading"))
	if err != nil || n < 1 {
		return 0
	}
	return min(n, 6)
}
