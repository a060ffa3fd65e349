// Package doctree holds the structural document model that sits between
// parsed HTML and WordprocessingML: paragraphs of styled segments, list
// membership and tables.
package doctree

import (
	"strings"
	"unicode"
)

// RunStyle is the run formatting in effect when a segment was emitted.
type RunStyle struct {
	Bold   bool
	Italic bool
	Code   bool
}

// SegmentKind tells the variants of Segment apart.
type SegmentKind int

const (
	SegText SegmentKind = iota
	SegLink
	SegBreak
	SegOMML
)

// Segment is one inline content unit of a paragraph.
type Segment struct {
	Kind  SegmentKind
	Text  string // text for SegText and SegLink, raw XML for SegOMML
	Style RunStyle
	Href  string // SegLink only
}

// Mergeable reports whether s and o are link text for the same target with
// the same formatting.
func (s Segment) Mergeable(o Segment) bool {
	return s.Kind == SegLink && o.Kind == SegLink && s.Href == o.Href && s.Style == o.Style
}

// ParagraphStyle selects the Word paragraph style.
type ParagraphStyle int

const (
	Normal ParagraphStyle = iota
	Heading1
	Heading2
	CodeBlock
)

// StyleID returns the style id used in styles.xml.
func (s ParagraphStyle) StyleID() string {
	switch s {
	case Heading1:
		return "Heading1"
	case Heading2:
		return "Heading2"
	case CodeBlock:
		return "CodeBlock"
	default:
		return "Normal"
	}
}

// Numbering definitions written to numbering.xml.
const (
	NumBullet  = 1
	NumDecimal = 2
)

// MaxIlvl is the deepest list level numbering.xml defines. Deeper lists
// stay at this level.
const MaxIlvl = 8

// ListInfo places a paragraph in a list.
type ListInfo struct {
	NumID int
	Ilvl  int
}

type Paragraph struct {
	Style    ParagraphStyle
	List     *ListInfo
	Segments []Segment
}

// HasContent reports whether the paragraph would show anything: non-blank
// text, a line break or math.
func (p *Paragraph) HasContent() bool {
	for _, s := range p.Segments {
		switch s.Kind {
		case SegBreak, SegOMML:
			return true
		default:
			if strings.TrimFunc(s.Text, unicode.IsSpace) != "" {
				return true
			}
		}
	}
	return false
}

// Text concatenates the text of the paragraph's text and link segments.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, s := range p.Segments {
		if s.Kind == SegText || s.Kind == SegLink {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

type TableCell struct {
	Paragraphs []*Paragraph
}

type TableRow struct {
	Cells []*TableCell
}

type Table struct {
	Rows []*TableRow
}

// Columns returns the widest row's cell count.
func (t *Table) Columns() int {
	n := 0
	for _, r := range t.Rows {
		if len(r.Cells) > n {
			n = len(r.Cells)
		}
	}
	return n
}

// Block is either a paragraph or a table; exactly one field is set.
type Block struct {
	Paragraph *Paragraph
	Table     *Table
}

// UsesNumbering reports whether any paragraph, including those inside
// tables, belongs to a list.
func UsesNumbering(blocks []Block) bool {
	for _, b := range blocks {
		for _, p := range b.paragraphs() {
			if p.List != nil {
				return true
			}
		}
	}
	return false
}

// Hrefs returns every hyperlink target in document order, duplicates included.
func Hrefs(blocks []Block) []string {
	var out []string
	for _, b := range blocks {
		for _, p := range b.paragraphs() {
			for _, s := range p.Segments {
				if s.Kind == SegLink {
					out = append(out, s.Href)
				}
			}
		}
	}
	return out
}

func (b Block) paragraphs() []*Paragraph {
	if b.Paragraph != nil {
		return []*Paragraph{b.Paragraph}
	}
	if b.Table == nil {
		return nil
	}
	var out []*Paragraph
	for _, r := range b.Table.Rows {
		for _, c := range r.Cells {
			out = append(out, c.Paragraphs...)
		}
	}
	return out
}
