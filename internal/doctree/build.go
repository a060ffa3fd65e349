package doctree

import (
	"strings"

	"github.com/dgallion1/officemath/internal/htmldom"
	"golang.org/x/net/html"
)

// tagKind is the builder's classification of an element, resolved once per
// element.
type tagKind int

const (
	tagInline tagKind = iota // recurse without effect
	tagHeading1
	tagHeading2
	tagParagraph
	tagPre
	tagBreak
	tagRule
	tagBulletList
	tagOrderedList
	tagItem
	tagLink
	tagCode
	tagBold
	tagItalic
	tagTable
	tagSkip
)

func classify(tag string) tagKind {
	switch strings.ToLower(tag) {
	case "h1":
		return tagHeading1
	case "h2", "h3":
		return tagHeading2
	case "p", "div", "h4", "h5", "h6", "user-query-content", "message-content":
		return tagParagraph
	case "pre":
		return tagPre
	case "br":
		return tagBreak
	case "hr":
		return tagRule
	case "ul":
		return tagBulletList
	case "ol":
		return tagOrderedList
	case "li":
		return tagItem
	case "a":
		return tagLink
	case "code":
		return tagCode
	case "b", "strong":
		return tagBold
	case "i", "em":
		return tagItalic
	case "table":
		return tagTable
	case "math", "annotation", "script", "style", "head", "title", "noscript", "template", "svg":
		return tagSkip
	}
	return tagInline
}

// builder walks a DOM into blocks. Formatting is tracked with depth counters
// so malformed or overlapping nesting still balances.
type builder struct {
	allowTables bool

	blocks []Block
	cur    *Paragraph

	bold, italic, code, pre int

	lists []int       // numbering id per open ul/ol
	items []*ListInfo // open li elements
	links []string    // "" for an <a> without a usable href
}

// BuildBlocks converts nodes into blocks. Tables are only recognised when
// allowTables is set; cells are built with it cleared.
func BuildBlocks(nodes []*html.Node, allowTables bool) []Block {
	b := &builder{allowTables: allowTables}
	for _, n := range nodes {
		b.walk(n)
	}
	b.flush()
	return b.blocks
}

// ParseBlocks parses src and builds the blocks of its body.
func ParseBlocks(src string) ([]Block, error) {
	nodes, err := htmldom.ParseBody(src)
	if err != nil {
		return nil, err
	}
	return BuildBlocks(nodes, true), nil
}

func (b *builder) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.text(n.Data)
		return
	case html.CommentNode:
		if xml, ok := ExtractOMML(n.Data); ok {
			b.emit(Segment{Kind: SegOMML, Text: xml})
		}
		return
	case html.DocumentNode:
		b.walkChildren(n)
		return
	case html.ElementNode:
	default:
		return
	}

	switch classify(n.Data) {
	case tagSkip:
	case tagHeading1:
		b.block(n, Heading1)
	case tagHeading2:
		b.block(n, Heading2)
	case tagParagraph:
		b.block(n, Normal)
	case tagPre:
		b.flush()
		b.open(CodeBlock)
		b.pre++
		b.code++
		b.walkChildren(n)
		b.code--
		b.pre--
		b.flush()
	case tagBreak:
		b.emit(Segment{Kind: SegBreak})
	case tagRule:
		b.flush()
	case tagBulletList:
		b.lists = append(b.lists, NumBullet)
		b.walkChildren(n)
		b.lists = b.lists[:len(b.lists)-1]
	case tagOrderedList:
		b.lists = append(b.lists, NumDecimal)
		b.walkChildren(n)
		b.lists = b.lists[:len(b.lists)-1]
	case tagItem:
		info := &ListInfo{NumID: NumBullet}
		if len(b.lists) > 0 {
			info.NumID = b.lists[len(b.lists)-1]
			info.Ilvl = min(len(b.lists)-1, MaxIlvl)
		}
		b.items = append(b.items, info)
		b.flush()
		b.open(Normal)
		b.walkChildren(n)
		b.flush()
		b.items = b.items[:len(b.items)-1]
	case tagLink:
		href, _ := htmldom.Attr(n, "href")
		href, _ = htmldom.SanitizeHref(href)
		b.links = append(b.links, href)
		b.walkChildren(n)
		b.links = b.links[:len(b.links)-1]
	case tagCode:
		b.code++
		b.walkChildren(n)
		b.code--
	case tagBold:
		b.bold++
		b.walkChildren(n)
		b.bold--
	case tagItalic:
		b.italic++
		b.walkChildren(n)
		b.italic--
	case tagTable:
		if !b.allowTables {
			b.walkChildren(n)
			return
		}
		b.flush()
		b.blocks = append(b.blocks, Block{Table: buildTable(n)})
	default:
		b.walkChildren(n)
	}
}

func (b *builder) walkChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
	}
}

// block handles a paragraph boundary element.
func (b *builder) block(n *html.Node, style ParagraphStyle) {
	b.flush()
	b.open(style)
	b.walkChildren(n)
	b.flush()
}

// open starts a paragraph carrying the innermost list item, if any.
func (b *builder) open(style ParagraphStyle) {
	p := &Paragraph{Style: style}
	if len(b.items) > 0 {
		info := *b.items[len(b.items)-1]
		p.List = &info
	}
	b.cur = p
}

// flush closes the current paragraph, dropping it when it shows nothing.
func (b *builder) flush() {
	p := b.cur
	b.cur = nil
	if p == nil || !p.HasContent() {
		return
	}
	if p.Style != CodeBlock {
		trimTrailingSpace(p)
	}
	b.blocks = append(b.blocks, Block{Paragraph: p})
}

func (b *builder) style() RunStyle {
	return RunStyle{Bold: b.bold > 0, Italic: b.italic > 0, Code: b.code > 0}
}

func (b *builder) emit(s Segment) {
	if b.cur == nil {
		b.open(Normal)
	}
	b.cur.Segments = append(b.cur.Segments, s)
}

func (b *builder) emitText(text string) {
	s := Segment{Kind: SegText, Text: text, Style: b.style()}
	if len(b.links) > 0 && b.links[len(b.links)-1] != "" {
		s.Kind = SegLink
		s.Href = b.links[len(b.links)-1]
	}
	b.emit(s)
}

func (b *builder) text(data string) {
	if b.pre > 0 {
		data = strings.ReplaceAll(data, "\r\n", "\n")
		for i, line := range strings.Split(data, "\n") {
			if i > 0 {
				b.emit(Segment{Kind: SegBreak})
			}
			if line != "" {
				b.emitText(line)
			}
		}
		return
	}

	text := collapseSpace(data)
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "<![if") || strings.HasPrefix(trimmed, "<![endif") {
		return
	}
	if b.cur == nil || len(b.cur.Segments) == 0 {
		text = strings.TrimLeft(text, " ")
	}
	if text == "" {
		return
	}
	b.emitText(text)
}

// collapseSpace replaces each run of HTML whitespace with a single space.
func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
			}
			space = true
		default:
			sb.WriteRune(r)
			space = false
		}
	}
	return sb.String()
}

func trimTrailingSpace(p *Paragraph) {
	for i := len(p.Segments) - 1; i >= 0; i-- {
		s := &p.Segments[i]
		if s.Kind != SegText && s.Kind != SegLink {
			return
		}
		s.Text = strings.TrimRight(s.Text, " ")
		if s.Text != "" {
			return
		}
		p.Segments = p.Segments[:i]
	}
}

// buildTable collects the rows of table without descending into nested
// tables, so a missing tbody is tolerated.
func buildTable(table *html.Node) *Table {
	t := &Table{}
	var rows func(n *html.Node)
	rows = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch strings.ToLower(c.Data) {
			case "tr":
				t.Rows = append(t.Rows, buildRow(c))
			case "table":
			default:
				rows(c)
			}
		}
	}
	rows(table)
	return t
}

func buildRow(tr *html.Node) *TableRow {
	row := &TableRow{}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		tag := strings.ToLower(c.Data)
		if tag != "td" && tag != "th" {
			continue
		}
		cb := &builder{}
		if tag == "th" {
			cb.bold = 1
		}
		cb.walkChildren(c)
		cb.flush()

		cell := &TableCell{}
		for _, blk := range cb.blocks {
			if blk.Paragraph != nil {
				cell.Paragraphs = append(cell.Paragraphs, blk.Paragraph)
			}
		}
		if len(cell.Paragraphs) == 0 {
			cell.Paragraphs = []*Paragraph{{Style: Normal}}
		}
		row.Cells = append(row.Cells, cell)
	}
	return row
}
