// Package ooxml renders the document model as WordprocessingML and writes
// the parts of a .docx package.
package ooxml

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/officemath/internal/doctree"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const documentOpen = `<w:document` +
	` xmlns:wpc="http://schemas.microsoft.com/office/word/2010/wordprocessingCanvas"` +
	` xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"` +
	` xmlns:o="urn:schemas-microsoft-com:office:office"` +
	` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
	` xmlns:m="http://schemas.openxmlformats.org/officeDocument/2006/math"` +
	` xmlns:v="urn:schemas-microsoft-com:vml"` +
	` xmlns:wp14="http://schemas.microsoft.com/office/word/2010/wordprocessingDrawing"` +
	` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"` +
	` xmlns:w10="urn:schemas-microsoft-com:office:word"` +
	` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
	` xmlns:w14="http://schemas.microsoft.com/office/word/2010/wordprocessingml"` +
	` xmlns:w15="http://schemas.microsoft.com/office/word/2012/wordprocessingml"` +
	` xmlns:wpg="http://schemas.microsoft.com/office/word/2010/wordprocessingGroup"` +
	` xmlns:wpi="http://schemas.microsoft.com/office/word/2010/wordprocessingInk"` +
	` xmlns:wne="http://schemas.microsoft.com/office/word/2006/wordml"` +
	` xmlns:wps="http://schemas.microsoft.com/office/word/2010/wordprocessingShape"` +
	` mc:Ignorable="w14 w15 wp14">`

// US Letter, one inch margins.
const sectionProperties = `<w:sectPr>` +
	`<w:pgSz w:w="12240" w:h="15840"/>` +
	`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/>` +
	`<w:cols w:space="708"/>` +
	`<w:docGrid w:linePitch="360"/>` +
	`</w:sectPr>`

const tableProperties = `<w:tblPr>` +
	`<w:tblW w:w="0" w:type="auto"/>` +
	`<w:tblBorders>` +
	`<w:top w:val="single" w:sz="4" w:space="0" w:color="D9D9D9"/>` +
	`<w:left w:val="single" w:sz="4" w:space="0" w:color="D9D9D9"/>` +
	`<w:bottom w:val="single" w:sz="4" w:space="0" w:color="D9D9D9"/>` +
	`<w:right w:val="single" w:sz="4" w:space="0" w:color="D9D9D9"/>` +
	`<w:insideH w:val="single" w:sz="4" w:space="0" w:color="D9D9D9"/>` +
	`<w:insideV w:val="single" w:sz="4" w:space="0" w:color="D9D9D9"/>` +
	`</w:tblBorders>` +
	`<w:tblLayout w:type="autofit"/>` +
	`<w:tblLook w:val="04A0" w:firstRow="1" w:lastRow="0" w:firstColumn="1" w:lastColumn="0" w:noHBand="0" w:noVBand="1"/>` +
	`</w:tblPr>`

const codeFont = "Consolas"

// RenderDocument renders blocks as word/document.xml. rels maps hyperlink
// targets to relationship ids; links without an id become plain runs.
func RenderDocument(blocks []doctree.Block, rels map[string]string) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(documentOpen)
	b.WriteString(`<w:body>`)
	for _, blk := range blocks {
		switch {
		case blk.Paragraph != nil:
			writeParagraph(&b, blk.Paragraph, rels)
		case blk.Table != nil:
			writeTable(&b, blk.Table, rels)
		}
	}
	b.WriteString(sectionProperties)
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func writeParagraph(b *strings.Builder, p *doctree.Paragraph, rels map[string]string) {
	b.WriteString(`<w:p>`)
	if p.Style != doctree.Normal || p.List != nil {
		b.WriteString(`<w:pPr>`)
		if p.Style != doctree.Normal {
			b.WriteString(`<w:pStyle w:val="` + p.Style.StyleID() + `"/>`)
		}
		if p.List != nil {
			b.WriteString(`<w:numPr><w:ilvl w:val="` + strconv.Itoa(p.List.Ilvl) + `"/><w:numId w:val="` + strconv.Itoa(p.List.NumID) + `"/></w:numPr>`)
		}
		b.WriteString(`</w:pPr>`)
	}

	// Consecutive link segments with the same target and style are buffered
	// and written as one run.
	var pending *doctree.Segment
	flush := func() {
		if pending == nil {
			return
		}
		if id, ok := rels[pending.Href]; ok {
			b.WriteString(`<w:hyperlink r:id="` + id + `" w:history="1">`)
			writeRun(b, pending.Text, pending.Style, true)
			b.WriteString(`</w:hyperlink>`)
		} else {
			writeRun(b, pending.Text, pending.Style, false)
		}
		pending = nil
	}

	for _, s := range p.Segments {
		if s.Kind == doctree.SegLink {
			if pending != nil && pending.Mergeable(s) {
				pending.Text += s.Text
				continue
			}
			flush()
			seg := s
			pending = &seg
			continue
		}
		flush()
		switch s.Kind {
		case doctree.SegText:
			writeRun(b, s.Text, s.Style, false)
		case doctree.SegBreak:
			b.WriteString(`<w:r><w:br/></w:r>`)
		case doctree.SegOMML:
			b.WriteString(s.Text)
		}
	}
	flush()
	b.WriteString(`</w:p>`)
}

func writeRun(b *strings.Builder, text string, style doctree.RunStyle, hyperlink bool) {
	if text == "" {
		return
	}
	b.WriteString(`<w:r>`)
	if hyperlink || style.Code || style.Bold || style.Italic {
		b.WriteString(`<w:rPr>`)
		if hyperlink {
			b.WriteString(`<w:rStyle w:val="Hyperlink"/>`)
		}
		if style.Code {
			b.WriteString(`<w:rFonts w:ascii="` + codeFont + `" w:hAnsi="` + codeFont + `" w:cs="` + codeFont + `"/>`)
		}
		if style.Bold {
			b.WriteString(`<w:b/>`)
		}
		if style.Italic {
			b.WriteString(`<w:i/>`)
		}
		b.WriteString(`</w:rPr>`)
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	b.WriteString(escapeText(text))
	b.WriteString(`</w:t></w:r>`)
}

func writeTable(b *strings.Builder, t *doctree.Table, rels map[string]string) {
	cols := t.Columns()
	b.WriteString(`<w:tbl>`)
	b.WriteString(tableProperties)
	b.WriteString(`<w:tblGrid>`)
	for i := 0; i < cols; i++ {
		b.WriteString(`<w:gridCol/>`)
	}
	b.WriteString(`</w:tblGrid>`)
	for _, row := range t.Rows {
		b.WriteString(`<w:tr>`)
		for i := 0; i < cols; i++ {
			b.WriteString(`<w:tc><w:tcPr><w:tcW w:w="0" w:type="auto"/></w:tcPr>`)
			if i < len(row.Cells) && len(row.Cells[i].Paragraphs) > 0 {
				for _, p := range row.Cells[i].Paragraphs {
					writeParagraph(b, p, rels)
				}
			} else {
				b.WriteString(`<w:p/>`)
			}
			b.WriteString(`</w:tc>`)
		}
		b.WriteString(`</w:tr>`)
	}
	b.WriteString(`</w:tbl>`)
}

var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

func escapeAttr(s string) string {
	return attrEscaper.Replace(stripInvalidXML(s))
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeText(s string) string {
	return textEscaper.Replace(stripInvalidXML(s))
}

// stripInvalidXML drops characters XML 1.0 cannot carry, such as the
// result separator and other C0 controls.
func stripInvalidXML(s string) string {
	valid := func(r rune) bool {
		return r == '\t' || r == '\n' || r == '\r' ||
			r >= 0x20 && r <= 0xD7FF ||
			r >= 0xE000 && r <= 0xFFFD ||
			r >= 0x10000 && r <= 0x10FFFF
	}
	clean := true
	for _, r := range s {
		if !valid(r) || r == utf8.RuneError {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	return strings.Map(func(r rune) rune {
		if !valid(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
}
