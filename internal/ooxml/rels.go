package ooxml

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/officemath/internal/doctree"
)

// FirstHyperlinkRelID is the first relationship number handed to hyperlinks.
// rId1 to rId9 are kept for the document's fixed parts.
const FirstHyperlinkRelID = 10

const (
	relStyles    = "rId1"
	relNumbering = "rId2"
)

const (
	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	relTypeBase     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
)

// AssignRelationshipIDs maps every distinct hyperlink target to a
// relationship id. Targets are numbered in lexicographic order starting at
// rId10, so the same document always gets the same ids.
func AssignRelationshipIDs(blocks []doctree.Block) map[string]string {
	seen := make(map[string]bool)
	var hrefs []string
	for _, h := range doctree.Hrefs(blocks) {
		if !seen[h] {
			seen[h] = true
			hrefs = append(hrefs, h)
		}
	}
	sort.Strings(hrefs)

	rels := make(map[string]string, len(hrefs))
	for i, h := range hrefs {
		rels[h] = "rId" + strconv.Itoa(FirstHyperlinkRelID+i)
	}
	return rels
}

// RenderDocumentRels renders word/_rels/document.xml.rels.
func RenderDocumentRels(rels map[string]string, hasNumbering bool) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="` + nsRelationships + `">`)
	writeRel(&b, relStyles, "styles", "styles.xml", false)
	if hasNumbering {
		writeRel(&b, relNumbering, "numbering", "numbering.xml", false)
	}

	type entry struct {
		id   int
		href string
	}
	entries := make([]entry, 0, len(rels))
	for href, id := range rels {
		n, err := strconv.Atoi(strings.TrimPrefix(id, "rId"))
		if err != nil {
			continue
		}
		entries = append(entries, entry{id: n, href: href})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	for _, e := range entries {
		writeRel(&b, fmt.Sprintf("rId%d", e.id), "hyperlink", e.href, true)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func renderPackageRels() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="` + nsRelationships + `">`)
	writeRel(&b, "rId1", "officeDocument", "word/document.xml", false)
	b.WriteString(`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>`)
	writeRel(&b, "rId3", "extended-properties", "docProps/app.xml", false)
	b.WriteString(`</Relationships>`)
	return b.String()
}

func writeRel(b *strings.Builder, id, typ, target string, external bool) {
	b.WriteString(`<Relationship Id="` + id + `" Type="` + relTypeBase + typ + `" Target="` + escapeAttr(target) + `"`)
	if external {
		b.WriteString(` TargetMode="External"`)
	}
	b.WriteString(`/>`)
}
