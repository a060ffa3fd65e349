package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/officemath/internal/htmldom"
)

// HTMLParser handles HTML files. The markup passes through unchanged; only
// the title is read from it.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}

	doc := &Document{
		Title:  stem(filename),
		Source: filename,
		Format: FormatHTML,
		Body:   string(src),
	}

	root, err := htmldom.Parse(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if title := htmldom.FindElement(root, "title"); title != nil {
		if t := strings.TrimSpace(htmldom.TextContent(title)); t != "" {
			doc.Title = t
		}
	}
	return doc, nil
}
