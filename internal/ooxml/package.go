package ooxml

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dgallion1/officemath/internal/doctree"
)

const generator = "officemath"

// ErrPackaging wraps I/O failures while writing the container.
var ErrPackaging = errors.New("write docx package")

type packageOptions struct {
	title   string
	created time.Time
}

// Option configures WritePackage.
type Option func(*packageOptions)

// WithTitle sets dc:title in docProps/core.xml.
func WithTitle(title string) Option {
	return func(o *packageOptions) { o.title = title }
}

// WithCreated fixes the creation timestamp, which otherwise is the current
// time. Entries in the archive carry the same timestamp.
func WithCreated(t time.Time) Option {
	return func(o *packageOptions) { o.created = t }
}

type part struct {
	name string
	body string
}

// WritePackage writes the .docx container. numbering.xml and its
// content-type override are only present when hasNumbering is set.
func WritePackage(w io.Writer, documentXML, documentRelsXML string, hasNumbering bool, opts ...Option) error {
	o := packageOptions{created: time.Now()}
	for _, opt := range opts {
		opt(&o)
	}

	parts := []part{
		{"[Content_Types].xml", renderContentTypes(hasNumbering)},
		{"_rels/.rels", renderPackageRels()},
		{"word/document.xml", documentXML},
		{"word/styles.xml", stylesXML},
	}
	if hasNumbering {
		parts = append(parts, part{"word/numbering.xml", renderNumbering()})
	}
	parts = append(parts,
		part{"word/_rels/document.xml.rels", documentRelsXML},
		part{"docProps/core.xml", renderCoreProperties(o.title, o.created)},
		part{"docProps/app.xml", renderAppProperties()},
	)

	zw := zip.NewWriter(w)
	for _, p := range parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   zip.Deflate,
			Modified: o.created,
		})
		if err != nil {
			zw.Close()
			return fmt.Errorf("%w: create %s: %w", ErrPackaging, p.name, err)
		}
		if _, err := io.WriteString(fw, p.body); err != nil {
			zw.Close()
			return fmt.Errorf("%w: write %s: %w", ErrPackaging, p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: finish archive: %w", ErrPackaging, err)
	}
	return nil
}

// Write serializes blocks and writes the complete package.
func Write(w io.Writer, blocks []doctree.Block, opts ...Option) error {
	rels := AssignRelationshipIDs(blocks)
	numbering := doctree.UsesNumbering(blocks)
	return WritePackage(w, RenderDocument(blocks, rels), RenderDocumentRels(rels, numbering), numbering, opts...)
}
