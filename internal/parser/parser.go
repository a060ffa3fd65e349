package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format says how a Document's Body is written.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// Document is a source file turned into text the converter understands.
type Document struct {
	Title  string
	Source string // file name, for error messages
	Format Format
	Body   string
}

// Parser converts raw source bytes into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Option configures the parsers returned by ForFile.
type Option func(*options)

type options struct {
	pdftotext bool
}

// WithPdftotextFallback lets the PDF parser shell out to pdftotext when the
// built-in reader fails.
func WithPdftotextFallback(enabled bool) Option {
	return func(o *options) { o.pdftotext = enabled }
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts ...Option) (Parser, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: o.pdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// stem is the base name of filename without its extension.
func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
