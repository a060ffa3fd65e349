// Package convert runs the end-to-end conversions: HTML or Markdown to
// Office-ready HTML with rendered math, and to .docx packages.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/officemath/internal/doctree"
	"github.com/dgallion1/officemath/internal/mathph"
	"github.com/dgallion1/officemath/internal/mathrender"
	"github.com/dgallion1/officemath/internal/ooxml"
	"github.com/dgallion1/officemath/internal/parser"
)

// Converter holds the renderers used for math. It is safe for concurrent
// use as long as its renderers are.
type Converter struct {
	mathml mathrender.Renderer
	omml   mathrender.Renderer
	limit  int
	stats  *mathrender.Stats
	log    *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithMathMLRenderer sets the renderer used for Office HTML output.
func WithMathMLRenderer(r mathrender.Renderer) Option {
	return func(c *Converter) { c.mathml = r }
}

// WithOMMLRenderer sets the renderer used for .docx output. Its results must
// be equation conditional comments.
func WithOMMLRenderer(r mathrender.Renderer) Option {
	return func(c *Converter) { c.omml = r }
}

// WithConcurrency bounds parallel render calls per document.
func WithConcurrency(n int) Option {
	return func(c *Converter) { c.limit = n }
}

// WithStats records render latencies.
func WithStats(s *mathrender.Stats) Option {
	return func(c *Converter) { c.stats = s }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Converter) { c.log = log }
}

func New(opts ...Option) *Converter {
	c := &Converter{
		mathml: mathrender.AnnotationRenderer{},
		omml:   mathrender.OMMLRenderer{},
		limit:  mathrender.DefaultConcurrency,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result describes a finished conversion. Math failures and lost
// placeholders are recovered and reported here.
type Result struct {
	Jobs       int                   `json:"jobs"`
	Blocks     int                   `json:"blocks,omitempty"`
	MathErrors []*MathConversionError `json:"-"`
	Missing    *PlaceholderMismatch   `json:"-"`
}

// Warnings counts recovered problems.
func (r Result) Warnings() int {
	n := len(r.MathErrors)
	if r.Missing != nil {
		n += len(r.Missing.IDs)
	}
	return n
}

// ReadInput reads a whole input and validates it with CheckInput.
func ReadInput(r io.Reader, source string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &InputError{Source: source, Err: fmt.Errorf("%w: %w", ErrUnreadableInput, err)}
	}
	return CheckInput(data, source)
}

// CheckInput rejects blank and non-UTF-8 input and strips a byte order mark.
func CheckInput(data []byte, source string) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return "", &InputError{Source: source, Err: ErrEmptyInput}
	}
	if !utf8.Valid(data) {
		return "", &InputError{Source: source, Err: ErrInvalidEncoding}
	}
	return string(data), nil
}

// TexToMathML renders a single formula with the MathML renderer.
func (c *Converter) TexToMathML(ctx context.Context, latex string, display bool) (string, error) {
	return c.mathml.Render(ctx, strings.TrimSpace(latex), display)
}

// HTMLToOffice prepares src and substitutes rendered MathML for every
// placeholder.
func (c *Converter) HTMLToOffice(ctx context.Context, src string) (string, Result, error) {
	prepared, err := mathph.PrepareHTML(src)
	if err != nil {
		return "", Result{}, err
	}
	return c.render(ctx, prepared, c.mathml)
}

// MarkdownToOffice is HTMLToOffice for Markdown input.
func (c *Converter) MarkdownToOffice(ctx context.Context, md string) (string, Result, error) {
	prepared, err := mathph.PrepareMarkdown(md)
	if err != nil {
		return "", Result{}, err
	}
	return c.render(ctx, prepared, c.mathml)
}

// HTMLToDocx converts src to a .docx package written to w. Nothing is
// written when the input yields no blocks. MathML with a TeX annotation is
// re-rendered as an equation.
func (c *Converter) HTMLToDocx(ctx context.Context, w io.Writer, src, title string) (Result, error) {
	prepared, err := mathph.PrepareHTML(src, mathph.WithAnnotatedMath())
	if err != nil {
		return Result{}, err
	}
	return c.docx(ctx, w, prepared, title)
}

// MarkdownToDocx is HTMLToDocx for Markdown input.
func (c *Converter) MarkdownToDocx(ctx context.Context, w io.Writer, md, title string) (Result, error) {
	prepared, err := mathph.PrepareMarkdown(md)
	if err != nil {
		return Result{}, err
	}
	return c.docx(ctx, w, prepared, title)
}

// DocumentBlocks validates a parsed source file, renders its math as OMML
// and builds the block model.
func (c *Converter) DocumentBlocks(ctx context.Context, doc *parser.Document) ([]doctree.Block, Result, error) {
	body, err := CheckInput([]byte(doc.Body), doc.Source)
	if err != nil {
		return nil, Result{}, err
	}
	var prepared mathph.PreparedOffice
	if doc.Format == parser.FormatMarkdown {
		prepared, err = mathph.PrepareMarkdown(body)
	} else {
		prepared, err = mathph.PrepareHTML(body, mathph.WithAnnotatedMath())
	}
	if err != nil {
		return nil, Result{}, err
	}
	return c.blocks(ctx, prepared)
}

// DocumentToDocx converts a parsed source file. The document's own title is
// used when title is empty.
func (c *Converter) DocumentToDocx(ctx context.Context, w io.Writer, doc *parser.Document, title string) (Result, error) {
	blocks, res, err := c.DocumentBlocks(ctx, doc)
	if err != nil {
		return res, err
	}
	if title == "" {
		title = doc.Title
	}
	return res, c.write(w, blocks, res, title)
}

func (c *Converter) render(ctx context.Context, prepared mathph.PreparedOffice, r mathrender.Renderer) (string, Result, error) {
	res := Result{Jobs: len(prepared.Jobs)}
	results, failed, err := mathrender.RenderAll(ctx, r, prepared.Jobs, c.limit, c.stats)
	if err != nil {
		return "", res, fmt.Errorf("render math: %w", err)
	}
	for _, f := range failed {
		c.log.Warn("math conversion failed", "job_id", f.JobID, "latex", f.Latex, "error", f.Err)
	}
	res.MathErrors = failed

	out, missing := mathph.ApplyResults(prepared.HTML, results)
	if len(missing) > 0 {
		res.Missing = &PlaceholderMismatch{IDs: missing}
		c.log.Warn("math placeholders missing", "ids", missing)
	}
	return out, res, nil
}

func (c *Converter) blocks(ctx context.Context, prepared mathph.PreparedOffice) ([]doctree.Block, Result, error) {
	officeHTML, res, err := c.render(ctx, prepared, c.omml)
	if err != nil {
		return nil, res, err
	}
	blocks, err := doctree.ParseBlocks(officeHTML)
	if err != nil {
		return nil, res, fmt.Errorf("build blocks: %w", err)
	}
	if len(blocks) == 0 {
		return nil, res, ErrNoContent
	}
	res.Blocks = len(blocks)
	return blocks, res, nil
}

func (c *Converter) docx(ctx context.Context, w io.Writer, prepared mathph.PreparedOffice, title string) (Result, error) {
	blocks, res, err := c.blocks(ctx, prepared)
	if err != nil {
		return res, err
	}
	return res, c.write(w, blocks, res, title)
}

func (c *Converter) write(w io.Writer, blocks []doctree.Block, res Result, title string) error {
	if err := ooxml.Write(w, blocks, ooxml.WithTitle(title)); err != nil {
		return err
	}
	c.log.Debug("docx written", "blocks", res.Blocks, "math_jobs", res.Jobs, "warnings", res.Warnings())
	return nil
}
