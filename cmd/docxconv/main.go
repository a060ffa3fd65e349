// Command docxconv converts an HTML, Markdown or other supported source file
// into a .docx package with native Word equations.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dgallion1/officemath/internal/convert"
	"github.com/dgallion1/officemath/internal/parser"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

type flags struct {
	htmlFile     string
	markdownFile string
	input        string
	out          string
	title        string
	verbose      bool
	pdftotext    bool
}

var errUsage = errors.New("usage")

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("docxconv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.htmlFile, "html-file", "", "HTML input file")
	fs.StringVar(&f.markdownFile, "markdown-file", "", "Markdown input file")
	fs.StringVarP(&f.input, "input", "i", "", "any supported input file, picked by extension")
	fs.StringVarP(&f.out, "out", "o", "", "output .docx path (required)")
	fs.StringVarP(&f.title, "title", "t", "", "document title")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug details to stderr")
	fs.BoolVar(&f.pdftotext, "pdftotext", true, "fall back to pdftotext for unreadable PDFs")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: docxconv (--html-file FILE | --markdown-file FILE | --input FILE) --out FILE.docx [--title TITLE] [--verbose]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}

	inputs := 0
	for _, v := range []string{f.htmlFile, f.markdownFile, f.input} {
		if v != "" {
			inputs++
		}
	}
	switch {
	case inputs == 0:
		return nil, fmt.Errorf("%w: --html-file is required (or --markdown-file / --input)", errUsage)
	case inputs > 1:
		return nil, fmt.Errorf("%w: use only one of --html-file, --markdown-file, --input", errUsage)
	case f.out == "":
		return nil, fmt.Errorf("%w: --out is required", errUsage)
	}
	return f, nil
}

// source returns the input path and the parser for it.
func (f *flags) source() (string, parser.Parser, error) {
	switch {
	case f.htmlFile != "":
		return f.htmlFile, &parser.HTMLParser{}, nil
	case f.markdownFile != "":
		return f.markdownFile, &parser.MarkdownParser{}, nil
	}
	p, err := parser.ForFile(f.input, parser.WithPdftotextFallback(f.pdftotext))
	return f.input, p, err
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	path, p, err := f.source()
	if err != nil {
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		return &convert.InputError{Source: path, Err: fmt.Errorf("%w: %w", convert.ErrUnreadableInput, err)}
	}
	defer file.Close()

	doc, err := p.Parse(file, filepath.Base(path))
	if err != nil {
		return &convert.InputError{Source: path, Err: err}
	}

	conv := convert.New(convert.WithLogger(log))
	var buf bytes.Buffer
	res, err := conv.DocumentToDocx(ctx, &buf, doc, f.title)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.out, err)
	}

	log.Debug("wrote package", "out", f.out, "bytes", buf.Len(), "blocks", res.Blocks, "math_jobs", res.Jobs)
	if n := res.Warnings(); n > 0 {
		log.Warn("converted with math warnings", "warnings", n)
	}
	return nil
}

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "docxconv:", err)
		}
		os.Exit(1)
	}
}
