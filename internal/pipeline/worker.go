package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/officemath/internal/convert"
	"github.com/dgallion1/officemath/internal/ooxml"
	"github.com/dgallion1/officemath/internal/parser"
)

// Worker processes a single document job.
type Worker struct {
	conv      *convert.Converter
	log       *slog.Logger
	pdftotext bool
}

func NewWorker(conv *convert.Converter, log *slog.Logger, pdftotext bool) *Worker {
	return &Worker{
		conv:      conv,
		log:       log,
		pdftotext: pdftotext,
	}
}

// Process runs parse, render and package for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, parser.WithPdftotextFallback(w.pdftotext))
	if err != nil {
		w.fail(log, job, "parsing", err)
		return
	}
	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		w.fail(log, job, "parsing", fmt.Errorf("parse: %w", err))
		return
	}
	title := job.Title
	if title == "" {
		title = doc.Title
	}

	// Phase 2: Render math and build blocks.
	job.SetStatus(StatusRendering, "rendering")
	blocks, res, err := w.conv.DocumentBlocks(ctx, doc)
	job.RecordConversion(res)
	if err != nil {
		w.fail(log, job, "rendering", err)
		return
	}
	for _, mathErr := range res.MathErrors {
		job.AddError(mathErr.Error())
	}
	if res.Missing != nil {
		job.AddError(res.Missing.Error())
	}
	log.Info("rendered document", "blocks", res.Blocks, "math_jobs", res.Jobs, "warnings", res.Warnings())

	// Phase 3: Package
	job.SetStatus(StatusPackaging, "packaging")
	var buf bytes.Buffer
	if err := ooxml.Write(&buf, blocks, ooxml.WithTitle(title)); err != nil {
		w.fail(log, job, "packaging", err)
		return
	}
	job.SetResult(buf.Bytes())

	if res.Warnings() > 0 {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("conversion complete", "bytes", buf.Len())
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase string, err error) {
	var inputErr *convert.InputError
	switch {
	case errors.As(err, &inputErr), errors.Is(err, convert.ErrNoContent):
		log.Warn("conversion rejected", "phase", phase, "error", err)
	default:
		log.Error("conversion failed", "phase", phase, "error", err)
	}
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}
