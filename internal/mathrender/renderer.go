// Package mathrender converts the LaTeX of placeholder jobs into MathML or
// OMML, locally or through a remote rendering service.
package mathrender

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/officemath/internal/mathph"
)

// Renderer converts one LaTeX expression. display selects block layout.
type Renderer interface {
	Render(ctx context.Context, latex string, display bool) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, latex string, display bool) (string, error)

func (f RendererFunc) Render(ctx context.Context, latex string, display bool) (string, error) {
	return f(ctx, latex, display)
}

// ErrParse means the LaTeX could not be parsed.
var ErrParse = errors.New("latex parse error")

// ConversionError is a failed job. The job's output is replaced by an empty
// string and the conversion continues.
type ConversionError struct {
	JobID int
	Latex string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("math job %d: %v", e.JobID, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

const parseErrorMarker = "[PARSE ERROR:"

// CleanMathML strips <mtext>[PARSE ERROR: …]</mtext> nodes that some
// converters emit for unsupported commands while keeping the rest of the
// tree. Output that still mentions a parse error is rejected.
func CleanMathML(mathml string) (string, error) {
	const startPat, endPat = "<mtext>" + parseErrorMarker, "</mtext>"
	out := mathml
	for {
		s := strings.Index(out, startPat)
		if s < 0 {
			break
		}
		e := strings.Index(out[s:], endPat)
		if e < 0 {
			break
		}
		out = out[:s] + out[s+e+len(endPat):]
	}
	if strings.Contains(out, parseErrorMarker) {
		return "", fmt.Errorf("%w: unsupported LaTeX command or token", ErrParse)
	}
	return out, nil
}

// DefaultConcurrency bounds RenderAll when no limit is given.
const DefaultConcurrency = 4

// RenderAll renders jobs with at most limit calls in flight. results[i]
// belongs to jobs[i] whatever order the calls finish in. A failed job leaves
// an empty result and a ConversionError; only cancellation of ctx aborts the
// whole batch.
func RenderAll(ctx context.Context, r Renderer, jobs []mathph.TexJob, limit int, stats *Stats) ([]string, []*ConversionError, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	results := make([]string, len(jobs))
	failed := make([]*ConversionError, len(jobs))

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, job := range jobs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, nil, ctx.Err()
		}
		wg.Add(1)
		go func(i int, job mathph.TexJob) {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			out, err := r.Render(ctx, job.Latex, job.Display)
			if stats != nil {
				stats.Record(time.Since(start), err == nil)
			}
			if err != nil {
				failed[i] = &ConversionError{JobID: job.ID, Latex: job.Latex, Err: err}
				return
			}
			results[i] = out
		}(i, job)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	var errs []*ConversionError
	for _, e := range failed {
		if e != nil {
			errs = append(errs, e)
		}
	}
	return results, errs, nil
}
