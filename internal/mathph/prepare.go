package mathph

import (
	"fmt"

	"github.com/dgallion1/officemath/internal/markdown"
	"github.com/dgallion1/officemath/internal/office"
	"github.com/dgallion1/officemath/internal/sanitize"
)

// ExtractMathJobs runs the data-math pass and then the text pass over src.
// Data-math jobs come first; ids are indices into the returned slice.
func ExtractMathJobs(src string) (string, []TexJob, error) {
	var jobs jobList
	out, err := replaceDataMath(src, &jobs, false)
	if err != nil {
		return "", nil, err
	}
	out, err = injectTextMath(out, &jobs)
	if err != nil {
		return "", nil, err
	}
	return out, jobs.jobs, nil
}

// PrepareOption adjusts PrepareHTML.
type PrepareOption func(*prepareOptions)

type prepareOptions struct {
	annotated bool
}

// WithAnnotatedMath turns MathML carrying an application/x-tex annotation
// into jobs instead of passing it through. Outputs that cannot show MathML,
// such as .docx, use it.
func WithAnnotatedMath() PrepareOption {
	return func(o *prepareOptions) { o.annotated = true }
}

// PrepareHTML turns arbitrary HTML into Office HTML with math placeholders.
// Data-math is extracted before sanitizing and delimited text math after it.
func PrepareHTML(src string, opts ...PrepareOption) (PreparedOffice, error) {
	var o prepareOptions
	for _, opt := range opts {
		opt(&o)
	}
	var jobs jobList
	out, err := replaceDataMath(src, &jobs, o.annotated)
	if err != nil {
		return PreparedOffice{}, fmt.Errorf("extract data-math: %w", err)
	}
	out, err = sanitize.ForOffice(out)
	if err != nil {
		return PreparedOffice{}, fmt.Errorf("sanitize: %w", err)
	}
	out, err = injectTextMath(out, &jobs)
	if err != nil {
		return PreparedOffice{}, fmt.Errorf("extract text math: %w", err)
	}
	return PreparedOffice{HTML: office.ToOfficeHTML(out), Jobs: nonNil(jobs.jobs)}, nil
}

// PrepareMarkdown is PrepareHTML for Markdown input.
func PrepareMarkdown(md string) (PreparedOffice, error) {
	withTokens, jobs := ExtractMarkdownMath(md)
	htmlOut, err := markdown.ToHTML(withTokens)
	if err != nil {
		return PreparedOffice{}, fmt.Errorf("render markdown: %w", err)
	}
	htmlOut = RestoreMarkdownPlaceholders(htmlOut, jobs)
	return PreparedOffice{HTML: office.ToOfficeHTML(htmlOut), Jobs: nonNil(jobs)}, nil
}

// nonNil keeps "jobs" an array in JSON.
func nonNil(jobs []TexJob) []TexJob {
	if jobs == nil {
		return []TexJob{}
	}
	return jobs
}
