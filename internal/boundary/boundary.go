// Package boundary exposes the conversions as named operations over byte
// buffers, for hosts that call in through a foreign-function or RPC layer.
// Every call returns its own Result; there is no shared last-error state.
package boundary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/officemath/internal/convert"
	"github.com/dgallion1/officemath/internal/markdown"
	"github.com/dgallion1/officemath/internal/mathph"
	"github.com/dgallion1/officemath/internal/office"
)

// APIVersion is bumped whenever an operation's inputs or outputs change.
const APIVersion = 3

// Code is the error code reported with a Result.
type Code int

const (
	CodeOK Code = iota
	CodeEmptyInput
	CodeInvalidUTF8
	CodeConversion
	CodeApply // also: start marker not found
	CodeEndMarker
)

// Result is the outcome of one call. Output is empty unless Code is CodeOK.
type Result struct {
	Output  []byte `json:"-"`
	Code    Code   `json:"code"`
	Message string `json:"message,omitempty"`
}

func (r Result) OK() bool { return r.Code == CodeOK }

// Err converts a failed Result to an error.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("boundary error %d: %s", r.Code, r.Message)
}

func ok(out string) Result { return Result{Output: []byte(out)} }

func fail(code Code, format string, args ...any) Result {
	return Result{Code: code, Message: fmt.Sprintf(format, args...)}
}

// input describes one positional argument of an operation.
type input struct {
	name     string
	optional bool
}

type operation struct {
	inputs []input
	run    func(ctx context.Context, c *convert.Converter, in []string) Result
}

var operations = map[string]operation{
	"tex_to_mathml": {
		inputs: []input{{name: "latex"}, {name: "display", optional: true}},
		run: func(ctx context.Context, c *convert.Converter, in []string) Result {
			out, err := c.TexToMathML(ctx, in[0], parseBool(in[1]))
			if err != nil {
				return fail(CodeConversion, "%v", err)
			}
			return ok(out)
		},
	},
	"html_to_office": {
		inputs: []input{{name: "html"}},
		run: func(ctx context.Context, c *convert.Converter, in []string) Result {
			out, _, err := c.HTMLToOffice(ctx, in[0])
			if err != nil {
				return fail(CodeConversion, "%v", err)
			}
			return ok(out)
		},
	},
	"html_to_office_prepared": {
		inputs: []input{{name: "html"}},
		run: func(ctx context.Context, c *convert.Converter, in []string) Result {
			return preparedJSON(mathph.PrepareHTML(in[0]))
		},
	},
	"markdown_to_office_prepared": {
		inputs: []input{{name: "markdown"}},
		run: func(ctx context.Context, c *convert.Converter, in []string) Result {
			return preparedJSON(mathph.PrepareMarkdown(in[0]))
		},
	},
	"office_apply_mathml": {
		inputs: []input{{name: "html"}, {name: "mathml"}},
		run: func(ctx context.Context, c *convert.Converter, in []string) Result {
			out, _ := mathph.ApplyMathml(in[0], in[1])
			return ok(out)
		},
	},
	"html_to_markdown": {
		inputs: []input{{name: "html"}},
		run: func(ctx context.Context, c *convert.Converter, in []string) Result {
			out, err := markdown.FromHTML(in[0])
			if err != nil {
				return fail(CodeConversion, "%v", err)
			}
			return ok(out)
		},
	},
	"markdown_to_html": {
		inputs: []input{{name: "markdown"}},
		run: func(ctx context.Context, c *convert.Converter, in []string) Result {
			out, err := markdown.ToHTML(in[0])
			if err != nil {
				return fail(CodeConversion, "%v", err)
			}
			return ok(out)
		},
	},
	"wrap_html_for_clipboard": {
		inputs: []input{{name: "fragment"}, {name: "base_url", optional: true}},
		run: func(ctx context.Context, c *convert.Converter, in []string) Result {
			return ok(office.WrapForClipboard(in[0], in[1]))
		},
	},
	"extract_fragment_by_comment_tokens": {
		inputs: []input{{name: "page_html"}, {name: "tokens"}},
		run: func(ctx context.Context, c *convert.Converter, in []string) Result {
			start, end, found := strings.Cut(in[1], mathph.Separator)
			if !found || start == "" || end == "" {
				return fail(CodeConversion, `tokens must be start\u001Fend`)
			}
			out, err := office.ExtractFragment(in[0], start, end)
			switch {
			case errors.Is(err, office.ErrStartMarkerNotFound):
				return fail(CodeApply, "start marker not found")
			case errors.Is(err, office.ErrEndMarkerNotFound):
				return fail(CodeEndMarker, "end marker not found")
			case err != nil:
				return fail(CodeConversion, "%v", err)
			}
			return ok(out)
		},
	},
	"html_to_docx": {
		inputs: []input{{name: "html"}, {name: "title", optional: true}},
		run: func(ctx context.Context, c *convert.Converter, in []string) Result {
			var buf bytes.Buffer
			if _, err := c.HTMLToDocx(ctx, &buf, in[0], in[1]); err != nil {
				return fail(CodeConversion, "%v", err)
			}
			return Result{Output: buf.Bytes()}
		},
	},
	"markdown_to_docx": {
		inputs: []input{{name: "markdown"}, {name: "title", optional: true}},
		run: func(ctx context.Context, c *convert.Converter, in []string) Result {
			var buf bytes.Buffer
			if _, err := c.MarkdownToDocx(ctx, &buf, in[0], in[1]); err != nil {
				return fail(CodeConversion, "%v", err)
			}
			return Result{Output: buf.Bytes()}
		},
	},
}

// Operations lists the supported operation names.
func Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs op over positional inputs. A missing or empty required input
// yields CodeEmptyInput; input that is not UTF-8 yields CodeInvalidUTF8.
func Invoke(ctx context.Context, c *convert.Converter, op string, inputs ...[]byte) Result {
	o, found := operations[op]
	if !found {
		return fail(CodeConversion, "unknown operation %q", op)
	}
	args := make([]string, len(o.inputs))
	for i, spec := range o.inputs {
		var raw []byte
		if i < len(inputs) {
			raw = inputs[i]
		}
		if len(raw) == 0 {
			if spec.optional {
				continue
			}
			return fail(CodeEmptyInput, "empty %s", spec.name)
		}
		if !utf8.Valid(raw) {
			return fail(CodeInvalidUTF8, "%s is not valid UTF-8", spec.name)
		}
		args[i] = string(raw)
	}
	return o.run(ctx, c, args)
}

func preparedJSON(p mathph.PreparedOffice, err error) Result {
	if err != nil {
		return fail(CodeConversion, "%v", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return fail(CodeConversion, "encode prepared office: %v", err)
	}
	return Result{Output: bytes.TrimSuffix(buf.Bytes(), []byte("\n"))}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "display", "block":
		return true
	}
	return false
}
