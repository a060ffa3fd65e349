package boundary

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dgallion1/officemath/internal/convert"
	"github.com/dgallion1/officemath/internal/mathph"
)

func invoke(op string, inputs ...string) Result {
	raw := make([][]byte, len(inputs))
	for i, s := range inputs {
		raw[i] = []byte(s)
	}
	return Invoke(context.Background(), convert.New(), op, raw...)
}

func TestInvoke_InputValidation(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		inputs [][]byte
		want   Code
	}{
		{"empty html", "html_to_office", [][]byte{nil}, CodeEmptyInput},
		{"missing input", "office_apply_mathml", [][]byte{[]byte("<p>x</p>")}, CodeEmptyInput},
		{"invalid utf8", "markdown_to_html", [][]byte{[]byte("\xff\xfe")}, CodeInvalidUTF8},
		{"unknown op", "nope", nil, CodeConversion},
		{"optional base url", "wrap_html_for_clipboard", [][]byte{[]byte("<b>x</b>")}, CodeOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Invoke(context.Background(), convert.New(), tt.op, tt.inputs...)
			if res.Code != tt.want {
				t.Errorf("code = %d (%s), want %d", res.Code, res.Message, tt.want)
			}
			if !res.OK() && (len(res.Output) != 0 || res.Err() == nil) {
				t.Errorf("failed result should carry no output and an error")
			}
		})
	}
}

func TestInvoke_PreparedRoundTrip(t *testing.T) {
	res := invoke("html_to_office_prepared", `<p>Display: \[x = \frac{-b}{2a}\]</p>`)
	if !res.OK() {
		t.Fatalf("prepare: %s", res.Message)
	}
	var prepared mathph.PreparedOffice
	if err := json.Unmarshal(res.Output, &prepared); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(prepared.Jobs) != 1 || !prepared.Jobs[0].Display || !strings.Contains(prepared.Jobs[0].Latex, `\frac`) {
		t.Fatalf("jobs = %+v", prepared.Jobs)
	}
	if !strings.Contains(string(res.Output), `<!--COF_TEX_0-->`) {
		t.Errorf("markers should not be HTML-escaped in JSON: %s", res.Output)
	}

	applied := invoke("office_apply_mathml", prepared.HTML, "<math>m</math>")
	if !applied.OK() {
		t.Fatalf("apply: %s", applied.Message)
	}
	if got := string(applied.Output); strings.Contains(got, "COF_TEX_") || !strings.Contains(got, "<math>m</math>") {
		t.Errorf("applied = %s", got)
	}
}

func TestInvoke_TexToMathML(t *testing.T) {
	res := invoke("tex_to_mathml", `\alpha`, "1")
	if !res.OK() || !strings.Contains(string(res.Output), `display="block"`) {
		t.Errorf("result = %+v %s", res, res.Output)
	}
}

func TestInvoke_ExtractFragmentCodes(t *testing.T) {
	page := `<html><body><div><!--S--><b>x</b><!--E--></div></body></html>`
	tests := []struct {
		tokens string
		want   Code
	}{
		{"S\x1fE", CodeOK},
		{"X\x1fE", CodeApply},
		{"S\x1fX", CodeEndMarker},
		{"S", CodeConversion},
	}
	for _, tt := range tests {
		res := invoke("extract_fragment_by_comment_tokens", page, tt.tokens)
		if res.Code != tt.want {
			t.Errorf("tokens %q: code = %d (%s), want %d", tt.tokens, res.Code, res.Message, tt.want)
		}
	}
}

func TestInvoke_Docx(t *testing.T) {
	res := invoke("markdown_to_docx", "# T\n\nbody", "Title")
	if !res.OK() {
		t.Fatalf("markdown_to_docx: %s", res.Message)
	}
	if len(res.Output) < 4 || string(res.Output[:2]) != "PK" {
		t.Errorf("expected a zip archive")
	}

	if res := invoke("html_to_docx", "<p> </p>"); res.Code != CodeConversion {
		t.Errorf("empty document code = %d", res.Code)
	}
}

func TestOperations(t *testing.T) {
	ops := Operations()
	if len(ops) != 11 {
		t.Errorf("expected 11 operations, got %v", ops)
	}
}
