package office

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/officemath/internal/htmldom"
)

func TestToOfficeHTML_RenamesSemanticTags(t *testing.T) {
	got := ToOfficeHTML(`<p><strong>a</strong> <EM>b</EM></p>`)
	if want := `<p><b>a</b> <i>b</i></p>`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestToOfficeHTML_CopiesUntouchedTokensVerbatim(t *testing.T) {
	tests := []string{
		`<div class=X>y</div>`,
		`<p><!--[if gte msEquation 12]><m:oMath><m:r><m:t>x</m:t></m:r></m:oMath><![endif]--></p>`,
		`<a href="x" style="color:red">l</a>`,
		`<span class="cof-math-inline"><!--COF_TEX_0--></span>`,
		`<math xmlns="http://www.w3.org/1998/Math/MathML"><mi>x</mi></math>`,
	}
	for _, in := range tests {
		if got := ToOfficeHTML(in); got != in {
			t.Errorf("ToOfficeHTML(%q) = %q", in, got)
		}
	}
}

func TestToOfficeHTML_AddsInlineStyles(t *testing.T) {
	tests := []struct {
		in, tag string
	}{
		{`<code>x</code>`, "code"},
		{`<pre>x</pre>`, "pre"},
		{`<a href="https://x.test">x</a>`, "a"},
		{`<blockquote>q</blockquote>`, "blockquote"},
		{`<table><tr><td>c</td></tr></table>`, "td"},
		{`<ul><li>i</li></ul>`, "li"},
		{`<ol><li>i</li></ol>`, "ol"},
		{`<img src="a.png"/>`, "img"},
	}
	for _, tt := range tests {
		out := ToOfficeHTML(tt.in)
		nodes, err := htmldom.ParseBody(out)
		if err != nil {
			t.Fatalf("parse %q: %v", out, err)
		}
		el := htmldom.FindElement(nodes[0], tt.tag)
		if el == nil {
			t.Fatalf("%s missing in %q", tt.tag, out)
		}
		style, ok := htmldom.Attr(el, "style")
		if !ok || style != inlineStyles[tt.tag] {
			t.Errorf("%s style = %q, want %q", tt.tag, style, inlineStyles[tt.tag])
		}
	}
}

func TestToOfficeHTML_KeepsOtherAttributes(t *testing.T) {
	out := ToOfficeHTML(`<td colspan="2">x</td>`)
	if !strings.HasPrefix(out, `<td colspan="2" style="`) {
		t.Errorf("got %q", out)
	}
}

func TestWrapForClipboard(t *testing.T) {
	fragment := `<p>ϕ ≠ <b>x</b></p>`
	payload := WrapForClipboard(fragment, "https://example.test/page")

	if !strings.HasPrefix(payload, "Version:1.0\r\n") {
		t.Errorf("missing version line: %q", payload)
	}
	off, err := ParseClipboardHeader(payload)
	if err != nil {
		t.Fatalf("ParseClipboardHeader: %v", err)
	}
	if off.SourceURL != "https://example.test/page" {
		t.Errorf("SourceURL = %q", off.SourceURL)
	}
	if got := payload[off.StartFragment:off.EndFragment]; got != fragment {
		t.Errorf("fragment slice = %q", got)
	}
	if !strings.HasPrefix(payload[off.StartHTML:], "<html>") {
		t.Errorf("StartHTML does not point at <html>: %q", payload[off.StartHTML:])
	}
	if off.EndHTML != len(payload) {
		t.Errorf("EndHTML = %d, want %d", off.EndHTML, len(payload))
	}
	if !strings.HasSuffix(payload[:off.StartFragment], "<!--StartFragment-->") {
		t.Error("StartFragment marker does not precede fragment")
	}
	if !strings.HasPrefix(payload[off.EndFragment:], "<!--EndFragment-->") {
		t.Error("EndFragment marker does not follow fragment")
	}
}

func TestWrapForClipboard_NoSourceURL(t *testing.T) {
	payload := WrapForClipboard("x", "")
	if strings.Contains(payload, "SourceURL") {
		t.Errorf("unexpected SourceURL line: %q", payload)
	}
	got, err := ClipboardFragment(payload)
	if err != nil {
		t.Fatalf("ClipboardFragment: %v", err)
	}
	if got != "x" {
		t.Errorf("got %q", got)
	}
}

func TestParseClipboardHeader_Incomplete(t *testing.T) {
	if _, err := ParseClipboardHeader("Version:1.0\r\nStartHTML:0000000001\r\n<html>"); err == nil {
		t.Error("expected error for missing offsets")
	}
}

func TestExtractFragment(t *testing.T) {
	tests := []struct {
		name, page, want string
	}{
		{
			"reopens ancestors",
			`<html><body><div class="a"><p>x<!--S-->hello <b>w</b><!--E-->y</p></div></body></html>`,
			`<div class="a"><p>hello <b>w</b></p></div>`,
		},
		{
			"spans siblings",
			`<p>a<!--S-->b</p><p>c<!--E-->d</p>`,
			`<p>b</p><p>c</p>`,
		},
		{
			"keeps inner comments and escapes text",
			`<p><!--S-->a &lt; b<!--COF_TEX_0--><br><!--E--></p>`,
			`<p>a &lt; b<!--COF_TEX_0--><br></p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractFragment(tt.page, "S", "E")
			if err != nil {
				t.Fatalf("ExtractFragment: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractFragment_Errors(t *testing.T) {
	tests := []struct {
		page, start, end string
		want             error
	}{
		{`<p>x</p>`, "", "E", ErrInvalidTokens},
		{`<p>x<!--E--></p>`, "S", "E", ErrStartMarkerNotFound},
		{`<p><!--S-->x</p>`, "S", "E", ErrEndMarkerNotFound},
		{`<p><!--E--><!--S-->x</p>`, "S", "E", ErrEndMarkerNotFound},
	}
	for _, tt := range tests {
		_, err := ExtractFragment(tt.page, tt.start, tt.end)
		if !errors.Is(err, tt.want) {
			t.Errorf("ExtractFragment(%q) error = %v, want %v", tt.page, err, tt.want)
		}
	}
}
