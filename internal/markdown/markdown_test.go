package markdown

import (
	"strings"
	"testing"
)

func TestToHTML_GFMFeatures(t *testing.T) {
	src := "# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n\n- [x] done\n\nNote[^1]\n\n[^1]: foot\n"
	out, err := ToHTML(src)
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	for _, want := range []string{"<h1", "<table>", "<del>gone</del>", `type="checkbox"`, "foot"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestToHTML_RawHTMLNotPassedThrough(t *testing.T) {
	out, err := ToHTML("hello\n\n<script>alert(1)</script>\n")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("raw HTML leaked: %q", out)
	}
}

func TestToHTML_CodeHighlightingUsesInlineStyles(t *testing.T) {
	out, err := ToHTML("```go\nfmt.Println(\"x\")\n```\n")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if !strings.Contains(out, "<pre") || !strings.Contains(out, "Println") {
		t.Errorf("expected code block, got %q", out)
	}
	if strings.Contains(out, `class="chroma"`) {
		t.Errorf("expected inline styles instead of classes: %q", out)
	}
}

func TestFromHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"inline data-math",
			`<p>Area <span class="math-inline" data-math="\pi r^2">πr²</span> units</p>`,
			`Area $\pi r^2$ units`,
		},
		{
			"block data-math",
			`<p>Before</p><div class="math-block" data-math="\int_0^1 x\,dx"></div><p>After</p>`,
			"Before\n\n$$\\int_0^1 x\\,dx$$\n\nAfter",
		},
		{
			"mathjax skipped",
			`<p>a<mjx-container>junk</mjx-container>b</p>`,
			"ab",
		},
		{
			"unsafe link degrades",
			`<p><a href="javascript:x()">click</a></p>`,
			"click",
		},
		{
			"safe link kept",
			`<p><a href="https://x.test">x</a></p>`,
			"[x](https://x.test)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromHTML(tt.in)
			if err != nil {
				t.Fatalf("FromHTML: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromHTML_MathMLAnnotation(t *testing.T) {
	block := `<p>x</p><math display="block"><semantics><mi>y</mi><annotation encoding="application/x-tex">y^2</annotation></semantics></math>`
	got, err := FromHTML(block)
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if !strings.Contains(got, "$$y^2$$") {
		t.Errorf("expected display math, got %q", got)
	}

	inline := `<p>so <math><semantics><mi>y</mi><annotation encoding="application/x-tex">y_1</annotation></semantics></math> holds</p>`
	got, err = FromHTML(inline)
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if got != "so $y_1$ holds" {
		t.Errorf("got %q", got)
	}
}

func TestFromHTML_MathMLWithoutAnnotationDropped(t *testing.T) {
	got, err := FromHTML(`<p>a <math><mi>q</mi></math>b</p>`)
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if strings.Contains(got, "q") {
		t.Errorf("expected MathML without TeX to be dropped, got %q", got)
	}
}
