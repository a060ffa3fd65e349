package htmldom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestParseBody_FragmentKeepsLeadingComment(t *testing.T) {
	nodes, err := ParseBody("<!--COF_TEX_0--><p>after</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 body children, got %d", len(nodes))
	}
	if nodes[0].Type != html.CommentNode || nodes[0].Data != "COF_TEX_0" {
		t.Errorf("expected leading comment, got type %v data %q", nodes[0].Type, nodes[0].Data)
	}
}

func TestParseBody_FullDocument(t *testing.T) {
	nodes, err := ParseBody("<html><head><title>x</title></head><body><p>one</p><p>two</p></body></html>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 body children, got %d", len(nodes))
	}
}

func TestSanitizeHref(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://example.com", "https://example.com", true},
		{"  /relative  ", "/relative", true},
		{"", "", false},
		{"   ", "", false},
		{"javascript:alert(1)", "", false},
		{"JavaScript:alert(1)", "", false},
		{"data:text/html;base64,AAAA", "", false},
		{" VBScript:x", "", false},
		{"mailto:a@b.c", "mailto:a@b.c", true},
	}
	for _, tt := range tests {
		got, ok := SanitizeHref(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("SanitizeHref(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHasClass(t *testing.T) {
	nodes, err := ParseBody(`<span class="Katex-Display other">x</span>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !HasClass(nodes[0], "katex", "katex-display") {
		t.Error("expected katex-display class to match case-insensitively")
	}
	if HasClass(nodes[0], "katex") && !HasClass(nodes[0], "other") {
		t.Error("class matching is inconsistent")
	}
	if HasClass(nodes[0], "kat") {
		t.Error("partial class name should not match")
	}
}

func TestRender_CommentsVerbatimAndVoidElements(t *testing.T) {
	span := Element("span", html.Attribute{Key: "class", Val: "cof-math-inline"})
	span.AppendChild(Comment("COF_TEX_3"))
	br := Element("br")
	out, err := Render([]*html.Node{span, br, Text("a < b")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<span class="cof-math-inline"><!--COF_TEX_3--></span><br/>a &lt; b`
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestReplace(t *testing.T) {
	nodes, err := ParseBody(`<p>a<b>old</b>c</p>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	old := FindElement(nodes[0], "b")
	Replace(old, Text("X"), Text("Y"))
	out, err := Render(nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "<p>aXYc</p>" {
		t.Errorf("got %q", out)
	}
	if strings.Contains(out, "old") {
		t.Error("old node still rendered")
	}
}

func TestParseBody_CommentEntitiesKept(t *testing.T) {
	tests := []string{
		"a&lt;b",
		"x &amp; y",
		"[if gte msEquation 12]><m:oMath><m:r><m:t>a&lt;b&gt;c</m:t></m:r></m:oMath><![endif]",
		"plain",
	}
	for _, data := range tests {
		nodes, err := ParseBody("<p>t &amp; u<!--" + data + "--></p>")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		p := nodes[0]
		if got := p.FirstChild.Data; got != "t & u" {
			t.Errorf("text node = %q, want entities decoded", got)
		}
		if got := p.LastChild.Data; got != data {
			t.Errorf("comment = %q, want %q", got, data)
		}
	}
}

func TestRender_CommentEntitiesRoundTrip(t *testing.T) {
	src := `<p>a &amp; b<!--[if gte msEquation 12]><m:oMath><m:r><m:t>x&lt;y &amp; z</m:t></m:r></m:oMath><![endif]--></p>`
	nodes, err := ParseBody(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := Render(nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != src {
		t.Errorf("got %q, want %q", out, src)
	}

	again, err := ParseBody(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := again[0].LastChild.Data; !strings.Contains(got, "x&lt;y &amp; z") {
		t.Errorf("comment after second parse = %q", got)
	}
}
