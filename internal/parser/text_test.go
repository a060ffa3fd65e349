package parser

import (
	"strings"
	"testing"
)

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	if doc.Format != FormatHTML {
		t.Errorf("expected html, got %q", doc.Format)
	}
	want := "<p>First paragraph line one.<br>First paragraph line two.</p>\n" +
		"<p>Second paragraph.</p>\n" +
		"<p>Third paragraph.</p>\n"
	if doc.Body != want {
		t.Errorf("body:\n got %q\nwant %q", doc.Body, want)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
	if doc.Body != "" {
		t.Errorf("expected empty body, got %q", doc.Body)
	}
}

func TestTextParser_BlankLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"multiple blank lines", "Para one.\n\n\n\nPara two."},
		{"whitespace only line", "Para one.\n   \nPara two."},
		{"crlf", "Para one.\r\n\r\nPara two.\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := (&TextParser{}).Parse(strings.NewReader(tt.input), "gaps.txt")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n := strings.Count(doc.Body, "<p>"); n != 2 {
				t.Errorf("expected 2 paragraphs, got %d in %q", n, doc.Body)
			}
		})
	}
}

func TestTextParser_EscapesMarkupKeepsMath(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader("a < b and $x^2$ & more"), "m.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<p>a &lt; b and $x^2$ &amp; more</p>\n"
	if doc.Body != want {
		t.Errorf("got %q, want %q", doc.Body, want)
	}
}
