package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dgallion1/officemath/internal/mathrender"
	"github.com/dgallion1/officemath/internal/parser"
)

func documentXML(t *testing.T, data []byte) (string, []string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	var names []string
	var doc string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		doc = string(b)
	}
	return doc, names
}

func TestHTMLToOffice(t *testing.T) {
	c := New()
	out, res, err := c.HTMLToOffice(context.Background(), `<p>Price is $100 and math is $x^2 + y^2 = z^2$ ok</p>`)
	if err != nil {
		t.Fatalf("HTMLToOffice: %v", err)
	}
	if res.Jobs != 1 || res.Warnings() != 0 {
		t.Errorf("result = %+v", res)
	}
	if strings.Contains(out, "COF_TEX_") {
		t.Errorf("residual marker in %s", out)
	}
	if !strings.Contains(out, "Price is $100 and math is ") || !strings.Contains(out, `<annotation encoding="application/x-tex">x^2 + y^2 = z^2</annotation>`) {
		t.Errorf("unexpected output %s", out)
	}
}

func TestHTMLToOffice_MathFailureIsRecovered(t *testing.T) {
	r := mathrender.RendererFunc(func(ctx context.Context, latex string, display bool) (string, error) {
		if latex == "bad" {
			return "", mathrender.ErrParse
		}
		return "<math>" + latex + "</math>", nil
	})
	c := New(WithMathMLRenderer(r))
	out, res, err := c.HTMLToOffice(context.Background(), `<p>$good$ and $bad$</p>`)
	if err != nil {
		t.Fatalf("HTMLToOffice: %v", err)
	}
	if len(res.MathErrors) != 1 || res.MathErrors[0].JobID != 1 {
		t.Fatalf("math errors = %+v", res.MathErrors)
	}
	var mce *MathConversionError
	if !errors.As(res.MathErrors[0], &mce) || !errors.Is(mce, mathrender.ErrParse) {
		t.Errorf("expected a parse failure, got %v", res.MathErrors[0])
	}
	if !strings.Contains(out, "<math>good</math>") || strings.Contains(out, "COF_TEX_") {
		t.Errorf("unexpected output %s", out)
	}
}

func TestMarkdownToOffice(t *testing.T) {
	out, res, err := New().MarkdownToOffice(context.Background(), "**Area** is $\\pi r^2$")
	if err != nil {
		t.Fatalf("MarkdownToOffice: %v", err)
	}
	if res.Jobs != 1 || !strings.Contains(out, "<b>Area</b>") || !strings.Contains(out, `\pi r^2`) {
		t.Errorf("out = %s", out)
	}
}

func TestHTMLToDocx(t *testing.T) {
	var buf bytes.Buffer
	res, err := New().HTMLToDocx(context.Background(), &buf,
		`<h1>Notes</h1><p>Display: \[x = \frac{-b}{2a}\]</p><ul><li>one</li></ul>`, "Notes")
	if err != nil {
		t.Fatalf("HTMLToDocx: %v", err)
	}
	if res.Jobs != 1 || res.Blocks != 3 {
		t.Errorf("result = %+v", res)
	}
	doc, names := documentXML(t, buf.Bytes())
	for _, want := range []string{`<w:pStyle w:val="Heading1"/>`, "<m:oMathPara><m:oMath>", "<m:f><m:num>", `<w:numId w:val="1"/>`} {
		if !strings.Contains(doc, want) {
			t.Errorf("missing %q in document.xml", want)
		}
	}
	if !strings.Contains(strings.Join(names, ","), "word/numbering.xml") {
		t.Errorf("numbering part missing: %v", names)
	}
}

func TestMarkdownToDocx(t *testing.T) {
	var buf bytes.Buffer
	_, err := New().MarkdownToDocx(context.Background(), &buf, "# Title\n\nSee [site](https://example.com) and $a_1$.\n", "")
	if err != nil {
		t.Fatalf("MarkdownToDocx: %v", err)
	}
	doc, names := documentXML(t, buf.Bytes())
	if !strings.Contains(doc, `<w:hyperlink r:id="rId10"`) || !strings.Contains(doc, "<m:sSub>") {
		t.Errorf("document.xml = %s", doc)
	}
	if strings.Contains(strings.Join(names, ","), "numbering") {
		t.Errorf("no lists, no numbering part: %v", names)
	}
}

func TestDocx_MathWithXMLSpecialCharacters(t *testing.T) {
	tests := []struct {
		name     string
		markdown bool
		src      string
		want     string
	}{
		{"html less than", false, `<p>$a &lt; b$</p>`, "&lt;"},
		{"html greater than", false, `<p>$a &gt; b$</p>`, "&gt;"},
		{"html escaped ampersand", false, `<p>$x \&amp; y$</p>`, "&amp;"},
		{"html data-math", false, `<p data-math="a &amp;lt; b">x</p>`, "&lt;"},
		{"html word equation", false, `<p><!--[if gte msEquation 12]><m:oMath><m:r><m:t>a&lt;b</m:t></m:r></m:oMath><![endif]--></p>`, "a&lt;b"},
		{"markdown less than", true, "Order $a < b$ holds.\n", "&lt;"},
		{"markdown greater than", true, "$$a > b$$\n", "&gt;"},
		{"markdown escaped ampersand", true, "Both $x \\& y$.\n", "&amp;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			var res Result
			var err error
			if tt.markdown {
				res, err = New().MarkdownToDocx(context.Background(), &buf, tt.src, "")
			} else {
				res, err = New().HTMLToDocx(context.Background(), &buf, tt.src, "")
			}
			if err != nil {
				t.Fatalf("convert: %v", err)
			}
			if res.Warnings() != 0 {
				t.Fatalf("unexpected warnings: %+v", res)
			}
			doc, _ := documentXML(t, buf.Bytes())
			if !strings.Contains(doc, tt.want) {
				t.Errorf("missing %q in document.xml:\n%s", tt.want, doc)
			}
			dec := xml.NewDecoder(strings.NewReader(doc))
			for {
				_, err := dec.Token()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("document.xml is not well-formed: %v\n%s", err, doc)
				}
			}
		})
	}
}

func TestHTMLToDocx_AnnotatedMathML(t *testing.T) {
	src := `<p>k <span class="katex"><span class="katex-mathml"><math><semantics><mi>x</mi>` +
		`<annotation encoding="application/x-tex">x_1</annotation></semantics></math></span>` +
		`<span class="katex-html" aria-hidden="true">x1</span></span> end</p>`
	var buf bytes.Buffer
	res, err := New().HTMLToDocx(context.Background(), &buf, src, "")
	if err != nil {
		t.Fatalf("HTMLToDocx: %v", err)
	}
	if res.Jobs != 1 {
		t.Errorf("result = %+v", res)
	}
	doc, _ := documentXML(t, buf.Bytes())
	if !strings.Contains(doc, "<m:sSub>") || strings.Contains(doc, ">x1<") {
		t.Errorf("document.xml = %s", doc)
	}
}

func TestHTMLToDocx_NoContent(t *testing.T) {
	var buf bytes.Buffer
	_, err := New().HTMLToDocx(context.Background(), &buf, `<p>   </p><script>x()</script>`, "")
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written, got %d bytes", buf.Len())
	}
}

func TestCheckInput(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
		out  string
	}{
		{"empty", nil, ErrEmptyInput, ""},
		{"blank", []byte(" \n\t"), ErrEmptyInput, ""},
		{"bom only", []byte("\xef\xbb\xbf"), ErrEmptyInput, ""},
		{"invalid", []byte("<p>\xff</p>"), ErrInvalidEncoding, ""},
		{"bom stripped", []byte("\xef\xbb\xbf<p>x</p>"), nil, "<p>x</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := CheckInput(tt.in, "in.html")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if err != nil {
				var ie *InputError
				if !errors.As(err, &ie) || ie.Source != "in.html" {
					t.Errorf("expected InputError for in.html, got %v", err)
				}
				return
			}
			if out != tt.out {
				t.Errorf("out = %q, want %q", out, tt.out)
			}
		})
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("i/o timeout") }

func TestReadInput_Unreadable(t *testing.T) {
	_, err := ReadInput(brokenReader{}, "x.html")
	if !errors.Is(err, ErrUnreadableInput) {
		t.Errorf("expected ErrUnreadableInput, got %v", err)
	}
}

func TestDocumentToDocx(t *testing.T) {
	tests := []struct {
		name string
		doc  *parser.Document
		want string
		err  error
	}{
		{"markdown", &parser.Document{Title: "t", Format: parser.FormatMarkdown, Body: "# H\n\n$x^2$"}, "<m:sSup>", nil},
		{"html", &parser.Document{Title: "t", Format: parser.FormatHTML, Body: "<p>hello</p>"}, "hello", nil},
		{"empty", &parser.Document{Title: "t", Format: parser.FormatHTML}, "", ErrEmptyInput},
		{"invalid", &parser.Document{Title: "t", Format: parser.FormatHTML, Body: "<p>\xff</p>"}, "", ErrInvalidEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := New().DocumentToDocx(context.Background(), &buf, tt.doc, "")
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if err != nil {
				return
			}
			doc, _ := documentXML(t, buf.Bytes())
			if !strings.Contains(doc, tt.want) {
				t.Errorf("missing %q in document.xml", tt.want)
			}
		})
	}
}
