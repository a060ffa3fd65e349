package mathrender

import (
	"context"

	"golang.org/x/net/html"
)

// AnnotationRenderer is the offline MathML fallback. It shows the TeX source
// as text and carries it in an x-tex annotation, which Office and the
// Markdown exporter both understand.
type AnnotationRenderer struct{}

func (AnnotationRenderer) Render(ctx context.Context, latex string, display bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mode := "inline"
	if display {
		mode = "block"
	}
	tex := html.EscapeString(latex)
	return `<math xmlns="http://www.w3.org/1998/Math/MathML" display="` + mode + `"><semantics><mrow><mtext>` +
		tex + `</mtext></mrow><annotation encoding="application/x-tex">` + tex + `</annotation></semantics></math>`, nil
}
