// Package mathph finds LaTeX in HTML and Markdown, replaces each occurrence
// with a numbered placeholder and later swaps rendered math back in.
//
// A placeholder is a span carrying a marker comment:
//
//	<span class="cof-math-inline"><!--COF_TEX_3--></span>
//
// The comment survives sanitizing and transcoding byte for byte, which is
// what lets ApplyMathml find it again.
package mathph

import (
	"strconv"

	"github.com/dgallion1/officemath/internal/htmldom"
	"golang.org/x/net/html"
)

// TexJob is one LaTeX fragment awaiting conversion. ID is the position of the
// job in emission order and the number inside its marker comment.
type TexJob struct {
	ID      int    `json:"id"`
	Latex   string `json:"latex"`
	Display bool   `json:"display"`
}

// PreparedOffice is Office-ready HTML whose math has been replaced by
// placeholders, together with the jobs that fill them.
type PreparedOffice struct {
	HTML string   `json:"html"`
	Jobs []TexJob `json:"jobs"`
}

const (
	markerPrefix = "COF_TEX_"
	classBlock   = "cof-math-block"
	classInline  = "cof-math-inline"
)

// Marker returns the comment text for job id, without the comment delimiters.
func Marker(id int) string {
	return markerPrefix + strconv.Itoa(id)
}

// Placeholder returns the serialized placeholder for job id.
func Placeholder(id int, display bool) string {
	return `<span class="` + placeholderClass(display) + `"><!--` + Marker(id) + `--></span>`
}

func placeholderClass(display bool) string {
	if display {
		return classBlock
	}
	return classInline
}

func placeholderNode(id int, display bool) *html.Node {
	span := htmldom.Element("span", html.Attribute{Key: "class", Val: placeholderClass(display)})
	span.AppendChild(htmldom.Comment(Marker(id)))
	return span
}

// jobList hands out ids in emission order, starting at base.
type jobList struct {
	base int
	jobs []TexJob
}

func (l *jobList) add(latex string, display bool) int {
	id := l.base + len(l.jobs)
	l.jobs = append(l.jobs, TexJob{ID: id, Latex: latex, Display: display})
	return id
}
