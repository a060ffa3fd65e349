package parser

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// TextParser handles plain text files. Blank lines separate paragraphs and
// line breaks inside a paragraph are kept.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Document{
		Title:  stem(filename),
		Source: filename,
		Format: FormatHTML,
		Body:   paragraphsHTML(paragraphs),
	}, nil
}

// paragraphsHTML renders each paragraph as <p>, with <br> between its lines.
func paragraphsHTML(paragraphs []string) string {
	var sb strings.Builder
	for _, para := range paragraphs {
		sb.WriteString("<p>")
		for i, line := range strings.Split(para, "\n") {
			if i > 0 {
				sb.WriteString("<br>")
			}
			sb.WriteString(html.EscapeString(strings.TrimRight(line, " \t\r")))
		}
		sb.WriteString("</p>\n")
	}
	return sb.String()
}
