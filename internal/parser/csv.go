package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// CSVParser handles CSV files. The whole file becomes one table whose first
// row is the header.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &Document{
		Title:  stem(filename),
		Source: filename,
		Format: FormatHTML,
	}
	if len(records) == 0 {
		return doc, nil
	}

	var sb strings.Builder
	sb.WriteString("<table>\n")
	for i, row := range records {
		cell := "td"
		if i == 0 {
			cell = "th"
		}
		sb.WriteString("<tr>")
		for _, v := range row {
			sb.WriteString("<" + cell + ">")
			sb.WriteString(html.EscapeString(v))
			sb.WriteString("</" + cell + ">")
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</table>\n")
	doc.Body = sb.String()
	return doc, nil
}
