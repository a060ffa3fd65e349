package mathph

import (
	"regexp"
	"strconv"
	"strings"
)

// Markdown cannot carry the placeholder span through a renderer that escapes
// raw HTML, so Markdown math is first replaced by a plain alphanumeric token
// and the token is swapped for the span afterwards.
const (
	mdTokenPrefix = "COFMATHPH"
	mdTokenSuffix = "X"
)

var mdTokenRE = regexp.MustCompile(mdTokenPrefix + `(\d+)` + mdTokenSuffix)

func markdownToken(id int) string {
	return mdTokenPrefix + strconv.Itoa(id) + mdTokenSuffix
}

type mdSegment struct {
	text string
	code bool
}

// splitMarkdownCode separates fenced (```) and inline (`) code from prose.
// Delimiters belong to the code segment they open or close.
func splitMarkdownCode(md string) []mdSegment {
	var segs []mdSegment
	start := 0
	flush := func(end int, code bool) {
		if end > start {
			segs = append(segs, mdSegment{text: md[start:end], code: code})
		}
		start = end
	}

	inFence, inInline := false, false
	for i := 0; i < len(md); {
		if strings.HasPrefix(md[i:], "```") {
			if inFence {
				flush(i+3, true)
				inFence = false
			} else {
				flush(i, inInline)
				inFence, inInline = true, false
			}
			i += 3
			continue
		}
		if !inFence && md[i] == '`' {
			if inInline {
				flush(i+1, true)
			} else {
				flush(i, false)
			}
			inInline = !inInline
			i++
			continue
		}
		i++
	}
	flush(len(md), inFence || inInline)
	return segs
}

// ExtractMarkdownMath replaces $$…$$, \[…\], \(…\) and $…$ outside code with
// tokens that survive Markdown rendering. The same currency guard as
// InjectTextMath applies.
func ExtractMarkdownMath(md string) (string, []TexJob) {
	var jobs jobList
	var b strings.Builder
	b.Grow(len(md))
	for _, seg := range splitMarkdownCode(md) {
		if seg.code {
			b.WriteString(seg.text)
			continue
		}
		for _, p := range scanTextMath(seg.text) {
			if !p.math {
				b.WriteString(p.text)
				continue
			}
			b.WriteString(markdownToken(jobs.add(p.text, p.display)))
		}
	}
	return b.String(), jobs.jobs
}

// RestoreMarkdownPlaceholders swaps the tokens left by ExtractMarkdownMath for
// placeholder spans. Tokens that name no job are left as they are.
func RestoreMarkdownPlaceholders(htmlSrc string, jobs []TexJob) string {
	byID := make(map[int]TexJob, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}
	return mdTokenRE.ReplaceAllStringFunc(htmlSrc, func(tok string) string {
		id, err := strconv.Atoi(tok[len(mdTokenPrefix) : len(tok)-len(mdTokenSuffix)])
		if err != nil {
			return tok
		}
		job, ok := byID[id]
		if !ok {
			return tok
		}
		return Placeholder(job.ID, job.Display)
	})
}
