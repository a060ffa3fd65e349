package doctree

import (
	"regexp"
	"strings"
)

const (
	legacyMathNS = "http://schemas.microsoft.com/office/2004/12/omml"
	mathNS       = "http://schemas.openxmlformats.org/officeDocument/2006/math"
)

// ommlNames maps lowercased OMML and run-property element names back to
// their schema spelling. HTML parsers lowercase element names, which Word
// rejects.
var ommlNames = func() map[string]string {
	names := []string{
		"acc", "accPr", "aln", "alnScr", "argPr", "argSz", "bar", "barPr", "baseJc",
		"begChr", "borderBox", "borderBoxPr", "box", "boxPr", "brk", "chr", "ctrlPr",
		"d", "degHide", "deg", "den", "dPr", "e", "endChr", "eqArr", "eqArrPr",
		"f", "fName", "fPr", "func", "funcPr", "groupChr", "groupChrPr", "grow",
		"lim", "limLoc", "limLow", "limLowPr", "limUpp", "limUppPr", "lit",
		"m", "mathPr", "mc", "mcJc", "mcPr", "mcs", "mPr", "mr", "nary", "naryPr",
		"noBreak", "nor", "num", "oMath", "oMathPara", "oMathParaPr", "phant", "phantPr",
		"pos", "r", "rad", "radPr", "rPr", "scr", "sepChr", "show", "sPre", "sPrePr",
		"sSub", "sSubPr", "sSubSup", "sSubSupPr", "sSup", "sSupPr", "sty", "sub",
		"subHide", "sup", "supHide", "t", "type", "vertJc", "zeroAsc", "zeroDesc", "zeroWid",
		"rFonts", "rStyle", "noProof", "color", "sz", "szCs", "lang", "i", "b",
	}
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[strings.ToLower(n)] = n
	}
	return m
}()

var ommlTagRE = regexp.MustCompile(`(</?(?:m|w):)([A-Za-z]+)`)

// NormalizeOMML rewrites the legacy Office math namespace to the OpenXML one
// and restores the case of element names. It is idempotent.
func NormalizeOMML(xml string) string {
	xml = strings.ReplaceAll(xml, legacyMathNS, mathNS)
	return ommlTagRE.ReplaceAllStringFunc(xml, func(tag string) string {
		m := ommlTagRE.FindStringSubmatch(tag)
		if name, ok := ommlNames[strings.ToLower(m[2])]; ok {
			return m[1] + name
		}
		return tag
	})
}

// ExtractOMML returns the normalized math fragment held by an equation
// conditional comment such as
//
//	<!--[if gte msEquation 12]><m:oMath>…</m:oMath><![endif]-->
//
// data is the comment text without its <!-- and --> delimiters.
func ExtractOMML(data string) (string, bool) {
	if !strings.HasPrefix(data, "[if") {
		return "", false
	}
	end := strings.Index(data, "]>")
	if end < 0 {
		return "", false
	}
	cond := strings.ToLower(data[:end])
	if !strings.Contains(cond, "msequation") && !strings.Contains(cond, "mso") {
		return "", false
	}
	body := data[end+2:]
	if i := strings.LastIndex(body, "<![endif]"); i >= 0 {
		body = body[:i]
	}
	body = NormalizeOMML(strings.TrimSpace(body))
	if !strings.HasPrefix(body, "<m:oMath") {
		return "", false
	}
	return body, true
}
