package texmath

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Zero-width characters that ride along when math identifiers are copied
// out of rendered pages.
var zeroWidth = map[rune]bool{
	'\u200B': true,
	'\u200C': true,
	'\u200D': true,
	'\u2060': true,
	'\uFEFF': true,
}

// Stray glyphs and their LaTeX spelling. U+E020 is a private-use glyph some
// fonts use for "not equal".
var glyphs = map[rune]string{
	'‖': "||",
	'\uE020': `\neq`,
	'⊗': `\otimes`,
	'ϵ': `\epsilon`,
	'ϕ': `\phi`,
	'→': `\to`,
	'≠': `\neq`,
	'⟨': `\langle`,
	'⟩': `\rangle`,
}

// NormalizeLatex strips zero-width characters and replaces a small set of
// Unicode math glyphs with LaTeX commands.
func NormalizeLatex(s string) string {
	s = norm.NFC.String(s)

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if zeroWidth[r] {
			continue
		}
		rep, ok := glyphs[r]
		if !ok {
			b.WriteRune(r)
			continue
		}
		b.WriteString(rep)
		// "\phi" followed by a letter would read as a different command.
		if rep[0] == '\\' && nextVisible(runes, i+1) {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func nextVisible(runes []rune, i int) bool {
	for ; i < len(runes); i++ {
		if zeroWidth[runes[i]] {
			continue
		}
		return unicode.IsLetter(runes[i]) && runes[i] < unicode.MaxASCII
	}
	return false
}
