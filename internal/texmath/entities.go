// Package texmath holds the small text transforms applied to LaTeX before it
// is handed to a math renderer: entity decoding and glyph normalization.
package texmath

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

var namedEntities = map[string]rune{
	"amp":  '&',
	"lt":   '<',
	"gt":   '>',
	"quot": '"',
	"apos": '\'',
	"nbsp": ' ',
}

// DecodeEntities decodes a fixed set of named references plus decimal and
// hexadecimal numeric references. Anything unrecognized is kept as written.
// Decoding is a single pass, so "&amp;lt;" becomes "&lt;".
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}
		semi := strings.IndexByte(s[i:], ';')
		if semi < 0 {
			b.WriteByte('&')
			i++
			continue
		}
		ent := s[i+1 : i+semi]
		if r, ok := decodeEntity(ent); ok {
			b.WriteRune(r)
		} else {
			b.WriteString(s[i : i+semi+1])
		}
		i += semi + 1
	}
	return b.String()
}

func decodeEntity(ent string) (rune, bool) {
	if r, ok := namedEntities[ent]; ok {
		return r, true
	}
	if len(ent) < 2 || ent[0] != '#' {
		return 0, false
	}
	var (
		n   uint64
		err error
	)
	if ent[1] == 'x' || ent[1] == 'X' {
		n, err = strconv.ParseUint(ent[2:], 16, 32)
	} else {
		n, err = strconv.ParseUint(ent[1:], 10, 32)
	}
	if err != nil {
		return 0, false
	}
	r := rune(n)
	if !utf8.ValidRune(r) {
		return 0, false
	}
	return r, true
}
