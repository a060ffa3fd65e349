package mathrender

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Math tree produced by the LaTeX parser and written out as OMML.
type mnode interface {
	writeOMML(b *strings.Builder)
}

type mrun struct {
	text string
	sty  string // "" italic, "p" plain, "b" bold, "i" explicit italic
	scr  string // "" or an OMML script such as double-struck
}

type mgroup struct {
	body []mnode
}

type mfrac struct {
	num, den []mnode
	noBar    bool
}

type mrad struct {
	deg, body []mnode
}

type mscript struct {
	base     mnode
	sub, sup []mnode
}

type mdelim struct {
	open, close string
	body        []mnode
}

type mnary struct {
	chr      string
	undOvr   bool
	sub, sup []mnode
	body     []mnode
}

type macc struct {
	chr  string
	body []mnode
}

type mbar struct {
	top  bool
	body []mnode
}

type mmatrix struct {
	rows [][][]mnode
}

type meqarr struct {
	rows [][]mnode
}

var greek = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ϵ", "varepsilon": "ε",
	"zeta": "ζ", "eta": "η", "theta": "θ", "vartheta": "ϑ", "iota": "ι", "kappa": "κ",
	"lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ", "pi": "π", "varpi": "ϖ", "rho": "ρ",
	"varrho": "ϱ", "sigma": "σ", "varsigma": "ς", "tau": "τ", "upsilon": "υ", "phi": "ϕ",
	"varphi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ", "Pi": "Π",
	"Sigma": "Σ", "Upsilon": "Υ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",
}

var symbols = map[string]string{
	"times": "×", "cdot": "⋅", "pm": "±", "mp": "∓", "div": "÷", "ast": "∗", "star": "⋆", "circ": "∘",
	"leq": "≤", "le": "≤", "geq": "≥", "ge": "≥", "neq": "≠", "ne": "≠", "approx": "≈",
	"equiv": "≡", "sim": "∼", "simeq": "≃", "cong": "≅", "propto": "∝", "ll": "≪", "gg": "≫",
	"infty": "∞", "partial": "∂", "nabla": "∇", "prime": "′", "ell": "ℓ", "hbar": "ℏ",
	"Re": "ℜ", "Im": "ℑ", "aleph": "ℵ", "emptyset": "∅", "varnothing": "∅", "angle": "∠",
	"to": "→", "rightarrow": "→", "leftarrow": "←", "gets": "←", "Rightarrow": "⇒",
	"Leftarrow": "⇐", "leftrightarrow": "↔", "Leftrightarrow": "⇔", "implies": "⟹",
	"iff": "⟺", "mapsto": "↦", "uparrow": "↑", "downarrow": "↓",
	"in": "∈", "notin": "∉", "ni": "∋", "subset": "⊂", "subseteq": "⊆", "supset": "⊃",
	"supseteq": "⊇", "cup": "∪", "cap": "∩", "setminus": "∖", "forall": "∀", "exists": "∃",
	"neg": "¬", "lnot": "¬", "land": "∧", "wedge": "∧", "lor": "∨", "vee": "∨",
	"perp": "⊥", "parallel": "∥", "mid": "∣", "otimes": "⊗", "oplus": "⊕", "odot": "⊙",
	"ldots": "…", "dots": "…", "cdots": "⋯", "vdots": "⋮", "ddots": "⋱",
	"langle": "⟨", "rangle": "⟩", "lfloor": "⌊", "rfloor": "⌋", "lceil": "⌈", "rceil": "⌉",
	"vert": "|", "Vert": "‖", "lvert": "|", "rvert": "|", "lVert": "‖", "rVert": "‖",
	"triangle": "△", "degree": "°", "top": "⊤", "bot": "⊥", "vdash": "⊢", "models": "⊨",
	"|": "‖", "{": "{", "}": "}", "%": "%", "$": "$", "&": "&", "#": "#", "_": "_",
}

var spaces = map[string]string{
	",": "\u2009", ":": "\u205F", ";": "\u2004", " ": " ", "quad": "\u2003",
	"qquad": "\u2003\u2003", "!": "",
}

var functions = map[string]bool{
	"sin": true, "cos": true, "tan": true, "cot": true, "sec": true, "csc": true,
	"arcsin": true, "arccos": true, "arctan": true, "sinh": true, "cosh": true, "tanh": true,
	"log": true, "ln": true, "lg": true, "exp": true, "lim": true, "max": true, "min": true,
	"sup": true, "inf": true, "det": true, "gcd": true, "deg": true, "dim": true, "ker": true,
	"arg": true, "Pr": true, "mod": true, "limsup": true, "liminf": true, "argmax": true, "argmin": true,
}

var naryOps = map[string]struct {
	chr    string
	undOvr bool
}{
	"sum": {"∑", true}, "prod": {"∏", true}, "coprod": {"∐", true},
	"bigcup": {"⋃", true}, "bigcap": {"⋂", true}, "bigoplus": {"⨁", true}, "bigotimes": {"⨂", true},
	"int": {"∫", false}, "iint": {"∬", false}, "iiint": {"∭", false}, "oint": {"∮", false},
}

var accents = map[string]string{
	"hat": "\u0302", "widehat": "\u0302", "tilde": "\u0303", "widetilde": "\u0303",
	"bar": "\u0305", "vec": "\u20D7", "dot": "\u0307", "ddot": "\u0308", "check": "\u030C",
	"acute": "\u0301", "grave": "\u0300", "breve": "\u0306",
}

var fontScripts = map[string]string{
	"mathbb": "double-struck", "mathcal": "script", "mathscr": "script",
	"mathfrak": "fraktur", "mathsf": "sans-serif", "mathtt": "monospace",
}

var matrixDelims = map[string][2]string{
	"matrix": {"", ""}, "pmatrix": {"(", ")"}, "bmatrix": {"[", "]"},
	"Bmatrix": {"{", "}"}, "vmatrix": {"|", "|"}, "Vmatrix": {"‖", "‖"},
	"smallmatrix": {"", ""}, "cases": {"{", ""}, "array": {"", ""},
}

var eqArrayEnvs = map[string]bool{
	"aligned": true, "align": true, "align*": true, "gathered": true,
	"gather": true, "gather*": true, "split": true, "eqnarray": true, "eqnarray*": true,
}

// texParser is a recursive-descent parser for the math-mode LaTeX subset
// that chat transcripts and papers commonly use.
type texParser struct {
	src string
	pos int
}

// stop tokens returned by parseSeq.
const (
	stopEOF     = ""
	stopBrace   = "}"
	stopCell    = "&"
	stopRow     = `\\`
	stopRight   = `\right`
	stopEnd     = `\end`
	stopBracket = "]"
)

func parseTeX(src string) ([]mnode, error) {
	p := &texParser{src: src}
	nodes, stop, err := p.parseSeq(false)
	if err != nil {
		return nil, err
	}
	for stop != stopEOF {
		switch stop {
		case stopCell, stopRow:
			// Alignment marks outside an environment are dropped.
			more, next, err := p.parseSeq(false)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, more...)
			stop = next
		default:
			return nil, p.errorf("unexpected %q", stop)
		}
	}
	return nodes, nil
}

func (p *texParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrParse, fmt.Sprintf(format, args...), p.pos)
}

func (p *texParser) eof() bool { return p.pos >= len(p.src) }

func (p *texParser) skipSpace() {
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

// peekStop reports the stop token at the current position without consuming
// it. inBracket makes "]" a stop, for optional arguments.
func (p *texParser) peekStop(inBracket bool) (string, bool) {
	rest := p.src[p.pos:]
	switch {
	case p.eof():
		return stopEOF, true
	case rest[0] == '}':
		return stopBrace, true
	case rest[0] == '&':
		return stopCell, true
	case inBracket && rest[0] == ']':
		return stopBracket, true
	case strings.HasPrefix(rest, stopRow):
		return stopRow, true
	case p.commandAhead("right"):
		return stopRight, true
	case p.commandAhead("end"):
		return stopEnd, true
	}
	return "", false
}

// commandAhead reports whether \name (and not a longer command) starts at pos.
func (p *texParser) commandAhead(name string) bool {
	rest := p.src[p.pos:]
	if !strings.HasPrefix(rest, `\`+name) {
		return false
	}
	after := rest[1+len(name):]
	return after == "" || !isASCIILetter(after[0])
}

// consumeStop moves past a stop token returned by peekStop.
func (p *texParser) consumeStop(stop string) {
	switch stop {
	case stopBrace, stopCell, stopBracket:
		p.pos++
	case stopRow:
		p.pos += 2
	case stopRight:
		p.pos += len(`\right`)
	case stopEnd:
		p.pos += len(`\end`)
	}
}

// parseSeq parses atoms until a stop token, which it consumes and returns.
func (p *texParser) parseSeq(inBracket bool) ([]mnode, string, error) {
	var nodes []mnode
	for {
		p.skipSpace()
		if stop, ok := p.peekStop(inBracket); ok {
			p.consumeStop(stop)
			return nodes, stop, nil
		}
		n, err := p.parseScripted()
		if err != nil {
			return nil, "", err
		}
		if n != nil {
			nodes = append(nodes, n)
		}
	}
}

// parseGroupBody parses up to the matching "}" after an opening "{" has been
// consumed.
func (p *texParser) parseGroupBody() ([]mnode, error) {
	var nodes []mnode
	for {
		more, stop, err := p.parseSeq(false)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, more...)
		switch stop {
		case stopBrace:
			return nodes, nil
		case stopCell, stopRow:
			continue
		case stopEOF:
			return nil, p.errorf("missing }")
		default:
			return nil, p.errorf("unexpected %q inside group", stop)
		}
	}
}

// parseArg reads one macro argument: a braced group or a single token.
func (p *texParser) parseArg() ([]mnode, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("missing argument")
	}
	if p.src[p.pos] == '{' {
		p.pos++
		return p.parseGroupBody()
	}
	if _, ok := p.peekStop(false); ok {
		return nil, p.errorf("missing argument")
	}
	n, err := p.parseAtom(true)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	return []mnode{n}, nil
}

// rawArg returns the verbatim text of a braced argument.
func (p *texParser) rawArg() (string, error) {
	p.skipSpace()
	if p.eof() || p.src[p.pos] != '{' {
		return "", p.errorf("expected {")
	}
	depth := 0
	start := p.pos + 1
	for i := p.pos; i < len(p.src); i++ {
		switch p.src[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				p.pos = i + 1
				return p.src[start:i], nil
			}
		}
	}
	return "", p.errorf("missing }")
}

// parseScripted parses an atom followed by any ^ and _ scripts.
func (p *texParser) parseScripted() (mnode, error) {
	base, err := p.parseAtom(false)
	if err != nil {
		return nil, err
	}
	var sub, sup []mnode
	hasScript := false
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		c := p.src[p.pos]
		if c == '\'' {
			p.pos++
			sup = append(sup, &mrun{text: "′", sty: "p"})
			hasScript = true
			continue
		}
		if c != '^' && c != '_' {
			break
		}
		p.pos++
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		if c == '^' {
			sup = append(sup, arg...)
		} else {
			sub = append(sub, arg...)
		}
		hasScript = true
	}

	if nary, ok := base.(*mnary); ok {
		nary.sub, nary.sup = sub, sup
		p.skipSpace()
		if _, stop := p.peekStop(false); !stop {
			body, err := p.parseScripted()
			if err != nil {
				return nil, err
			}
			if body != nil {
				nary.body = []mnode{body}
			}
		}
		return nary, nil
	}
	if !hasScript {
		return base, nil
	}
	if base == nil {
		base = &mrun{}
	}
	return &mscript{base: base, sub: sub, sup: sup}, nil
}

// parseAtom parses one symbol, group or command. single limits digit runs
// to one digit, as TeX does for undelimited arguments.
func (p *texParser) parseAtom(single bool) (mnode, error) {
	p.skipSpace()
	if p.eof() {
		return nil, nil
	}
	c := p.src[p.pos]
	switch {
	case c == '{':
		p.pos++
		body, err := p.parseGroupBody()
		if err != nil {
			return nil, err
		}
		return &mgroup{body: body}, nil
	case c == '}':
		return nil, p.errorf("unbalanced }")
	case c == '^' || c == '_':
		// A script with no base attaches to an empty run.
		return nil, nil
	case c == '\\':
		return p.parseCommand()
	case c >= '0' && c <= '9':
		start := p.pos
		p.pos++
		for !single && !p.eof() && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.' && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1])) {
			p.pos++
		}
		return &mrun{text: p.src[start:p.pos], sty: "p"}, nil
	case c == '~':
		p.pos++
		return &mrun{text: " ", sty: "p"}, nil
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	if unicode.IsLetter(r) {
		return &mrun{text: string(r)}, nil
	}
	return &mrun{text: string(r), sty: "p"}, nil
}

func (p *texParser) readCommandName() string {
	p.pos++ // backslash
	if p.eof() {
		return ""
	}
	start := p.pos
	for !p.eof() && isASCIILetter(p.src[p.pos]) {
		p.pos++
	}
	if p.pos > start {
		return p.src[start:p.pos]
	}
	_, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	return p.src[start:p.pos]
}

func (p *texParser) parseCommand() (mnode, error) {
	name := p.readCommandName()
	switch {
	case name == "":
		return nil, p.errorf("dangling backslash")
	case greek[name] != "":
		if unicode.IsUpper([]rune(name)[0]) {
			return &mrun{text: greek[name], sty: "p"}, nil
		}
		return &mrun{text: greek[name]}, nil
	case symbols[name] != "":
		return &mrun{text: symbols[name], sty: "p"}, nil
	case functions[name]:
		return &mrun{text: name, sty: "p"}, nil
	}
	if s, ok := spaces[name]; ok {
		if s == "" {
			return nil, nil
		}
		return &mrun{text: s, sty: "p"}, nil
	}
	if op, ok := naryOps[name]; ok {
		return &mnary{chr: op.chr, undOvr: op.undOvr}, nil
	}
	if chr, ok := accents[name]; ok {
		body, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		return &macc{chr: chr, body: body}, nil
	}
	if scr, ok := fontScripts[name]; ok {
		body, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		styleRuns(body, "p", scr)
		return &mgroup{body: body}, nil
	}

	switch name {
	case "frac", "dfrac", "tfrac", "cfrac", "binom", "dbinom", "tbinom":
		num, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		den, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(name, "binom") {
			return &mdelim{open: "(", close: ")", body: []mnode{&mfrac{num: num, den: den, noBar: true}}}, nil
		}
		return &mfrac{num: num, den: den}, nil

	case "sqrt":
		var deg []mnode
		p.skipSpace()
		if !p.eof() && p.src[p.pos] == '[' {
			p.pos++
			d, stop, err := p.parseSeq(true)
			if err != nil {
				return nil, err
			}
			if stop != stopBracket {
				return nil, p.errorf("missing ]")
			}
			deg = d
		}
		body, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		return &mrad{deg: deg, body: body}, nil

	case "text", "textrm", "textnormal", "mbox", "textup", "mathrm", "operatorname", "textit", "textbf", "mathbf", "boldsymbol", "bm", "mathit":
		return p.parseStyled(name)

	case "overline", "underline":
		body, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		return &mbar{top: name == "overline", body: body}, nil

	case "left":
		return p.parseLeftRight()

	case "begin":
		return p.parseEnvironment()

	case "displaystyle", "textstyle", "scriptstyle", "limits", "nolimits", "big", "Big", "bigg", "Bigg",
		"bigl", "bigr", "Bigl", "Bigr", "biggl", "biggr", "middle", "nonumber", "notag":
		return nil, nil
	}
	return nil, p.errorf("unsupported command \\%s", name)
}

func (p *texParser) parseStyled(name string) (mnode, error) {
	switch name {
	case "text", "textrm", "textnormal", "mbox", "textup", "textit", "textbf":
		raw, err := p.rawArg()
		if err != nil {
			return nil, err
		}
		sty := "p"
		if name == "textbf" {
			sty = "b"
		} else if name == "textit" {
			sty = "i"
		}
		return &mrun{text: raw, sty: sty}, nil
	case "mathrm", "operatorname":
		body, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		styleRuns(body, "p", "")
		return &mgroup{body: body}, nil
	case "mathbf", "boldsymbol", "bm":
		body, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		styleRuns(body, "b", "")
		return &mgroup{body: body}, nil
	default: // mathit
		body, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		styleRuns(body, "i", "")
		return &mgroup{body: body}, nil
	}
}

// parseDelimiter reads the token after \left or \right.
func (p *texParser) parseDelimiter() (string, error) {
	p.skipSpace()
	if p.eof() {
		return "", p.errorf("missing delimiter")
	}
	if p.src[p.pos] == '\\' {
		name := p.readCommandName()
		if s, ok := symbols[name]; ok {
			return s, nil
		}
		return "", p.errorf("unsupported delimiter \\%s", name)
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	if r == '.' {
		return "", nil
	}
	return string(r), nil
}

func (p *texParser) parseLeftRight() (mnode, error) {
	open, err := p.parseDelimiter()
	if err != nil {
		return nil, err
	}
	var body []mnode
	for {
		more, stop, err := p.parseSeq(false)
		if err != nil {
			return nil, err
		}
		body = append(body, more...)
		if stop == stopRight {
			break
		}
		if stop != stopCell && stop != stopRow {
			return nil, p.errorf("\\left without \\right")
		}
	}
	closeDelim, err := p.parseDelimiter()
	if err != nil {
		return nil, err
	}
	return &mdelim{open: open, close: closeDelim, body: body}, nil
}

func (p *texParser) parseEnvironment() (mnode, error) {
	env, err := p.rawArg()
	if err != nil {
		return nil, err
	}
	env = strings.TrimSpace(env)
	delims, isMatrix := matrixDelims[env]
	if !isMatrix && !eqArrayEnvs[env] {
		return nil, p.errorf("unsupported environment %q", env)
	}
	if env == "array" {
		if _, err := p.rawArg(); err != nil {
			return nil, err
		}
	}

	var rows [][][]mnode
	var row [][]mnode
	for {
		cell, stop, err := p.parseSeq(false)
		if err != nil {
			return nil, err
		}
		row = append(row, cell)
		switch stop {
		case stopCell:
			continue
		case stopRow:
			rows = append(rows, row)
			row = nil
			continue
		case stopEnd:
			name, err := p.rawArg()
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(name) != env {
				return nil, p.errorf("\\begin{%s} closed by \\end{%s}", env, name)
			}
		default:
			return nil, p.errorf("unterminated environment %q", env)
		}
		break
	}
	if !rowEmpty(row) {
		rows = append(rows, row)
	}

	if !isMatrix {
		eq := &meqarr{}
		for _, r := range rows {
			var line []mnode
			for _, c := range r {
				line = append(line, c...)
			}
			eq.rows = append(eq.rows, line)
		}
		return eq, nil
	}
	m := &mmatrix{rows: rows}
	if delims[0] == "" && delims[1] == "" {
		return m, nil
	}
	return &mdelim{open: delims[0], close: delims[1], body: []mnode{m}}, nil
}

func rowEmpty(row [][]mnode) bool {
	for _, c := range row {
		if len(c) > 0 {
			return false
		}
	}
	return true
}

// styleRuns applies a style and script to every run below nodes.
func styleRuns(nodes []mnode, sty, scr string) {
	for _, n := range nodes {
		switch v := n.(type) {
		case *mrun:
			if sty != "" {
				v.sty = sty
			}
			if scr != "" {
				v.scr = scr
			}
		case *mgroup:
			styleRuns(v.body, sty, scr)
		case *mscript:
			styleRuns([]mnode{v.base}, sty, scr)
			styleRuns(v.sub, sty, scr)
			styleRuns(v.sup, sty, scr)
		}
	}
}

func isASCIILetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
