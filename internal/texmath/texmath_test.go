package texmath

import "testing"

func TestDecodeEntities(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a &amp; b", "a & b"},
		{"&lt;mi&gt;", "<mi>"},
		{"&quot;x&quot; &#39;y&#x27;", `"x" 'y'`},
		{"&#955; &#x3bb; &#X3BB;", "λ λ λ"},
		{"&amp;lt;", "&lt;"},
		{"&unknown; stays", "&unknown; stays"},
		{"dangling & ampersand", "dangling & ampersand"},
		{"no semicolon &amp", "no semicolon &amp"},
		{"&#xD800; surrogate", "&#xD800; surrogate"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DecodeEntities(tt.in); got != tt.want {
			t.Errorf("DecodeEntities(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeLatex(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"zero width", "x\u200B_\u200D{i}\uFEFF", "x_{i}"},
		{"norm bars", "‖v‖", "||v||"},
		{"private use neq", "a \uE020 b", `a \neq b`},
		{"phi before letter", "ϕx", `\phi x`},
		{"phi before brace", "ϕ(h)", `\phi(h)`},
		{"arrow", "f: A → B", `f: A \to B`},
		{"brackets", "⟨u,v⟩", `\langle u,v\rangle`},
		{"tensor", "A⊗B", `A\otimes B`},
		{"plain", `\frac{a}{b}`, `\frac{a}{b}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeLatex(tt.in); got != tt.want {
				t.Errorf("NormalizeLatex(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeLatex_Idempotent(t *testing.T) {
	in := "ϕ(h,r,t) ≠ ‖x‖ → ϵ"
	once := NormalizeLatex(in)
	if twice := NormalizeLatex(once); twice != once {
		t.Errorf("normalizing twice changed output: %q vs %q", once, twice)
	}
}
