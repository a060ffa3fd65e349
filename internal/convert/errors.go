package convert

import (
	"errors"
	"fmt"

	"github.com/dgallion1/officemath/internal/mathrender"
	"github.com/dgallion1/officemath/internal/ooxml"
)

var (
	ErrEmptyInput      = errors.New("input is empty")
	ErrInvalidEncoding = errors.New("input is not valid UTF-8")
	ErrUnreadableInput = errors.New("input cannot be read")

	// ErrNoContent means well-formed input produced nothing to render.
	ErrNoContent = errors.New("no paragraphs produced from input")

	ErrPackaging = ooxml.ErrPackaging
)

// InputError is a fatal problem with the input itself.
type InputError struct {
	Source string
	Err    error
}

func (e *InputError) Error() string {
	if e.Source == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// MathConversionError is one formula that failed to render. The document
// keeps an empty string in its place.
type MathConversionError = mathrender.ConversionError

// PlaceholderMismatch lists job ids whose markers were gone when results were
// substituted back.
type PlaceholderMismatch struct {
	IDs []int
}

func (w *PlaceholderMismatch) Error() string {
	return fmt.Sprintf("%d math placeholder(s) missing: %v", len(w.IDs), w.IDs)
}
