package negotiate

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by this package unwraps to one of them.
var (
	ErrUnsupportedDepthConversion = errors.New("unsupported depth conversion")
	ErrUnsupportedAlphaStrip      = errors.New("unsupported alpha strip")
	ErrUnsupportedAlphaFill       = errors.New("unsupported alpha fill")
	ErrUnsupportedPaletteExpand   = errors.New("unsupported palette expansion")
	ErrUnsupportedColorConversion = errors.New("unsupported color conversion")
	ErrUnsupportedDepthExpand     = errors.New("unsupported depth expansion")

	// ErrFormatMismatch means a plan was produced but does not lead to the
	// destination format. It points at a bug, not at bad input.
	ErrFormatMismatch = errors.New("format mismatch")

	// ErrWrongColorSpace is returned by Require.
	ErrWrongColorSpace = errors.New("wrong color space")
)

// Error describes why no plan exists.
type Error struct {
	Kind    error
	Step    StepKind   // the step that could not be requested, if any
	Missing Capability // capabilities the codec would need, zero if none would help
	Reason  string
}

func (e *Error) Error() string {
	if e.Missing != 0 {
		return fmt.Sprintf("negotiate: %s; codec lacks %s", e.Reason, e.Missing)
	}
	return "negotiate: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Kind }
