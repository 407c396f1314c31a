// Package negotiate decides which codec transforms turn a stream's native
// pixel format into the format a destination pixel type needs.
//
// Negotiate is pure: it looks at the source descriptor, the destination
// format and the codec's capability set and returns an ordered Plan, or a
// typed error naming the capability that is missing. Nothing is requested
// from the codec until the caller applies the plan, so a failed negotiation
// never leaves a half-configured stream behind.
package negotiate

import (
	"fmt"

	"github.com/AnyUserName/pngpix/internal/pixel"
)

// Descriptor is what the codec reports about the source stream.
type Descriptor struct {
	Format pixel.Format
	// Transparency is set when the stream carries a tRNS chunk.
	Transparency bool
}

// Transformer receives transform requests. The codec reader implements it.
type Transformer interface {
	Request(step Step) error
}

// Plan is an ordered list of transform requests.
type Plan []Step

// Apply requests every step from t in order and stops at the first error.
func (p Plan) Apply(t Transformer) error {
	for _, s := range p {
		if err := t.Request(s); err != nil {
			return fmt.Errorf("negotiate: request %s: %w", s, err)
		}
	}
	return nil
}

// Result returns the format src becomes once every step is applied.
func (p Plan) Result(src pixel.Format) pixel.Format {
	for _, s := range p {
		src = s.apply(src)
	}
	return src
}

// Kinds returns the step kinds of the plan.
func (p Plan) Kinds() []StepKind {
	out := make([]StepKind, len(p))
	for i, s := range p {
		out[i] = s.Kind
	}
	return out
}

func (p Plan) Strings() []string {
	out := make([]string, len(p))
	for i, s := range p {
		out[i] = s.String()
	}
	return out
}

type options struct {
	filler    uint16
	fillerSet bool
}

// Option configures Negotiate.
type Option func(*options)

// WithFiller sets the alpha value added when the source has no alpha channel.
// By default the filler is fully opaque at the destination depth.
func WithFiller(v uint16) Option {
	return func(o *options) {
		o.filler = v
		o.fillerSet = true
	}
}

// Negotiate computes the transform plan from src to dst under caps.
//
// Steps are considered in a fixed order: 16-to-8 reduction, alpha removal,
// alpha addition, palette expansion, gray/RGB conversion, sub-8-bit gray
// expansion, palette unpacking and 8-to-16 expansion. A step whose
// precondition holds but whose capability is missing aborts the negotiation
// and no steps are returned.
func Negotiate(src Descriptor, dst pixel.Format, caps Capability, opts ...Option) (Plan, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !o.fillerSet {
		o.filler = dst.AlphaFiller()
	}
	o.filler &= dst.MaxSample()

	if err := src.Format.Validate(); err != nil {
		return nil, fmt.Errorf("negotiate: source: %w", err)
	}
	if err := dst.Validate(); err != nil {
		return nil, fmt.Errorf("negotiate: destination: %w", err)
	}
	if src.Format == dst {
		return Plan{}, nil
	}
	if err := reachable(src.Format, dst); err != nil {
		return nil, err
	}

	s := src.Format
	var plan Plan
	add := func(kind StepKind, filler uint16) error {
		info := steps[kind]
		if !caps.Has(info.cap) {
			return &Error{Kind: info.kind, Step: kind, Missing: info.cap, Reason: info.reason}
		}
		plan = append(plan, Step{Kind: kind, Filler: filler})
		return nil
	}

	if s.Depth == 16 && dst.Depth == 8 {
		if err := add(StepStrip16, 0); err != nil {
			return nil, err
		}
	}

	if s.HasAlpha() && !dst.HasAlpha() {
		if err := add(StepStripAlpha, 0); err != nil {
			return nil, err
		}
	}

	if !s.HasAlpha() && dst.HasAlpha() {
		var err error
		switch {
		case s.IsPalette() && src.Transparency && caps.Has(TRNSToAlpha):
			err = add(StepTRNSToAlpha, 0)
		case caps.Has(Filler):
			err = add(StepAddAlpha, o.filler)
		default:
			missing := Filler
			if s.IsPalette() && src.Transparency {
				missing |= TRNSToAlpha
			}
			err = &Error{
				Kind:    ErrUnsupportedAlphaFill,
				Step:    StepAddAlpha,
				Missing: missing,
				Reason:  steps[StepAddAlpha].reason,
			}
		}
		if err != nil {
			return nil, err
		}
	}

	// Palette expansion always lands on RGB, so a gray destination still needs
	// the RGB-to-gray step below.
	rgbLike, grayLike := s.IsRGBLike(), s.IsGrayLike()
	if s.IsPalette() && !dst.IsPalette() {
		if err := add(StepPaletteToRGB, 0); err != nil {
			return nil, err
		}
		rgbLike, grayLike = true, false
	}

	switch {
	case grayLike && dst.IsRGBLike():
		if err := add(StepGrayToRGB, 0); err != nil {
			return nil, err
		}
	case rgbLike && dst.IsGrayLike():
		if err := add(StepRGBToGray, 0); err != nil {
			return nil, err
		}
	}

	if s.IsGrayLike() && s.Depth < 8 && dst.Depth >= 8 {
		if err := add(StepGrayExpand, 0); err != nil {
			return nil, err
		}
	}

	if s.IsPalette() && dst.IsPalette() && s.Depth < 8 && dst.Depth == 8 {
		if err := add(StepUnpack, 0); err != nil {
			return nil, err
		}
	}

	if s.Depth <= 8 && dst.Depth == 16 {
		if err := add(StepExpand16, 0); err != nil {
			return nil, err
		}
	}

	if got := plan.Result(s); got != dst {
		return nil, &Error{
			Kind:   ErrFormatMismatch,
			Reason: fmt.Sprintf("plan %v turns %s into %s, not %s", plan.Strings(), s, got, dst),
		}
	}
	return plan, nil
}

// reachable rejects destinations no combination of transforms can produce.
func reachable(src, dst pixel.Format) error {
	switch {
	case dst.Packed() && src.Color == dst.Color:
		return &Error{
			Kind:   ErrUnsupportedDepthConversion,
			Reason: fmt.Sprintf("cannot convert %d-bit samples to %d-bit", src.Depth, dst.Depth),
		}
	case dst.Packed():
		return &Error{
			Kind:   ErrUnsupportedColorConversion,
			Reason: fmt.Sprintf("cannot convert %s to packed %s", src, dst),
		}
	case dst.IsPalette() && !src.IsPalette():
		return &Error{
			Kind:   ErrUnsupportedColorConversion,
			Reason: fmt.Sprintf("cannot convert %s to indexed colors", src),
		}
	}
	return nil
}

// Require checks that src already is dst, the way a reader that refuses any
// conversion would.
func Require(src Descriptor, dst pixel.Format) error {
	if src.Format == dst {
		return nil
	}
	return &Error{
		Kind:   ErrWrongColorSpace,
		Reason: fmt.Sprintf("%s color space required, found %s", colorSpaceName(dst), src.Format),
	}
}

func colorSpaceName(f pixel.Format) string {
	var name string
	switch f.Color {
	case pixel.Gray:
		name = "Grayscale"
	case pixel.GrayAlpha:
		name = "Gray+Alpha"
	case pixel.RGB:
		name = "RGB"
	case pixel.RGBA:
		name = "RGBA"
	case pixel.Indexed:
		name = "Indexed"
	default:
		return f.String()
	}
	return fmt.Sprintf("%d-bit %s", f.Depth, name)
}
