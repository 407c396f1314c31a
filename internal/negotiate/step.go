package negotiate

import (
	"fmt"

	"github.com/AnyUserName/pngpix/internal/pixel"
)

// StepKind names one codec transform request.
type StepKind int

const (
	StepNone StepKind = iota
	StepStrip16
	StepStripAlpha
	StepTRNSToAlpha
	StepAddAlpha
	StepPaletteToRGB
	StepGrayToRGB
	StepRGBToGray
	StepGrayExpand
	StepUnpack
	StepExpand16
)

type stepInfo struct {
	name   string
	cap    Capability
	kind   error
	reason string
}

var steps = map[StepKind]stepInfo{
	StepStrip16:      {"strip16", Strip16, ErrUnsupportedDepthConversion, "expected 8-bit data but found 16-bit"},
	StepStripAlpha:   {"strip-alpha", StripAlpha, ErrUnsupportedAlphaStrip, "alpha channel unexpected"},
	StepTRNSToAlpha:  {"trns-to-alpha", TRNSToAlpha, ErrUnsupportedAlphaFill, "expected alpha channel but found tRNS"},
	StepAddAlpha:     {"add-alpha", Filler, ErrUnsupportedAlphaFill, "expected alpha channel but none found"},
	StepPaletteToRGB: {"palette-to-rgb", PaletteExpand, ErrUnsupportedPaletteExpand, "expected direct color but found indexed colors"},
	StepGrayToRGB:    {"gray-to-rgb", GrayToRGB, ErrUnsupportedColorConversion, "expected RGB data but found grayscale"},
	StepRGBToGray:    {"rgb-to-gray", RGBToGray, ErrUnsupportedColorConversion, "expected grayscale data but found RGB"},
	StepGrayExpand:   {"gray-expand", GrayExpand, ErrUnsupportedDepthExpand, "expected 8-bit data but found grayscale below 8 bits"},
	StepUnpack:       {"unpack", Packing, ErrUnsupportedDepthExpand, "expected one index per byte but found packed indices"},
	StepExpand16:     {"expand16", Expand16, ErrUnsupportedDepthConversion, "expected 16-bit data but found 8-bit"},
}

func (k StepKind) String() string {
	if s, ok := steps[k]; ok {
		return s.name
	}
	return "none"
}

// Capability returns the codec capability the step needs.
func (k StepKind) Capability() Capability { return steps[k].cap }

// Step is a single transform request. Filler is only used by StepAddAlpha.
type Step struct {
	Kind   StepKind
	Filler uint16
}

func (s Step) String() string {
	if s.Kind == StepAddAlpha {
		return fmt.Sprintf("%s(%#x)", s.Kind, s.Filler)
	}
	return s.Kind.String()
}

// apply returns the format the codec produces after this step. Palette plus
// alpha is a transient state that only palette expansion resolves.
func (s Step) apply(f pixel.Format) pixel.Format {
	switch s.Kind {
	case StepStrip16:
		if f.Depth == 16 {
			f.Depth = 8
		}
	case StepStripAlpha:
		f.Color &^= pixel.MaskAlpha
	case StepTRNSToAlpha, StepAddAlpha:
		f.Color |= pixel.MaskAlpha
	case StepPaletteToRGB:
		if f.Color&pixel.MaskPalette != 0 {
			f.Color = pixel.RGB | f.Color&pixel.MaskAlpha
			f.Depth = 8
		}
	case StepGrayToRGB:
		f.Color |= pixel.MaskColor
	case StepRGBToGray:
		f.Color &^= pixel.MaskColor
	case StepGrayExpand, StepUnpack:
		if f.Depth < 8 {
			f.Depth = 8
		}
	case StepExpand16:
		if f.Depth == 8 {
			f.Depth = 16
		}
	}
	return f
}
