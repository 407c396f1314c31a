// Package pixel describes PNG pixel formats and the typed pixel values that
// live in them.
//
// A Format is the static descriptor of a pixel type: its color type and bit
// depth. Every pixel type returns the same Format from its zero value, so a
// generic container can learn its layout with `var p P; p.Format()`.
package pixel

import (
	"fmt"
	"strings"
)

// ColorType is the PNG color type code as it appears in IHDR.
type ColorType uint8

// Color type bit masks.
const (
	MaskPalette ColorType = 1
	MaskColor   ColorType = 2
	MaskAlpha   ColorType = 4
)

// PNG color types.
const (
	Gray      ColorType = 0
	RGB       ColorType = MaskColor
	Indexed   ColorType = MaskColor | MaskPalette
	GrayAlpha ColorType = MaskAlpha
	RGBA      ColorType = MaskColor | MaskAlpha
)

func (c ColorType) String() string {
	switch c {
	case Gray:
		return "gray"
	case RGB:
		return "rgb"
	case Indexed:
		return "index"
	case GrayAlpha:
		return "ga"
	case RGBA:
		return "rgba"
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// Valid reports whether c is one of the five PNG color types.
func (c ColorType) Valid() bool {
	switch c {
	case Gray, RGB, Indexed, GrayAlpha, RGBA:
		return true
	}
	return false
}

// Format is a comparable pixel format descriptor.
type Format struct {
	Color ColorType
	Depth int // bits per sample: 1, 2, 4, 8 or 16
}

// Common formats, one per pixel type in this package.
var (
	FormatGray1  = Format{Gray, 1}
	FormatGray2  = Format{Gray, 2}
	FormatGray4  = Format{Gray, 4}
	FormatGray8  = Format{Gray, 8}
	FormatGray16 = Format{Gray, 16}
	FormatGA8    = Format{GrayAlpha, 8}
	FormatGA16   = Format{GrayAlpha, 16}
	FormatRGB8   = Format{RGB, 8}
	FormatRGB16  = Format{RGB, 16}
	FormatRGBA8  = Format{RGBA, 8}
	FormatRGBA16 = Format{RGBA, 16}
	FormatIndex1 = Format{Indexed, 1}
	FormatIndex2 = Format{Indexed, 2}
	FormatIndex4 = Format{Indexed, 4}
	FormatIndex8 = Format{Indexed, 8}
)

// Formats lists every format a pixel type exists for, in display order.
var Formats = []Format{
	FormatGray1, FormatGray2, FormatGray4, FormatGray8, FormatGray16,
	FormatGA8, FormatGA16,
	FormatRGB8, FormatRGB16,
	FormatRGBA8, FormatRGBA16,
	FormatIndex1, FormatIndex2, FormatIndex4, FormatIndex8,
}

// Channels returns the number of samples per pixel.
func (f Format) Channels() int {
	switch f.Color {
	case Gray, Indexed:
		return 1
	case GrayAlpha:
		return 2
	case RGB:
		return 3
	case RGBA:
		return 4
	}
	return 0
}

func (f Format) HasAlpha() bool  { return f.Color&MaskAlpha != 0 }
func (f Format) IsPalette() bool { return f.Color == Indexed }

// IsGrayLike reports a gray or gray+alpha layout.
func (f Format) IsGrayLike() bool { return f.Color&(MaskColor|MaskPalette) == 0 }

// IsRGBLike reports an rgb or rgba layout. Palette formats are neither.
func (f Format) IsRGBLike() bool { return f.Color&MaskColor != 0 && !f.IsPalette() }

// Packed reports whether several pixels share one byte.
func (f Format) Packed() bool { return f.Depth < 8 }

// PixelsPerByte is 8/depth for packed formats and 1 otherwise.
func (f Format) PixelsPerByte() int {
	if f.Depth <= 0 || !f.Packed() {
		return 1
	}
	return 8 / f.Depth
}

// BitsPerPixel returns depth times channels.
func (f Format) BitsPerPixel() int { return f.Depth * f.Channels() }

// BytesPerPixel returns the storage size of one unpacked pixel. It is 1 for
// packed formats.
func (f Format) BytesPerPixel() int { return (f.BitsPerPixel() + 7) / 8 }

// RowBytes returns the number of codec bytes one row of width pixels takes.
func (f Format) RowBytes(width int) int {
	return (width*f.BitsPerPixel() + 7) / 8
}

// MaxSample is the largest sample value representable at the format's depth.
func (f Format) MaxSample() uint16 {
	return uint16(1<<f.Depth - 1)
}

// AlphaFiller is the fully opaque alpha sample at this format's depth.
func (f Format) AlphaFiller() uint16 {
	if f.Depth == 16 {
		return 0xffff
	}
	return 0xff
}

// Validate checks the color type and depth combination against the PNG rules.
func (f Format) Validate() error {
	if !f.Color.Valid() {
		return fmt.Errorf("pixel: invalid color type %d", f.Color)
	}
	switch f.Depth {
	case 1, 2, 4:
		if f.Color != Gray && f.Color != Indexed {
			return fmt.Errorf("pixel: %d-bit depth requires gray or palette, got %s", f.Depth, f.Color)
		}
	case 8:
	case 16:
		if f.Color == Indexed {
			return fmt.Errorf("pixel: 16-bit depth not allowed for palette images")
		}
	default:
		return fmt.Errorf("pixel: invalid bit depth %d", f.Depth)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%s%d", f.Color, f.Depth)
}

// ParseFormat turns a name produced by Format.String back into a Format.
// "rgb" and friends without a depth mean 8 bits.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range Formats {
		if f.String() == name {
			return f, nil
		}
	}
	for _, f := range Formats {
		if f.Depth == 8 && f.Color.String() == name {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("pixel: unknown format %q", name)
}
