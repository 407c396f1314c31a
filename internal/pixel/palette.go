package pixel

import (
	"fmt"
	"image/color"
)

// Color is one palette entry. PNG palettes carry no alpha; transparency lives
// in a separate tRNS table.
type Color struct {
	R, G, B uint8
}

func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// Palette is an ordered list of colors addressed by index pixels.
type Palette []Color

// MaxPaletteEntries is the PNG limit on PLTE entries.
const MaxPaletteEntries = 256

// At returns entry i or an error when the index is outside the palette.
func (p Palette) At(i int) (Color, error) {
	if i < 0 || i >= len(p) {
		return Color{}, fmt.Errorf("pixel: palette index %d out of range [0,%d)", i, len(p))
	}
	return p[i], nil
}

// ColorPalette converts p into a color.Palette, applying the alpha table of a
// tRNS chunk when one is given. Entries beyond the table are opaque.
func (p Palette) ColorPalette(alpha []uint8) color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		a := uint8(0xff)
		if i < len(alpha) {
			a = alpha[i]
		}
		out[i] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
	}
	return out
}

// PaletteFrom builds a Palette and tRNS alpha table from a color.Palette.
// The alpha table is nil when every entry is opaque.
func PaletteFrom(cp color.Palette) (Palette, []uint8) {
	pal := make(Palette, len(cp))
	alpha := make([]uint8, len(cp))
	last := -1
	for i, c := range cp {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		pal[i] = Color{R: n.R, G: n.G, B: n.B}
		alpha[i] = n.A
		if n.A != 0xff {
			last = i
		}
	}
	if last < 0 {
		return pal, nil
	}
	return pal, alpha[:last+1]
}
