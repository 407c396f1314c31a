package codec

import (
	"github.com/AnyUserName/pngpix/internal/negotiate"
	"github.com/AnyUserName/pngpix/internal/pixel"
)

// transforms records the requested steps. They always run in the same order
// regardless of request order: palette expansion, gray expansion, alpha
// removal, RGB to gray, gray to RGB, 16-to-8, 8-to-16, filler.
type transforms struct {
	strip16      bool
	stripAlpha   bool
	trnsToAlpha  bool
	addAlpha     bool
	filler       uint16
	paletteToRGB bool
	grayToRGB    bool
	rgbToGray    bool
	grayExpand   bool
	unpack       bool
	expand16     bool
}

func (t *transforms) enable(s negotiate.Step) {
	switch s.Kind {
	case negotiate.StepStrip16:
		t.strip16 = true
	case negotiate.StepStripAlpha:
		t.stripAlpha = true
	case negotiate.StepTRNSToAlpha:
		t.trnsToAlpha = true
	case negotiate.StepAddAlpha:
		t.addAlpha = true
		t.filler = s.Filler
	case negotiate.StepPaletteToRGB:
		t.paletteToRGB = true
	case negotiate.StepGrayToRGB:
		t.grayToRGB = true
	case negotiate.StepRGBToGray:
		t.rgbToGray = true
	case negotiate.StepGrayExpand:
		t.grayExpand = true
	case negotiate.StepUnpack:
		t.unpack = true
	case negotiate.StepExpand16:
		t.expand16 = true
	}
}

// run applies the enabled transforms to one row of samples in format f.
// Stages that keep the channel count work in place; the others alternate
// between the scratch buffers a and b. With in == nil it only computes the
// output format.
func (t transforms) run(in, a, b []uint16, f pixel.Format, hdr Header) ([]uint16, pixel.Format) {
	bufs := [2][]uint16{a, b}
	k := 0
	cur := in
	n := 0
	if ch := f.Channels(); ch > 0 {
		n = len(in) / ch
	}
	next := func(ch int) []uint16 {
		out := bufs[k][:n*ch]
		k ^= 1
		return out
	}

	if f.IsPalette() {
		switch {
		case t.paletteToRGB:
			ch := 3
			if t.trnsToAlpha {
				ch = 4
			}
			out := next(ch)
			alpha := hdr.PaletteAlpha()
			for i := 0; i < n; i++ {
				idx := int(cur[i])
				var c pixel.Color
				if idx < len(hdr.Palette) {
					c = hdr.Palette[idx]
				}
				o := out[i*ch:]
				o[0], o[1], o[2] = uint16(c.R), uint16(c.G), uint16(c.B)
				if ch == 4 {
					o[3] = 0xff
					if idx < len(alpha) {
						o[3] = uint16(alpha[idx])
					}
				}
			}
			cur = out
			f = pixel.Format{Color: pixel.RGB, Depth: 8}
			if ch == 4 {
				f.Color = pixel.RGBA
			}
		case t.unpack && f.Depth < 8:
			f.Depth = 8
		}
	}

	if t.grayExpand && f.IsGrayLike() && f.Depth < 8 {
		top := uint32(f.MaxSample())
		for i, v := range cur {
			cur[i] = uint16(uint32(v) * 255 / top)
		}
		f.Depth = 8
	}

	if t.stripAlpha && f.HasAlpha() {
		ch := f.Channels()
		out := next(ch - 1)
		for i := 0; i < n; i++ {
			copy(out[i*(ch-1):(i+1)*(ch-1)], cur[i*ch:i*ch+ch-1])
		}
		cur = out
		f.Color &^= pixel.MaskAlpha
	}

	if t.rgbToGray && f.IsRGBLike() {
		ch := f.Channels()
		gch := ch - 2
		out := next(gch)
		for i := 0; i < n; i++ {
			p := cur[i*ch:]
			out[i*gch] = luminance(p[0], p[1], p[2])
			if gch == 2 {
				out[i*gch+1] = p[3]
			}
		}
		cur = out
		f.Color &^= pixel.MaskColor
	}

	if t.grayToRGB && f.IsGrayLike() {
		ch := f.Channels()
		rch := ch + 2
		out := next(rch)
		for i := 0; i < n; i++ {
			v := cur[i*ch]
			o := out[i*rch:]
			o[0], o[1], o[2] = v, v, v
			if rch == 4 {
				o[3] = cur[i*ch+1]
			}
		}
		cur = out
		f.Color |= pixel.MaskColor
	}

	if t.strip16 && f.Depth == 16 {
		for i, v := range cur {
			cur[i] = v >> 8
		}
		f.Depth = 8
	}

	if t.expand16 && f.Depth == 8 && !f.IsPalette() {
		for i, v := range cur {
			cur[i] = v * 257
		}
		f.Depth = 16
	}

	if t.addAlpha && !f.HasAlpha() && !f.IsPalette() {
		ch := f.Channels()
		out := next(ch + 1)
		fill := t.filler & f.MaxSample()
		for i := 0; i < n; i++ {
			copy(out[i*(ch+1):], cur[i*ch:(i+1)*ch])
			out[i*(ch+1)+ch] = fill
		}
		cur = out
		f.Color |= pixel.MaskAlpha
	}

	return cur, f
}

// luminance weights follow ITU-R BT.709 in 15-bit fixed point.
func luminance(r, g, b uint16) uint16 {
	return uint16((6968*uint32(r) + 23434*uint32(g) + 2366*uint32(b) + 16384) >> 15)
}

// pack writes samples into dst in PNG row layout: packed samples MSB first,
// 16-bit samples big-endian.
func pack(dst []byte, samples []uint16, f pixel.Format) {
	switch {
	case f.Depth < 8:
		ppb := f.PixelsPerByte()
		mask := f.MaxSample()
		clear(dst[:f.RowBytes(len(samples))])
		for i, v := range samples {
			shift := uint(8 - f.Depth*(i%ppb+1))
			dst[i/ppb] |= byte(v&mask) << shift
		}
	case f.Depth == 8:
		for i, v := range samples {
			dst[i] = byte(v)
		}
	default:
		for i, v := range samples {
			dst[2*i] = byte(v >> 8)
			dst[2*i+1] = byte(v)
		}
	}
}

// unpack is the inverse of pack for n samples.
func unpack(samples []uint16, src []byte, f pixel.Format) {
	switch {
	case f.Depth < 8:
		ppb := f.PixelsPerByte()
		mask := byte(f.MaxSample())
		for i := range samples {
			shift := uint(8 - f.Depth*(i%ppb+1))
			samples[i] = uint16(src[i/ppb] >> shift & mask)
		}
	case f.Depth == 8:
		for i := range samples {
			samples[i] = uint16(src[i])
		}
	default:
		for i := range samples {
			samples[i] = uint16(src[2*i])<<8 | uint16(src[2*i+1])
		}
	}
}
