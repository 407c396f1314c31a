package codec

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/AnyUserName/pngpix/internal/pixel"
)

// source produces the stored samples of one row, scaled to the header depth.
type source interface {
	row(y int, dst []uint16)
}

func newSource(img image.Image, f pixel.Format) source {
	if p, ok := img.(*image.Paletted); ok && f.IsPalette() {
		return palettedSource{p}
	}
	return imageSource{img: img, f: f}
}

type palettedSource struct{ img *image.Paletted }

func (s palettedSource) row(y int, dst []uint16) {
	off := y * s.img.Stride
	for x := range dst {
		dst[x] = uint16(s.img.Pix[off+x])
	}
}

// imageSource reads non-premultiplied 16-bit channels and narrows them to
// the stored depth. NRGBA images are read from Pix directly so that color
// under zero alpha survives.
type imageSource struct {
	img image.Image
	f   pixel.Format
}

func (s imageSource) row(y int, dst []uint16) {
	b := s.img.Bounds()
	ch := s.f.Channels()
	shift := uint(16 - s.f.Depth)
	for x := 0; x < b.Dx(); x++ {
		r, g, bl, a := s.at(b.Min.X+x, b.Min.Y+y)
		o := dst[x*ch : x*ch+ch]
		switch s.f.Color {
		case pixel.Gray:
			o[0] = r >> shift
		case pixel.GrayAlpha:
			o[0], o[1] = r>>shift, a>>shift
		case pixel.RGB:
			o[0], o[1], o[2] = r>>shift, g>>shift, bl>>shift
		case pixel.RGBA:
			o[0], o[1], o[2], o[3] = r>>shift, g>>shift, bl>>shift, a>>shift
		}
	}
}

func (s imageSource) at(x, y int) (r, g, b, a uint16) {
	switch m := s.img.(type) {
	case *image.Gray:
		v := uint16(m.Pix[m.PixOffset(x, y)]) * 0x101
		return v, v, v, 0xffff
	case *image.Gray16:
		i := m.PixOffset(x, y)
		v := uint16(m.Pix[i])<<8 | uint16(m.Pix[i+1])
		return v, v, v, 0xffff
	case *image.NRGBA:
		p := m.Pix[m.PixOffset(x, y):]
		return uint16(p[0]) * 0x101, uint16(p[1]) * 0x101, uint16(p[2]) * 0x101, uint16(p[3]) * 0x101
	case *image.NRGBA64:
		p := m.Pix[m.PixOffset(x, y):]
		return uint16(p[0])<<8 | uint16(p[1]), uint16(p[2])<<8 | uint16(p[3]),
			uint16(p[4])<<8 | uint16(p[5]), uint16(p[6])<<8 | uint16(p[7])
	}
	c := color.NRGBA64Model.Convert(s.img.At(x, y)).(color.NRGBA64)
	return c.R, c.G, c.B, c.A
}

// headerFor picks the stored format for an in-memory image. Images whose
// model has no PNG counterpart are drawn onto an RGBA canvas.
func headerFor(img image.Image) (Header, image.Image, error) {
	b := img.Bounds()
	hdr := Header{Width: b.Dx(), Height: b.Dy()}
	if hdr.Width <= 0 || hdr.Height <= 0 {
		return hdr, nil, fmt.Errorf("codec: empty image")
	}

	switch m := img.(type) {
	case *image.Gray:
		hdr.Format = pixel.FormatGray8
	case *image.Gray16:
		hdr.Format = pixel.FormatGray16
	case *image.Paletted:
		if len(m.Palette) == 0 || len(m.Palette) > pixel.MaxPaletteEntries {
			return hdr, nil, fmt.Errorf("codec: unusable palette with %d entries", len(m.Palette))
		}
		hdr.Format = pixel.FormatIndex8
		pal, alpha := pixel.PaletteFrom(m.Palette)
		hdr.Palette = pal
		hdr.Transparency = alpha
		if b.Min != (image.Point{}) {
			img = rebase(m)
		}
	case *image.NRGBA, *image.RGBA:
		hdr.Format = pixel.FormatRGBA8
	case *image.NRGBA64, *image.RGBA64:
		hdr.Format = pixel.FormatRGBA16
	case *image.YCbCr, *image.CMYK:
		rgba := image.NewRGBA(image.Rect(0, 0, hdr.Width, hdr.Height))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
		img = rgba
		hdr.Format = pixel.FormatRGB8
	default:
		nrgba := image.NewNRGBA(image.Rect(0, 0, hdr.Width, hdr.Height))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
		img = nrgba
		hdr.Format = pixel.FormatRGBA8
	}
	return hdr, img, nil
}

// rebase moves a paletted image to a zero origin so rows can be read by
// offset.
func rebase(m *image.Paletted) *image.Paletted {
	out := image.NewPaletted(image.Rect(0, 0, m.Rect.Dx(), m.Rect.Dy()), m.Palette)
	for y := 0; y < out.Rect.Dy(); y++ {
		i := m.PixOffset(m.Rect.Min.X, m.Rect.Min.Y+y)
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], m.Pix[i:i+out.Rect.Dx()])
	}
	return out
}
