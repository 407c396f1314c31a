package pixel

import (
	"encoding/binary"
	"image/color"
)

// Pixel is the constraint satisfied by every pixel type that occupies whole
// bytes. Put and From move a pixel to and from its codec representation:
// samples in channel order, 16-bit samples big-endian.
type Pixel[P any] interface {
	comparable
	Format() Format
	Put(b []byte)
	From(b []byte) P
}

type (
	Gray8  uint8
	Gray16 uint16
	Index8 uint8
)

// GA8 is an 8-bit gray+alpha pixel.
type GA8 struct{ V, A uint8 }

// GA16 is a 16-bit gray+alpha pixel.
type GA16 struct{ V, A uint16 }

type RGB8 struct{ R, G, B uint8 }
type RGB16 struct{ R, G, B uint16 }
type RGBA8 struct{ R, G, B, A uint8 }
type RGBA16 struct{ R, G, B, A uint16 }

func (Gray8) Format() Format  { return FormatGray8 }
func (Gray16) Format() Format { return FormatGray16 }
func (Index8) Format() Format { return FormatIndex8 }
func (GA8) Format() Format    { return FormatGA8 }
func (GA16) Format() Format   { return FormatGA16 }
func (RGB8) Format() Format   { return FormatRGB8 }
func (RGB16) Format() Format  { return FormatRGB16 }
func (RGBA8) Format() Format  { return FormatRGBA8 }
func (RGBA16) Format() Format { return FormatRGBA16 }

func (p Gray8) Put(b []byte)          { b[0] = uint8(p) }
func (Gray8) From(b []byte) Gray8     { return Gray8(b[0]) }
func (p Index8) Put(b []byte)         { b[0] = uint8(p) }
func (Index8) From(b []byte) Index8   { return Index8(b[0]) }
func (p Gray16) Put(b []byte)         { binary.BigEndian.PutUint16(b, uint16(p)) }
func (Gray16) From(b []byte) Gray16   { return Gray16(binary.BigEndian.Uint16(b)) }
func (p GA8) Put(b []byte)            { b[0], b[1] = p.V, p.A }
func (GA8) From(b []byte) GA8         { return GA8{b[0], b[1]} }
func (p RGB8) Put(b []byte)           { b[0], b[1], b[2] = p.R, p.G, p.B }
func (RGB8) From(b []byte) RGB8       { return RGB8{b[0], b[1], b[2]} }
func (p RGBA8) Put(b []byte)          { b[0], b[1], b[2], b[3] = p.R, p.G, p.B, p.A }
func (RGBA8) From(b []byte) RGBA8     { return RGBA8{b[0], b[1], b[2], b[3]} }

func (p GA16) Put(b []byte) {
	binary.BigEndian.PutUint16(b[0:], p.V)
	binary.BigEndian.PutUint16(b[2:], p.A)
}

func (GA16) From(b []byte) GA16 {
	return GA16{binary.BigEndian.Uint16(b[0:]), binary.BigEndian.Uint16(b[2:])}
}

func (p RGB16) Put(b []byte) {
	binary.BigEndian.PutUint16(b[0:], p.R)
	binary.BigEndian.PutUint16(b[2:], p.G)
	binary.BigEndian.PutUint16(b[4:], p.B)
}

func (RGB16) From(b []byte) RGB16 {
	return RGB16{
		binary.BigEndian.Uint16(b[0:]),
		binary.BigEndian.Uint16(b[2:]),
		binary.BigEndian.Uint16(b[4:]),
	}
}

func (p RGBA16) Put(b []byte) {
	binary.BigEndian.PutUint16(b[0:], p.R)
	binary.BigEndian.PutUint16(b[2:], p.G)
	binary.BigEndian.PutUint16(b[4:], p.B)
	binary.BigEndian.PutUint16(b[6:], p.A)
}

func (RGBA16) From(b []byte) RGBA16 {
	return RGBA16{
		binary.BigEndian.Uint16(b[0:]),
		binary.BigEndian.Uint16(b[2:]),
		binary.BigEndian.Uint16(b[4:]),
		binary.BigEndian.Uint16(b[6:]),
	}
}

// NewGA8 returns a gray+alpha pixel with full opacity.
func NewGA8(v uint8) GA8 { return GA8{V: v, A: uint8(FormatGA8.AlphaFiller())} }

// NewRGBA8 returns an opaque RGBA pixel.
func NewRGBA8(r, g, b uint8) RGBA8 {
	return RGBA8{R: r, G: g, B: b, A: uint8(FormatRGBA8.AlphaFiller())}
}

// NewRGBA16 returns an opaque 16-bit RGBA pixel.
func NewRGBA16(r, g, b uint16) RGBA16 {
	return RGBA16{R: r, G: g, B: b, A: FormatRGBA16.AlphaFiller()}
}

// The direct-color types are also color.Color values so they can be handed to
// anything in the image ecosystem.

func (p Gray8) RGBA() (r, g, b, a uint32)  { return color.Gray{Y: uint8(p)}.RGBA() }
func (p Gray16) RGBA() (r, g, b, a uint32) { return color.Gray16{Y: uint16(p)}.RGBA() }
func (p GA8) RGBA() (r, g, b, a uint32)    { return color.NRGBA{R: p.V, G: p.V, B: p.V, A: p.A}.RGBA() }
func (p GA16) RGBA() (r, g, b, a uint32)   { return color.NRGBA64{R: p.V, G: p.V, B: p.V, A: p.A}.RGBA() }
func (p RGB8) RGBA() (r, g, b, a uint32)   { return color.RGBA{R: p.R, G: p.G, B: p.B, A: 0xff}.RGBA() }
func (p RGB16) RGBA() (r, g, b, a uint32)  { return color.RGBA64{R: p.R, G: p.G, B: p.B, A: 0xffff}.RGBA() }
func (p RGBA8) RGBA() (r, g, b, a uint32)  { return color.NRGBA{R: p.R, G: p.G, B: p.B, A: p.A}.RGBA() }
func (p RGBA16) RGBA() (r, g, b, a uint32) { return color.NRGBA64{R: p.R, G: p.G, B: p.B, A: p.A}.RGBA() }
