// Package pixbuf holds pixel rows and the buffers built from them.
//
// Two row kinds exist: PlainRow keeps one typed value per pixel, PackedRow
// keeps 1, 2 or 4 bit pixels packed into bytes exactly as PNG lays them out.
// Both satisfy Row, so Buffer and the streaming code above it do not care
// which one they hold.
package pixbuf

import (
	"errors"
	"fmt"

	"github.com/AnyUserName/pngpix/internal/pixel"
)

// ErrOutOfRange is returned for pixel or row positions outside a row or buffer.
var ErrOutOfRange = errors.New("out of range")

// Row is one row of pixels of type P.
type Row[P any] interface {
	Len() int
	Resize(n int)
	Pixel(i int) (P, error)
	SetPixel(i int, p P) error
	// Load fills the row from codec bytes; Store does the reverse. Both use
	// the pixel format's row layout and expect Format.RowBytes(Len()) bytes.
	Load(raw []byte)
	Store(raw []byte)
	Clone() Row[P]
}

// RawRow is implemented by rows whose storage already is the codec layout.
type RawRow interface {
	Raw() []byte
}

// PlainRow is a row of whole-byte pixels.
type PlainRow[P pixel.Pixel[P]] struct {
	pix []P
}

// NewPlainRow returns a row of n zero pixels.
func NewPlainRow[P pixel.Pixel[P]](n int) *PlainRow[P] {
	r := &PlainRow[P]{}
	r.Resize(n)
	return r
}

func (r *PlainRow[P]) Len() int { return len(r.pix) }

// Resize reallocates the row. Contents are not preserved.
func (r *PlainRow[P]) Resize(n int) {
	if n < 0 {
		n = 0
	}
	r.pix = make([]P, n)
}

// Pixels exposes the backing slice for hot loops.
func (r *PlainRow[P]) Pixels() []P { return r.pix }

func (r *PlainRow[P]) Pixel(i int) (P, error) {
	if i < 0 || i >= len(r.pix) {
		var zero P
		return zero, fmt.Errorf("%w: pixel %d of %d", ErrOutOfRange, i, len(r.pix))
	}
	return r.pix[i], nil
}

func (r *PlainRow[P]) SetPixel(i int, p P) error {
	if i < 0 || i >= len(r.pix) {
		return fmt.Errorf("%w: pixel %d of %d", ErrOutOfRange, i, len(r.pix))
	}
	r.pix[i] = p
	return nil
}

func bytesPerPixel[P pixel.Pixel[P]]() int {
	var p P
	return p.Format().BytesPerPixel()
}

func (r *PlainRow[P]) Load(raw []byte) {
	bpp := bytesPerPixel[P]()
	var zero P
	for i := range r.pix {
		r.pix[i] = zero.From(raw[i*bpp:])
	}
}

func (r *PlainRow[P]) Store(raw []byte) {
	bpp := bytesPerPixel[P]()
	for i, p := range r.pix {
		p.Put(raw[i*bpp:])
	}
}

func (r *PlainRow[P]) Clone() Row[P] {
	c := &PlainRow[P]{pix: make([]P, len(r.pix))}
	copy(c.pix, r.pix)
	return c
}

// Compile-time interface checks.
var _ Row[pixel.Gray1] = (*PackedRow[pixel.Gray1])(nil)
var _ RawRow = (*PackedRow[pixel.Index4])(nil)
var _ Row[pixel.RGBA8] = (*PlainRow[pixel.RGBA8])(nil)
