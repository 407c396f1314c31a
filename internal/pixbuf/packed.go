package pixbuf

import (
	"fmt"

	"github.com/AnyUserName/pngpix/internal/pixel"
)

// Proxy addresses one packed pixel inside a row's backing storage. It borrows
// the byte it points at: a Proxy must not be kept past the next Resize of the
// row that produced it.
type Proxy[P pixel.Packed] struct {
	ref   *byte
	shift uint
}

// shift returns the bit offset of pixel index within its byte. Pixels are
// stored most significant bits first:
//
//	bits: 1: 7 6 5 4 3 2 1 0
//	      2:   6   4   2   0
//	      4:       4       0
func shift(depth, index int) uint {
	ppb := 8 / depth
	return uint((8 - depth) - (index%ppb)*depth)
}

func newProxy[P pixel.Packed](ref *byte, index int) Proxy[P] {
	var p P
	return Proxy[P]{ref: ref, shift: shift(p.Format().Depth, index)}
}

// Get unpacks the addressed pixel.
func (x Proxy[P]) Get() P {
	return P((*x.ref >> x.shift) & pixel.BitMask[P]())
}

// Set stores p, leaving the other pixels of the byte untouched. Bits of p
// above the pixel depth are dropped.
func (x Proxy[P]) Set(p P) {
	mask := pixel.BitMask[P]()
	*x.ref = *x.ref&^(mask<<x.shift) | (uint8(p)&mask)<<x.shift
}

// CopyFrom assigns the value addressed by another proxy.
func (x Proxy[P]) CopyFrom(o Proxy[P]) { x.Set(o.Get()) }

// PackedRow is a row of sub-byte pixels packed the way PNG stores them, so
// the codec can read and write it without a translation step.
type PackedRow[P pixel.Packed] struct {
	data []byte
	n    int
}

// NewPackedRow returns a row of n zero pixels.
func NewPackedRow[P pixel.Packed](n int) *PackedRow[P] {
	r := &PackedRow[P]{}
	r.Resize(n)
	return r
}

func pixelsPerByte[P pixel.Packed]() int {
	var p P
	return 8 / p.Format().Depth
}

// Len returns the number of pixels in the row.
func (r *PackedRow[P]) Len() int { return r.n }

// Resize reallocates storage for exactly n pixels. Previous contents are not
// preserved and every outstanding Proxy becomes stale.
func (r *PackedRow[P]) Resize(n int) {
	if n < 0 {
		n = 0
	}
	ppb := pixelsPerByte[P]()
	r.data = make([]byte, (n+ppb-1)/ppb)
	r.n = n
}

// At returns a proxy for pixel i, failing with ErrOutOfRange when i is not
// inside the row.
func (r *PackedRow[P]) At(i int) (Proxy[P], error) {
	if i < 0 || i >= r.n {
		return Proxy[P]{}, fmt.Errorf("%w: pixel %d of %d", ErrOutOfRange, i, r.n)
	}
	return r.Index(i), nil
}

// Index is the unchecked form of At.
func (r *PackedRow[P]) Index(i int) Proxy[P] {
	return newProxy[P](&r.data[i/pixelsPerByte[P]()], i)
}

// Get returns pixel i without a bounds check on the logical length.
func (r *PackedRow[P]) Get(i int) P { return r.Index(i).Get() }

// Put stores pixel i without a bounds check on the logical length.
func (r *PackedRow[P]) Put(i int, p P) { r.Index(i).Set(p) }

// Pixel is the checked read.
func (r *PackedRow[P]) Pixel(i int) (P, error) {
	x, err := r.At(i)
	if err != nil {
		return 0, err
	}
	return x.Get(), nil
}

// SetPixel is the checked write.
func (r *PackedRow[P]) SetPixel(i int, p P) error {
	x, err := r.At(i)
	if err != nil {
		return err
	}
	x.Set(p)
	return nil
}

// Raw exposes the packed storage. The codec reads rows straight into it.
func (r *PackedRow[P]) Raw() []byte { return r.data }

// Load copies codec bytes into the row.
func (r *PackedRow[P]) Load(raw []byte) { copy(r.data, raw) }

// Store copies the row into codec bytes.
func (r *PackedRow[P]) Store(raw []byte) { copy(raw, r.data) }

// Clone returns an independent copy.
func (r *PackedRow[P]) Clone() Row[P] {
	c := &PackedRow[P]{data: make([]byte, len(r.data)), n: r.n}
	copy(c.data, r.data)
	return c
}
