package pixbuf

import (
	"fmt"

	"github.com/AnyUserName/pngpix/internal/pixel"
)

// Buffer is a height x width grid of pixels stored as rows. Every row always
// holds exactly Width pixels.
type Buffer[P any] struct {
	width  int
	height int
	rows   []Row[P]
	format pixel.Format
	newRow func(n int) Row[P]
}

// NewBuffer returns a buffer of whole-byte pixels.
func NewBuffer[P pixel.Pixel[P]](width, height int) *Buffer[P] {
	var p P
	b := &Buffer[P]{
		format: p.Format(),
		newRow: func(n int) Row[P] { return NewPlainRow[P](n) },
	}
	b.Resize(width, height)
	return b
}

// NewPackedBuffer returns a buffer of packed sub-byte pixels.
func NewPackedBuffer[P pixel.Packed](width, height int) *Buffer[P] {
	var p P
	b := &Buffer[P]{
		format: p.Format(),
		newRow: func(n int) Row[P] { return NewPackedRow[P](n) },
	}
	b.Resize(width, height)
	return b
}

func (b *Buffer[P]) Width() int           { return b.width }
func (b *Buffer[P]) Height() int          { return b.height }
func (b *Buffer[P]) Format() pixel.Format { return b.format }

// Resize sets the buffer dimensions. Rows added by a larger height start
// zeroed; existing rows are resized to the new width, which does not keep
// their contents.
func (b *Buffer[P]) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if height < len(b.rows) {
		clear(b.rows[height:])
		b.rows = b.rows[:height]
	}
	for i := range b.rows {
		if b.rows[i].Len() != width {
			b.rows[i].Resize(width)
		}
	}
	for len(b.rows) < height {
		b.rows = append(b.rows, b.newRow(width))
	}
	b.width = width
	b.height = height
}

// Row returns row y.
func (b *Buffer[P]) Row(y int) (Row[P], error) {
	if y < 0 || y >= b.height {
		return nil, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, y, b.height)
	}
	return b.rows[y], nil
}

// PutRow replaces row y with a copy of r.
func (b *Buffer[P]) PutRow(y int, r Row[P]) error {
	if y < 0 || y >= b.height {
		return fmt.Errorf("%w: row %d of %d", ErrOutOfRange, y, b.height)
	}
	if r.Len() != b.width {
		return fmt.Errorf("pixbuf: row has %d pixels, buffer width is %d", r.Len(), b.width)
	}
	b.rows[y] = r.Clone()
	return nil
}

// Pixel returns the pixel at (x, y).
func (b *Buffer[P]) Pixel(x, y int) (P, error) {
	r, err := b.Row(y)
	if err != nil {
		var zero P
		return zero, err
	}
	return r.Pixel(x)
}

// SetPixel stores p at (x, y).
func (b *Buffer[P]) SetPixel(x, y int, p P) error {
	r, err := b.Row(y)
	if err != nil {
		return err
	}
	return r.SetPixel(x, p)
}

// RowBytes is the codec size of one row.
func (b *Buffer[P]) RowBytes() int { return b.format.RowBytes(b.width) }
