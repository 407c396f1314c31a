package raster

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/AnyUserName/pngpix/internal/codec"
	"github.com/AnyUserName/pngpix/internal/negotiate"
	"github.com/AnyUserName/pngpix/internal/pixbuf"
	"github.com/AnyUserName/pngpix/internal/pixel"
)

// Image is a pixel buffer of type P plus its Info.
type Image[P any] struct {
	info   Info
	buf    *pixbuf.Buffer[P]
	newBuf func(w, h int) *pixbuf.Buffer[P]
}

// New returns a width x height image of whole-byte pixels.
func New[P pixel.Pixel[P]](width, height int) *Image[P] {
	return newImage(pixbuf.NewBuffer[P], width, height)
}

// NewPacked returns a width x height image of packed 1, 2 or 4 bit pixels.
func NewPacked[P pixel.Packed](width, height int) *Image[P] {
	return newImage(pixbuf.NewPackedBuffer[P], width, height)
}

func newImage[P any](newBuf func(w, h int) *pixbuf.Buffer[P], width, height int) *Image[P] {
	m := &Image[P]{newBuf: newBuf, buf: newBuf(width, height)}
	m.info = Info{Width: m.buf.Width(), Height: m.buf.Height(), Format: m.buf.Format()}
	return m
}

func (m *Image[P]) Info() Info                { return m.info }
func (m *Image[P]) Width() int                { return m.buf.Width() }
func (m *Image[P]) Height() int               { return m.buf.Height() }
func (m *Image[P]) Format() pixel.Format      { return m.buf.Format() }
func (m *Image[P]) Buffer() *pixbuf.Buffer[P] { return m.buf }

// Resize changes the dimensions. Pixel contents are not preserved.
func (m *Image[P]) Resize(width, height int) {
	m.buf.Resize(width, height)
	m.info.Width, m.info.Height = m.buf.Width(), m.buf.Height()
}

func (m *Image[P]) Row(y int) (pixbuf.Row[P], error) { return m.buf.Row(y) }
func (m *Image[P]) Pixel(x, y int) (P, error)        { return m.buf.Pixel(x, y) }
func (m *Image[P]) SetPixel(x, y int, p P) error     { return m.buf.SetPixel(x, y, p) }

func (m *Image[P]) Palette() pixel.Palette { return m.info.Palette }

// SetPalette sets the palette and its optional tRNS alpha table.
func (m *Image[P]) SetPalette(pal pixel.Palette, alpha []uint8) {
	m.info.Palette = pal
	m.info.Transparency = alpha
}

// Consume reads every row of rd into the image. transform configures rd
// for the image's format first; nil means ConvertColorSpace with default
// options. On any error the image is left untouched.
func (m *Image[P]) Consume(rd *codec.Reader, transform Transform) error {
	want := m.buf.Format()
	if transform == nil {
		transform = ConvertColorSpace()
	}
	if err := transform(rd, want); err != nil {
		return err
	}
	if got := rd.UpdateInfo(); got != want {
		return fmt.Errorf("raster: %w: reader produces %s, image holds %s", negotiate.ErrFormatMismatch, got, want)
	}

	hdr := rd.Header()
	buf := m.newBuf(hdr.Width, hdr.Height)
	raw := make([]byte, rd.RowBytes())
	for y := 0; y < hdr.Height; y++ {
		row, err := buf.Row(y)
		if err != nil {
			return err
		}
		if rr, ok := row.(pixbuf.RawRow); ok {
			err = rd.ReadRow(rr.Raw())
		} else {
			err = rd.ReadRow(raw)
			row.Load(raw)
		}
		if err != nil {
			return fmt.Errorf("raster: row %d: %w", y, err)
		}
	}

	m.buf = buf
	m.info = Info{
		Width:        hdr.Width,
		Height:       hdr.Height,
		Format:       want,
		Interlace:    hdr.Interlace,
		Palette:      rd.Palette(),
		Transparency: rd.Transparency(),
	}
	return nil
}

// Generate writes the image as a PNG stream.
func (m *Image[P]) Generate(w io.Writer, opts ...codec.WriterOption) error {
	pw, err := codec.NewWriter(w, m.info.Header(), opts...)
	if err != nil {
		return err
	}
	err = m.eachRow(func(y int, raw []byte) error {
		return pw.WriteRow(raw)
	})
	if err != nil {
		return err
	}
	return pw.Close()
}

// Checksum is the xxhash64 of the codec bytes of every row. It depends only
// on dimensions, format and pixels, never on compression.
func (m *Image[P]) Checksum() uint64 {
	d := xxhash.New()
	_ = m.eachRow(func(_ int, raw []byte) error {
		_, err := d.Write(raw)
		return err
	})
	return d.Sum64()
}

// eachRow passes the codec bytes of every row to fn. The slice is only valid
// during the call.
func (m *Image[P]) eachRow(fn func(y int, raw []byte) error) error {
	scratch := make([]byte, m.buf.RowBytes())
	for y := 0; y < m.buf.Height(); y++ {
		row, err := m.buf.Row(y)
		if err != nil {
			return err
		}
		raw := scratch
		if rr, ok := row.(pixbuf.RawRow); ok {
			raw = rr.Raw()
		} else {
			row.Store(raw)
		}
		if err := fn(y, raw); err != nil {
			return err
		}
	}
	return nil
}
