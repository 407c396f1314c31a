package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/AnyUserName/pngpix/internal/negotiate"
	"github.com/AnyUserName/pngpix/internal/pixel"
)

var (
	// ErrNoMoreRows is returned by ReadRow once every row has been read.
	ErrNoMoreRows = errors.New("codec: no more rows")
	// ErrTransformUnavailable is returned by Request when the reader was
	// built without the capability a step needs.
	ErrTransformUnavailable = errors.New("codec: transform unavailable")
)

// Option configures a Reader.
type Option func(*Reader)

// WithCapabilities limits the transforms the reader accepts. Readers accept
// every transform by default.
func WithCapabilities(c negotiate.Capability) Option {
	return func(r *Reader) { r.caps = c }
}

// Reader hands out the rows of one decoded image in PNG byte layout after
// applying the requested transforms. It implements negotiate.Transformer.
type Reader struct {
	hdr    Header
	src    source
	caps   negotiate.Capability
	xf     transforms
	out    pixel.Format
	y      int
	in     []uint16
	a, b   []uint16
	locked bool
}

// NewReader decodes a whole PNG stream. The header walk supplies the stored
// depth, palette and tRNS that image.Image does not keep.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: read: %w", err)
	}
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: decode: %w", err)
	}
	if b := img.Bounds(); b.Dx() != hdr.Width || b.Dy() != hdr.Height {
		return nil, fmt.Errorf("codec: decoded %dx%d image, header says %dx%d", b.Dx(), b.Dy(), hdr.Width, hdr.Height)
	}
	return newReader(hdr, newSource(img, hdr.Format), opts), nil
}

func newReader(hdr Header, src source, opts []Option) *Reader {
	r := &Reader{
		hdr:  hdr,
		src:  src,
		caps: negotiate.AllCapabilities,
		out:  hdr.Format,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Header returns the stream header as stored in the file.
func (r *Reader) Header() Header { return r.hdr }

// Descriptor describes the untransformed stream for negotiation.
func (r *Reader) Descriptor() negotiate.Descriptor {
	return negotiate.Descriptor{
		Format:       r.hdr.Format,
		Transparency: len(r.hdr.Transparency) > 0,
	}
}

// Capabilities reports the transforms this reader accepts.
func (r *Reader) Capabilities() negotiate.Capability { return r.caps }

// Palette returns the palette rows still refer to, or nil once the palette
// has been expanded away.
func (r *Reader) Palette() pixel.Palette {
	if !r.out.IsPalette() {
		return nil
	}
	return r.hdr.Palette
}

// Transparency returns the tRNS payload while rows are still in the stored
// format or still palette indices. Any other conversion makes it meaningless.
func (r *Reader) Transparency() []byte {
	if r.out != r.hdr.Format && !r.out.IsPalette() {
		return nil
	}
	return r.hdr.Transparency
}

// Request enables one transform. Requests are only accepted before the first
// row is read.
func (r *Reader) Request(step negotiate.Step) error {
	if r.locked {
		return fmt.Errorf("codec: %s requested after reading started", step)
	}
	if step.Kind == negotiate.StepNone {
		return nil
	}
	if !r.caps.Has(step.Kind.Capability()) {
		return fmt.Errorf("%w: %s", ErrTransformUnavailable, step.Kind)
	}
	r.xf.enable(step)
	_, r.out = r.xf.run(nil, nil, nil, r.hdr.Format, r.hdr)
	return nil
}

// UpdateInfo returns the format rows will have with every requested
// transform applied.
func (r *Reader) UpdateInfo() pixel.Format { return r.out }

// Width and Height are the image dimensions.
func (r *Reader) Width() int  { return r.hdr.Width }
func (r *Reader) Height() int { return r.hdr.Height }

// RowBytes is the size of one output row.
func (r *Reader) RowBytes() int { return r.out.RowBytes(r.hdr.Width) }

// ReadRow fills dst with the next row. dst must hold at least RowBytes bytes.
func (r *Reader) ReadRow(dst []byte) error {
	if r.y >= r.hdr.Height {
		return ErrNoMoreRows
	}
	if n := r.RowBytes(); len(dst) < n {
		return fmt.Errorf("codec: row buffer holds %d bytes, need %d", len(dst), n)
	}
	r.locked = true

	w := r.hdr.Width
	if r.in == nil {
		r.in = make([]uint16, w*r.hdr.Format.Channels())
		r.a = make([]uint16, w*4)
		r.b = make([]uint16, w*4)
	}
	r.src.row(r.y, r.in)
	out, f := r.xf.run(r.in, r.a, r.b, r.hdr.Format, r.hdr)
	pack(dst, out, f)
	r.y++
	return nil
}

// Remaining is the number of rows not yet read.
func (r *Reader) Remaining() int { return r.hdr.Height - r.y }

// NewImageReader serves an in-memory image as if it had been read from a PNG
// stream. The stored format follows the image type; anything that is not
// gray, paletted or NRGBA-like is normalized to RGBA8 first.
func NewImageReader(img image.Image, opts ...Option) (*Reader, error) {
	hdr, img, err := headerFor(img)
	if err != nil {
		return nil, err
	}
	return newReader(hdr, newSource(img, hdr.Format), opts), nil
}
