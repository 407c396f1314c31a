package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zlib"
)

// ErrRowCount is returned when a writer receives too many or too few rows.
var ErrRowCount = errors.New("codec: row count mismatch")

const maxIDAT = 1 << 16

type writerConfig struct {
	level int
}

// WriterOption configures a Writer.
type WriterOption func(*writerConfig)

// WithLevel sets the zlib compression level (zlib.NoCompression through
// zlib.BestCompression, or zlib.DefaultCompression).
func WithLevel(level int) WriterOption {
	return func(c *writerConfig) { c.level = level }
}

// Writer streams one non-interlaced PNG image. Rows are given in PNG byte
// layout and written with filter type 0.
type Writer struct {
	w      io.Writer
	hdr    Header
	idat   *chunkWriter
	zw     *zlib.Writer
	line   []byte
	idx    []uint16
	y      int
	closed bool
}

// NewWriter writes the signature, IHDR, PLTE and tRNS chunks.
func NewWriter(w io.Writer, hdr Header, opts ...WriterOption) (*Writer, error) {
	cfg := writerConfig{level: zlib.DefaultCompression}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := hdr.Validate(); err != nil {
		return nil, err
	}
	if hdr.Interlace != InterlaceNone {
		return nil, fmt.Errorf("codec: interlaced output not supported")
	}

	if _, err := io.WriteString(w, Signature); err != nil {
		return nil, fmt.Errorf("codec: write signature: %w", err)
	}
	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(hdr.Width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(hdr.Height))
	ihdr[8] = uint8(hdr.Format.Depth)
	ihdr[9] = uint8(hdr.Format.Color)
	if err := writeChunk(w, "IHDR", ihdr[:]); err != nil {
		return nil, err
	}
	if len(hdr.Palette) > 0 {
		plte := make([]byte, 0, 3*len(hdr.Palette))
		for _, c := range hdr.Palette {
			plte = append(plte, c.R, c.G, c.B)
		}
		if err := writeChunk(w, "PLTE", plte); err != nil {
			return nil, err
		}
	}
	if len(hdr.Transparency) > 0 {
		if err := writeChunk(w, "tRNS", hdr.Transparency); err != nil {
			return nil, err
		}
	}

	cw := &chunkWriter{w: w, typ: "IDAT", buf: make([]byte, 0, maxIDAT)}
	zw, err := zlib.NewWriterLevel(cw, cfg.level)
	if err != nil {
		return nil, fmt.Errorf("codec: zlib: %w", err)
	}
	wr := &Writer{
		w:    w,
		hdr:  hdr,
		idat: cw,
		zw:   zw,
		line: make([]byte, 1+hdr.RowBytes()),
	}
	if hdr.Format.IsPalette() {
		wr.idx = make([]uint16, hdr.Width)
	}
	return wr, nil
}

// Header returns the header the writer was created with.
func (w *Writer) Header() Header { return w.hdr }

// WriteRow writes the next row. row must hold at least RowBytes bytes; bits
// past the last pixel of a packed row are cleared.
func (w *Writer) WriteRow(row []byte) error {
	if w.closed {
		return fmt.Errorf("codec: write to closed writer")
	}
	if w.y >= w.hdr.Height {
		return fmt.Errorf("%w: image has %d rows", ErrRowCount, w.hdr.Height)
	}
	n := w.hdr.RowBytes()
	if len(row) < n {
		return fmt.Errorf("codec: row %d has %d bytes, need %d", w.y, len(row), n)
	}
	if w.idx != nil {
		unpack(w.idx, row, w.hdr.Format)
		for x, i := range w.idx {
			if int(i) >= len(w.hdr.Palette) {
				return fmt.Errorf("codec: row %d pixel %d: palette index %d out of range", w.y, x, i)
			}
		}
	}

	w.line[0] = 0
	copy(w.line[1:], row[:n])
	if pad := n*8 - w.hdr.Width*w.hdr.Format.BitsPerPixel(); pad > 0 {
		w.line[n] &^= byte(1<<pad - 1)
	}
	if _, err := w.zw.Write(w.line); err != nil {
		return fmt.Errorf("codec: compress row %d: %w", w.y, err)
	}
	w.y++
	return nil
}

// Close flushes the compressed stream and writes IEND. It fails if fewer
// rows than the header promised were written.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.y != w.hdr.Height {
		return fmt.Errorf("%w: wrote %d of %d rows", ErrRowCount, w.y, w.hdr.Height)
	}
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("codec: flush zlib: %w", err)
	}
	if err := w.idat.flush(); err != nil {
		return err
	}
	return writeChunk(w.w, "IEND", nil)
}

// chunkWriter splits a byte stream into chunks of at most maxIDAT bytes.
type chunkWriter struct {
	w   io.Writer
	typ string
	buf []byte
}

func (c *chunkWriter) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		k := copy(c.buf[len(c.buf):cap(c.buf)], p)
		c.buf = c.buf[:len(c.buf)+k]
		p = p[k:]
		if len(c.buf) == cap(c.buf) {
			if err := c.flush(); err != nil {
				return n - len(p), err
			}
		}
	}
	return n, nil
}

func (c *chunkWriter) flush() error {
	if len(c.buf) == 0 {
		return nil
	}
	err := writeChunk(c.w, c.typ, c.buf)
	c.buf = c.buf[:0]
	return err
}

func writeChunk(w io.Writer, typ string, data []byte) error {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)
	crc := crc32.NewIEEE()
	crc.Write(hdr[4:8])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())

	for _, b := range [][]byte{hdr[:], data, sum[:]} {
		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("codec: write %s chunk: %w", typ, err)
		}
	}
	return nil
}

// Encode writes every row produced by next, a convenience for callers that
// already hold the whole image.
func Encode(w io.Writer, hdr Header, next func(y int, row []byte), opts ...WriterOption) error {
	pw, err := NewWriter(w, hdr, opts...)
	if err != nil {
		return err
	}
	row := make([]byte, hdr.RowBytes())
	for y := 0; y < hdr.Height; y++ {
		next(y, row)
		if err := pw.WriteRow(row); err != nil {
			return err
		}
	}
	return pw.Close()
}
