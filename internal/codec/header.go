// Package codec is the thin layer between pixel rows and PNG files.
//
// Decoding (inflate, unfiltering, Adam7) is done by image/png and encoding
// uses klauspost/compress zlib; this package only frames chunks, reports the
// stream's format, applies the transforms requested through negotiation and
// hands rows over in PNG's native byte layout.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/AnyUserName/pngpix/internal/pixel"
)

// Signature starts every PNG stream.
const Signature = "\x89PNG\r\n\x1a\n"

const maxDimension = 1 << 24

// Interlace is the IHDR interlace method.
type Interlace uint8

const (
	InterlaceNone  Interlace = 0
	InterlaceAdam7 Interlace = 1
)

func (i Interlace) String() string {
	switch i {
	case InterlaceNone:
		return "none"
	case InterlaceAdam7:
		return "adam7"
	}
	return fmt.Sprintf("interlace(%d)", uint8(i))
}

// Header is the IHDR content together with the PLTE and tRNS chunks, the
// only ancillary data that changes how pixels are read.
type Header struct {
	Width       int
	Height      int
	Format      pixel.Format
	Compression uint8
	Filter      uint8
	Interlace   Interlace

	Palette pixel.Palette
	// Transparency is the raw tRNS payload: one alpha per palette entry, or
	// a single gray or RGB key color as 16-bit samples.
	Transparency []byte
}

// Validate checks the fields a writer depends on.
func (h Header) Validate() error {
	if h.Width <= 0 || h.Height <= 0 {
		return fmt.Errorf("codec: invalid dimensions %dx%d", h.Width, h.Height)
	}
	if h.Width > maxDimension || h.Height > maxDimension {
		return fmt.Errorf("codec: dimensions %dx%d too large", h.Width, h.Height)
	}
	if err := h.Format.Validate(); err != nil {
		return err
	}
	if h.Format.IsPalette() {
		if len(h.Palette) == 0 {
			return fmt.Errorf("codec: palette image without palette")
		}
		if len(h.Palette) > 1<<h.Format.Depth {
			return fmt.Errorf("codec: %d palette entries do not fit %d-bit indices", len(h.Palette), h.Format.Depth)
		}
	}
	if len(h.Transparency) == 0 {
		return nil
	}
	n := len(h.Transparency)
	switch {
	case h.Format.HasAlpha():
		return fmt.Errorf("codec: tRNS not allowed with an alpha channel")
	case h.Format.IsPalette():
		if n > len(h.Palette) {
			return fmt.Errorf("codec: %d tRNS entries for %d palette entries", n, len(h.Palette))
		}
	case h.Format.Color == pixel.Gray:
		if n != 2 {
			return fmt.Errorf("codec: gray tRNS is %d bytes, want 2", n)
		}
	case h.Format.Color == pixel.RGB:
		if n != 6 {
			return fmt.Errorf("codec: rgb tRNS is %d bytes, want 6", n)
		}
	}
	return nil
}

// RowBytes is the size of one unfiltered row.
func (h Header) RowBytes() int { return h.Format.RowBytes(h.Width) }

// ReadHeader reads the signature and walks chunks up to the first IDAT,
// collecting IHDR, PLTE and tRNS. Chunk CRCs are left to the decoder.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	sig := make([]byte, len(Signature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return h, fmt.Errorf("codec: read signature: %w", err)
	}
	if string(sig) != Signature {
		return h, fmt.Errorf("codec: not a PNG file")
	}

	var tmp [8]byte
	seenIHDR := false
	for {
		if _, err := io.ReadFull(r, tmp[:8]); err != nil {
			return h, fmt.Errorf("codec: read chunk header: %w", err)
		}
		length := binary.BigEndian.Uint32(tmp[:4])
		typ := string(tmp[4:8])
		if length > 0x7fffffff {
			return h, fmt.Errorf("codec: chunk %q too long", typ)
		}
		if !seenIHDR && typ != "IHDR" {
			return h, fmt.Errorf("codec: first chunk is %q, want IHDR", typ)
		}
		if typ == "IDAT" || typ == "IEND" {
			if h.Format.IsPalette() && len(h.Palette) == 0 {
				return h, fmt.Errorf("codec: palette image without PLTE")
			}
			return h, nil
		}

		switch typ {
		case "IHDR", "PLTE", "tRNS":
			data := make([]byte, length)
			if _, err := io.ReadFull(r, data); err != nil {
				return h, fmt.Errorf("codec: read %s: %w", typ, err)
			}
			if err := h.parseChunk(typ, data); err != nil {
				return h, err
			}
			seenIHDR = true
		default:
			if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
				return h, fmt.Errorf("codec: skip %s: %w", typ, err)
			}
		}
		// CRC
		if _, err := io.ReadFull(r, tmp[:4]); err != nil {
			return h, fmt.Errorf("codec: read %s crc: %w", typ, err)
		}
	}
}

// ParseHeader is ReadHeader over a byte slice.
func ParseHeader(data []byte) (Header, error) {
	return ReadHeader(bytes.NewReader(data))
}

func (h *Header) parseChunk(typ string, data []byte) error {
	switch typ {
	case "IHDR":
		if len(data) != 13 {
			return fmt.Errorf("codec: bad IHDR length %d", len(data))
		}
		w := binary.BigEndian.Uint32(data[0:4])
		ht := binary.BigEndian.Uint32(data[4:8])
		h.Width, h.Height = int(w), int(ht)
		h.Format = pixel.Format{Color: pixel.ColorType(data[9]), Depth: int(data[8])}
		h.Compression = data[10]
		h.Filter = data[11]
		h.Interlace = Interlace(data[12])
		if err := h.Format.Validate(); err != nil {
			return fmt.Errorf("codec: IHDR: %w", err)
		}
		if h.Width <= 0 || h.Height <= 0 || w > maxDimension || ht > maxDimension {
			return fmt.Errorf("codec: IHDR: invalid dimensions %dx%d", w, ht)
		}
		if h.Interlace > InterlaceAdam7 {
			return fmt.Errorf("codec: IHDR: unknown interlace method %d", h.Interlace)
		}
	case "PLTE":
		if len(data)%3 != 0 || len(data) == 0 || len(data)/3 > pixel.MaxPaletteEntries {
			return fmt.Errorf("codec: bad PLTE length %d", len(data))
		}
		h.Palette = make(pixel.Palette, len(data)/3)
		for i := range h.Palette {
			h.Palette[i] = pixel.Color{R: data[3*i], G: data[3*i+1], B: data[3*i+2]}
		}
	case "tRNS":
		h.Transparency = data
	}
	return nil
}

// PaletteAlpha returns the tRNS alpha table of a palette image, or nil.
func (h Header) PaletteAlpha() []uint8 {
	if !h.Format.IsPalette() {
		return nil
	}
	return h.Transparency
}
