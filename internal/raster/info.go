// Package raster couples a pixel buffer with the PNG metadata it needs to be
// read from and written to a stream.
package raster

import (
	"github.com/AnyUserName/pngpix/internal/codec"
	"github.com/AnyUserName/pngpix/internal/pixel"
)

// Info is the image metadata that travels with the pixels.
type Info struct {
	Width        int
	Height       int
	Format       pixel.Format
	Interlace    codec.Interlace
	Palette      pixel.Palette
	Transparency []byte
}

// DropPalette forgets the palette and its tRNS alpha table.
func (i *Info) DropPalette() {
	if i.Palette == nil {
		return
	}
	i.Palette = nil
	if i.Format.IsPalette() {
		i.Transparency = nil
	}
}

// Header builds the codec header for writing. Images are always written
// non-interlaced.
func (i Info) Header() codec.Header {
	if !i.Format.IsPalette() {
		i.DropPalette()
	}
	hdr := codec.Header{
		Width:   i.Width,
		Height:  i.Height,
		Format:  i.Format,
		Palette: i.Palette,
	}
	if !i.Format.HasAlpha() {
		hdr.Transparency = i.Transparency
	}
	return hdr
}
