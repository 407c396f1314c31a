package raster

import (
	"fmt"
	"io"

	"github.com/AnyUserName/pngpix/internal/codec"
	"github.com/AnyUserName/pngpix/internal/pixel"
)

// Any is an Image whose pixel type is picked at run time.
type Any interface {
	Info() Info
	Format() pixel.Format
	Consume(rd *codec.Reader, transform Transform) error
	Generate(w io.Writer, opts ...codec.WriterOption) error
	Checksum() uint64
}

// NewAny returns an empty image for format f.
func NewAny(f pixel.Format) (Any, error) {
	switch f {
	case pixel.FormatGray1:
		return NewPacked[pixel.Gray1](0, 0), nil
	case pixel.FormatGray2:
		return NewPacked[pixel.Gray2](0, 0), nil
	case pixel.FormatGray4:
		return NewPacked[pixel.Gray4](0, 0), nil
	case pixel.FormatGray8:
		return New[pixel.Gray8](0, 0), nil
	case pixel.FormatGray16:
		return New[pixel.Gray16](0, 0), nil
	case pixel.FormatGA8:
		return New[pixel.GA8](0, 0), nil
	case pixel.FormatGA16:
		return New[pixel.GA16](0, 0), nil
	case pixel.FormatRGB8:
		return New[pixel.RGB8](0, 0), nil
	case pixel.FormatRGB16:
		return New[pixel.RGB16](0, 0), nil
	case pixel.FormatRGBA8:
		return New[pixel.RGBA8](0, 0), nil
	case pixel.FormatRGBA16:
		return New[pixel.RGBA16](0, 0), nil
	case pixel.FormatIndex1:
		return NewPacked[pixel.Index1](0, 0), nil
	case pixel.FormatIndex2:
		return NewPacked[pixel.Index2](0, 0), nil
	case pixel.FormatIndex4:
		return NewPacked[pixel.Index4](0, 0), nil
	case pixel.FormatIndex8:
		return New[pixel.Index8](0, 0), nil
	}
	return nil, fmt.Errorf("raster: no pixel type for %s", f)
}

// Decode reads rd into a new image of format target.
func Decode(rd *codec.Reader, target pixel.Format, transform Transform) (Any, error) {
	img, err := NewAny(target)
	if err != nil {
		return nil, err
	}
	if err := img.Consume(rd, transform); err != nil {
		return nil, err
	}
	return img, nil
}
