package raster

import "github.com/AnyUserName/pngpix/internal/pixel"

// GrayPattern fills a packed gray image with diagonal bands: pixel (x, y)
// holds x+y truncated to the pixel depth.
func GrayPattern[P pixel.Packed](width, height int) *Image[P] {
	m := NewPacked[P](width, height)
	mask := pixel.BitMask[P]()
	for y := 0; y < height; y++ {
		row, _ := m.Row(y)
		for x := 0; x < width; x++ {
			_ = row.SetPixel(x, P(uint8(x+y)&mask))
		}
	}
	return m
}
