package profile

import (
	"sort"

	"github.com/klauspost/compress/zlib"

	"github.com/AnyUserName/pngpix/internal/pixel"
)

// Profile is a named set of conversion parameters for batch builds.
type Profile struct {
	Name   string
	Target pixel.Format // zero value keeps each source's stored format
	Width  int          // maximum output width, 0 = no resize
	Level  int          // zlib level
	Strict bool         // refuse any color conversion
	Filler *uint16      // alpha filler, nil = opaque
}

// Built-in profiles.
var profiles = map[string]Profile{
	"web": {
		Name:   "web",
		Target: pixel.FormatRGBA8,
		Level:  zlib.DefaultCompression,
	},
	"web-small": {
		Name:   "web-small",
		Target: pixel.FormatRGBA8,
		Width:  640,
		Level:  zlib.BestCompression,
	},
	"opaque": {
		Name:   "opaque",
		Target: pixel.FormatRGB8,
		Level:  zlib.DefaultCompression,
	},
	"gray": {
		Name:   "gray",
		Target: pixel.FormatGray8,
		Level:  zlib.BestCompression,
	},
	"archive": {
		Name:   "archive",
		Target: pixel.FormatRGBA16,
		Level:  zlib.BestCompression,
	},
	"recompress": {
		Name:   "recompress",
		Level:  zlib.BestCompression,
		Strict: true,
	},
}

// Get returns a profile by name. Falls back to web if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles["web"]
	p.Name = name // preserve requested name
	return p
}

// Lookup is Get without the fallback.
func Lookup(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// Names lists the built-in profiles.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TargetFormat returns the output format for a source stored as src.
func (p Profile) TargetFormat(src pixel.Format) pixel.Format {
	if p.Target == (pixel.Format{}) {
		return src
	}
	return p.Target
}

// TargetSize returns the output dimensions for a source of w x h. Images are
// never upscaled and keep their aspect ratio.
func (p Profile) TargetSize(w, h int) (int, int) {
	if p.Width <= 0 || w <= p.Width {
		return w, h
	}
	nh := int(float64(h) * float64(p.Width) / float64(w))
	if nh < 1 {
		nh = 1
	}
	return p.Width, nh
}
