package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/pngpix/internal/codec"
	"github.com/AnyUserName/pngpix/internal/hasher"
	"github.com/AnyUserName/pngpix/internal/manifest"
	"github.com/AnyUserName/pngpix/internal/negotiate"
	"github.com/AnyUserName/pngpix/internal/profile"
	"github.com/AnyUserName/pngpix/internal/raster"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// processResult holds the result of converting a single source image.
type processResult struct {
	key   string
	asset manifest.Asset
	err   error
}

// processImage handles a single source image: read, convert, write.
func processImage(src Source, cfg Config, logger *slog.Logger) processResult {
	result := processResult{key: src.Key}

	data, err := os.ReadFile(src.AbsPath)
	if err != nil {
		result.err = fmt.Errorf("read %s: %w", src.RelPath, err)
		return result
	}

	conv, err := Convert(data, src, cfg.Profile, cfg.Capabilities, logger)
	if err != nil {
		result.err = err
		return result
	}

	// Build filename: key.format.hash.png
	contentHash := hasher.ContentHash(conv.PNG, 16)
	info := conv.Image.Info()
	keyDir := filepath.Dir(src.Key)
	fileName := fmt.Sprintf("%s.%s.%s.png", filepath.Base(src.Key), info.Format, contentHash[:8])
	relPath := filepath.ToSlash(filepath.Join(keyDir, fileName))

	outPath := filepath.Join(cfg.OutputDir, relPath)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		result.err = fmt.Errorf("create %s: %w", filepath.Dir(relPath), err)
		return result
	}
	if err := os.WriteFile(outPath, conv.PNG, 0o644); err != nil {
		result.err = fmt.Errorf("write %s: %w", relPath, err)
		return result
	}

	result.asset = manifest.Asset{
		Source: conv.Source,
		Output: manifest.Output{
			Path:     relPath,
			Format:   info.Format.String(),
			Width:    info.Width,
			Height:   info.Height,
			Size:     int64(len(conv.PNG)),
			Hash:     contentHash,
			Checksum: hasher.Hex(conv.Image.Checksum(), 16),
		},
		Plan: conv.Plan.Strings(),
	}
	return result
}

// Result is one converted image.
type Result struct {
	Image  raster.Any
	PNG    []byte
	Plan   negotiate.Plan // nil for strict profiles
	Source manifest.SourceInfo
}

// Convert decodes data, converts it to the profile's target format and
// encodes it as PNG. src supplies the file format and the path recorded in
// the result.
func Convert(data []byte, src Source, prof profile.Profile, caps negotiate.Capability, logger *slog.Logger) (*Result, error) {
	rd, srcInfo, err := openSource(src, data, prof, caps, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.RelPath, err)
	}

	// Negotiate up front so the plan can be recorded.
	target := prof.TargetFormat(rd.Header().Format)
	var plan negotiate.Plan
	var transform raster.Transform
	if prof.Strict {
		transform = raster.RequireColorSpace()
	} else {
		var opts []negotiate.Option
		if prof.Filler != nil {
			opts = append(opts, negotiate.WithFiller(*prof.Filler))
		}
		plan, err = negotiate.Negotiate(rd.Descriptor(), target, rd.Capabilities(), opts...)
		if err != nil {
			return nil, fmt.Errorf("convert %s to %s: %w", src.RelPath, target, err)
		}
		transform = raster.ApplyPlan(plan)
	}
	logger.Debug("negotiated", "from", rd.Header().Format, "to", target, "plan", plan.Strings())

	img, err := raster.Decode(rd, target, transform)
	if err != nil {
		return nil, fmt.Errorf("convert %s to %s: %w", src.RelPath, target, err)
	}

	var buf bytes.Buffer
	if err := img.Generate(&buf, codec.WithLevel(prof.Level)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", src.RelPath, err)
	}
	return &Result{Image: img, PNG: buf.Bytes(), Plan: plan, Source: srcInfo}, nil
}

// openSource returns a codec reader for the source. PNG files that keep
// their size go straight through the codec so their stored depth, palette
// and tRNS survive; everything else is decoded to an image.Image first.
func openSource(src Source, data []byte, prof profile.Profile, caps negotiate.Capability, logger *slog.Logger) (*codec.Reader, manifest.SourceInfo, error) {
	info := manifest.SourceInfo{Path: src.RelPath, Format: src.Format, Size: src.Size}
	opt := codec.WithCapabilities(caps)

	if src.Format == "png" {
		hdr, err := codec.ParseHeader(data)
		if err != nil {
			return nil, info, err
		}
		info.PixelFormat = hdr.Format.String()
		info.Width, info.Height = hdr.Width, hdr.Height
		if w, h := prof.TargetSize(hdr.Width, hdr.Height); w == hdr.Width && h == hdr.Height {
			rd, err := codec.NewReader(bytes.NewReader(data), opt)
			return rd, info, err
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, info, fmt.Errorf("decode: %w", err)
	}
	b := img.Bounds()
	info.Width, info.Height = b.Dx(), b.Dy()

	if w, h := prof.TargetSize(b.Dx(), b.Dy()); w != b.Dx() || h != b.Dy() {
		logger.Debug("resizing", "from", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()), "to", fmt.Sprintf("%dx%d", w, h))
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	rd, err := codec.NewImageReader(img, opt)
	return rd, info, err
}
