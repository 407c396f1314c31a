package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pngpix/internal/codec"
	"github.com/AnyUserName/pngpix/internal/hasher"
	"github.com/AnyUserName/pngpix/internal/manifest"
	"github.com/AnyUserName/pngpix/internal/pixel"
	"github.com/AnyUserName/pngpix/internal/raster"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest_path>",
	Short: "Validate a pngpix manifest and check every output PNG against it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	manifestPath := args[0]

	m, err := manifest.ReadJSON(manifestPath)
	if err != nil {
		return err
	}

	baseDir := filepath.Join(filepath.Dir(manifestPath), m.BasePath)
	errors := validateManifest(m, baseDir)

	if len(errors) == 0 {
		fmt.Println("  ✓ Manifest is valid")
		fmt.Printf("  ✓ %d assets, all outputs present and matching\n", m.Stats.TotalAssets)
		return nil
	}

	fmt.Printf("  ✗ Manifest has %d error(s):\n", len(errors))
	for _, e := range errors {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errors))
}

func validateManifest(m *manifest.Manifest, baseDir string) []string {
	var errs []string

	// Check version.
	if m.Version != manifest.SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	seenPaths := map[string]string{}
	for key, asset := range m.Assets {
		src, out := asset.Source, asset.Output

		if src.Width <= 0 || src.Height <= 0 {
			errs = append(errs, fmt.Sprintf("asset %q: invalid source dimensions %dx%d",
				key, src.Width, src.Height))
		}
		format, formatErr := pixel.ParseFormat(out.Format)
		if formatErr != nil {
			errs = append(errs, fmt.Sprintf("asset %q: %v", key, formatErr))
		}
		if out.Hash == "" {
			errs = append(errs, fmt.Sprintf("asset %q: missing hash", key))
		}
		if out.Path == "" {
			errs = append(errs, fmt.Sprintf("asset %q: missing output path", key))
			continue
		}

		// Check duplicate paths.
		if other, ok := seenPaths[out.Path]; ok {
			errs = append(errs, fmt.Sprintf("asset %q: output %q already used by %q", key, out.Path, other))
		}
		seenPaths[out.Path] = key

		// Check file contents.
		data, err := os.ReadFile(filepath.Join(baseDir, out.Path))
		if err != nil {
			errs = append(errs, fmt.Sprintf("asset %q: file not found: %s", key, out.Path))
			continue
		}
		if int64(len(data)) != out.Size {
			errs = append(errs, fmt.Sprintf("asset %q: size mismatch: manifest=%d, disk=%d",
				key, out.Size, len(data)))
		}
		if out.Hash != "" {
			if h := hasher.ContentHash(data, len(out.Hash)); h != out.Hash {
				errs = append(errs, fmt.Sprintf("asset %q: hash mismatch: manifest=%s, disk=%s", key, out.Hash, h))
			}
		}
		if formatErr == nil {
			errs = append(errs, checkOutput(key, data, format, out)...)
		}
	}

	// Verify stats consistency.
	counted := manifest.Manifest{Assets: m.Assets}
	counted.ComputeStats()
	s := counted.Stats
	if m.Stats.TotalAssets != s.TotalAssets {
		errs = append(errs, fmt.Sprintf("stats.total_assets mismatch: %d != %d", m.Stats.TotalAssets, s.TotalAssets))
	}
	if m.Stats.Converted != s.Converted {
		errs = append(errs, fmt.Sprintf("stats.converted mismatch: %d != %d", m.Stats.Converted, s.Converted))
	}
	if m.Stats.TotalOutputBytes != s.TotalOutputBytes {
		errs = append(errs, fmt.Sprintf("stats.total_output_bytes mismatch: %d != %d",
			m.Stats.TotalOutputBytes, s.TotalOutputBytes))
	}
	formats := map[string]bool{}
	for f := range m.Stats.Formats {
		formats[f] = true
	}
	for f := range s.Formats {
		formats[f] = true
	}
	for _, f := range sortedKeys(formats) {
		if got, want := m.Stats.Formats[f], s.Formats[f]; got != want {
			errs = append(errs, fmt.Sprintf("stats.formats[%s] mismatch: %d != %d", f, got, want))
		}
	}

	return errs
}

// checkOutput decodes an output PNG without conversion and compares it
// with its manifest entry.
func checkOutput(key string, data []byte, format pixel.Format, out manifest.Output) []string {
	rd, err := codec.NewReader(bytes.NewReader(data))
	if err != nil {
		return []string{fmt.Sprintf("asset %q: %v", key, err)}
	}
	hdr := rd.Header()

	var errs []string
	if hdr.Format != format {
		errs = append(errs, fmt.Sprintf("asset %q: stored as %s, manifest says %s", key, hdr.Format, format))
	}
	if hdr.Width != out.Width || hdr.Height != out.Height {
		errs = append(errs, fmt.Sprintf("asset %q: dimensions %dx%d, manifest says %dx%d",
			key, hdr.Width, hdr.Height, out.Width, out.Height))
	}
	if len(errs) > 0 || out.Checksum == "" {
		return errs
	}

	img, err := raster.Decode(rd, format, raster.RequireColorSpace())
	if err != nil {
		return append(errs, fmt.Sprintf("asset %q: %v", key, err))
	}
	if sum := hasher.Hex(img.Checksum(), len(out.Checksum)); sum != out.Checksum {
		errs = append(errs, fmt.Sprintf("asset %q: pixel checksum mismatch: manifest=%s, decoded=%s",
			key, out.Checksum, sum))
	}
	return errs
}
