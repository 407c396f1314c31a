package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AnyUserName/pngpix/internal/codec"
	"github.com/AnyUserName/pngpix/internal/manifest"
	"github.com/AnyUserName/pngpix/internal/negotiate"
	"github.com/AnyUserName/pngpix/internal/pipeline"
	"github.com/AnyUserName/pngpix/internal/pixel"
	"github.com/AnyUserName/pngpix/internal/profile"
)

func conversionLine(t *testing.T, out, format string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "    "+format+" ") {
			return line
		}
	}
	t.Fatalf("no conversion line for %s in:\n%s", format, out)
	return ""
}

func TestDescribeConversions(t *testing.T) {
	hdr := codec.Header{Width: 8, Height: 4, Format: pixel.FormatGray2}
	src := negotiate.Descriptor{Format: pixel.FormatGray2}

	out := describeConversions("p.png", hdr, src, negotiate.AllCapabilities)
	if !strings.Contains(out, "Format:      gray2 (2 bits per pixel, 2 bytes per row)") {
		t.Errorf("header summary missing:\n%s", out)
	}
	if line := conversionLine(t, out, "gray2"); !strings.Contains(line, "✓ native") {
		t.Errorf("gray2: got %q, want native", line)
	}
	if line := conversionLine(t, out, "rgb8"); !strings.Contains(line, "gray-to-rgb") {
		t.Errorf("rgb8: got %q, want a gray-to-rgb plan", line)
	}
	if line := conversionLine(t, out, "gray4"); !strings.Contains(line, "✗") {
		t.Errorf("gray4: got %q, want a refusal", line)
	}

	out = describeConversions("p.png", hdr, src, negotiate.AllCapabilities&^negotiate.GrayExpand)
	if line := conversionLine(t, out, "rgb8"); !strings.Contains(line, "needs gray-expand") {
		t.Errorf("rgb8 without gray-expand: got %q", line)
	}
}

func TestGrayPattern(t *testing.T) {
	for depth, want := range map[int]pixel.Format{1: pixel.FormatGray1, 2: pixel.FormatGray2, 4: pixel.FormatGray4} {
		img, err := grayPattern(depth, 4)
		if err != nil {
			t.Fatalf("depth %d: %v", depth, err)
		}
		if img.Format() != want {
			t.Errorf("depth %d: got %s, want %s", depth, img.Format(), want)
		}
	}
	if _, err := grayPattern(8, 4); err == nil {
		t.Error("depth 8: expected error")
	}
}

func TestSizeChange(t *testing.T) {
	tests := []struct {
		in, out int64
		want    string
	}{
		{100, 50, "−50%"},
		{100, 150, "+50%"},
		{100, 100, "0%"},
		{1000, 1002, "0%"},
		{1000, 998, "0%"},
		{0, 10, "n/a"},
	}
	for _, tt := range tests {
		if got := sizeChange(tt.in, tt.out); got != tt.want {
			t.Errorf("sizeChange(%d, %d): got %q, want %q", tt.in, tt.out, got, tt.want)
		}
	}
}

func TestFillerValue(t *testing.T) {
	if v, err := fillerValue(-1); err != nil || v != nil {
		t.Errorf("fillerValue(-1): got %v, %v, want nil, nil", v, err)
	}
	for _, n := range []int{0, 0x80, 0xffff} {
		v, err := fillerValue(n)
		if err != nil || v == nil || int(*v) != n {
			t.Errorf("fillerValue(%d): got %v, %v", n, v, err)
		}
	}
	for _, n := range []int{0x10000, 70000} {
		if _, err := fillerValue(n); err == nil {
			t.Errorf("fillerValue(%d): expected error", n)
		}
	}
}

// build converts a single packed gray PNG and returns the output directory
// and its manifest.
func build(t *testing.T, prof profile.Profile) (string, *manifest.Manifest) {
	t.Helper()
	in, out := t.TempDir(), t.TempDir()

	img, err := grayPattern(2, 16)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := img.Generate(&buf); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(in, "pattern.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := pipeline.New(pipeline.Config{
		InputDir:     in,
		OutputDir:    out,
		Profile:      prof,
		Workers:      1,
		Capabilities: negotiate.AllCapabilities,
	}).Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := manifest.WriteJSON(m, filepath.Join(out, manifest.FileName)); err != nil {
		t.Fatal(err)
	}
	return out, m
}

func TestValidateManifest(t *testing.T) {
	out, m := build(t, profile.Get("web"))

	if errs := validateManifest(m, out); len(errs) != 0 {
		t.Fatalf("fresh build: got errors %v", errs)
	}

	read, err := manifest.ReadJSON(filepath.Join(out, manifest.FileName))
	if err != nil {
		t.Fatal(err)
	}
	if errs := validateManifest(read, out); len(errs) != 0 {
		t.Errorf("reloaded manifest: got errors %v", errs)
	}
}

func TestValidateManifestDetectsTampering(t *testing.T) {
	out, m := build(t, profile.Get("web"))
	a := m.Assets["pattern"]

	// Same file reported under a different format.
	wrong := *m
	wrong.Assets = map[string]manifest.Asset{"pattern": a}
	a.Output.Format = "rgb8"
	wrong.Assets["pattern"] = a
	errs := validateManifest(&wrong, out)
	if !containsError(errs, "stored as rgba8") {
		t.Errorf("format: got %v", errs)
	}

	// Output replaced on disk.
	if err := os.WriteFile(filepath.Join(out, m.Assets["pattern"].Output.Path), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	errs = validateManifest(m, out)
	for _, want := range []string{"size mismatch", "hash mismatch"} {
		if !containsError(errs, want) {
			t.Errorf("tampered file: want %q in %v", want, errs)
		}
	}

	// Stats out of sync.
	m.Stats.Formats = map[string]int{"rgba8": 2, "gray8": 1}
	errs = validateManifest(m, out)
	for _, want := range []string{"stats.formats[rgba8] mismatch: 2 != 1", "stats.formats[gray8] mismatch: 1 != 0"} {
		if !containsError(errs, want) {
			t.Errorf("formats: want %q in %v", want, errs)
		}
	}

	m.Stats.TotalAssets = 7
	m.Version = 2
	errs = validateManifest(m, out)
	for _, want := range []string{"stats.total_assets mismatch", "unsupported manifest version"} {
		if !containsError(errs, want) {
			t.Errorf("stats: want %q in %v", want, errs)
		}
	}
}

func containsError(errs []string, sub string) bool {
	for _, e := range errs {
		if strings.Contains(e, sub) {
			return true
		}
	}
	return false
}

func TestFormatStats(t *testing.T) {
	_, m := build(t, profile.Get("web"))
	m.BuildInfo.Capabilities = (negotiate.AllCapabilities &^ negotiate.Expand16).String()

	out := formatStats(m)
	for _, want := range []string{
		"Total assets:     1",
		"Converted:        1",
		"rgba8        1 files",
		"gray2        1 files",
		"add-alpha",
		"gray-expand",
		"reduced codec",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}
