package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pngpix/internal/manifest"
	"github.com/AnyUserName/pngpix/internal/negotiate"
	"github.com/AnyUserName/pngpix/internal/pixel"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_manifest>",
	Short: "Display statistics for a built output directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	path := args[0]

	// If path is a directory, look for manifest inside.
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, manifest.FileName)
	}

	m, err := manifest.ReadJSON(path)
	if err != nil {
		return err
	}
	fmt.Print(formatStats(m))
	return nil
}

func formatStats(m *manifest.Manifest) string {
	var b strings.Builder
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "  Manifest version: %d\n", m.Version)
	fmt.Fprintf(&b, "  Generated:        %s\n", m.GeneratedAt)
	fmt.Fprintf(&b, "  Profile:          %s\n", m.Profile)
	if m.BuildInfo != nil {
		fmt.Fprintf(&b, "  Workers:          %d\n", m.BuildInfo.Workers)
		fmt.Fprintf(&b, "  Codec:            %s\n", m.BuildInfo.Capabilities)
	}
	fmt.Fprintln(&b)

	s := m.Stats
	fmt.Fprintf(&b, "  Total assets:     %d\n", s.TotalAssets)
	fmt.Fprintf(&b, "  Converted:        %d\n", s.Converted)
	fmt.Fprintf(&b, "  Failed:           %d\n", s.Failed)
	fmt.Fprintf(&b, "  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Fprintf(&b, "  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Fprintf(&b, "  Compression:      %.1f%% of original\n", ratio)
	}
	fmt.Fprintln(&b)

	// Per-format breakdown.
	type formatStat struct {
		count int
		bytes int64
	}
	byFormat := map[string]formatStat{}
	bySource := map[string]int{}
	for _, a := range m.Assets {
		fs := byFormat[a.Output.Format]
		fs.count++
		fs.bytes += a.Output.Size
		byFormat[a.Output.Format] = fs
		if a.Source.PixelFormat != "" {
			bySource[a.Source.PixelFormat]++
		} else {
			bySource[a.Source.Format]++
		}
	}

	fmt.Fprintln(&b, "  Output formats:")
	for _, f := range pixel.Formats {
		if fs, ok := byFormat[f.String()]; ok {
			fmt.Fprintf(&b, "    %-8s  %4d files  %s\n", f, fs.count, formatBytes(fs.bytes))
		}
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "  Source formats:")
	for _, name := range sortedKeys(bySource) {
		fmt.Fprintf(&b, "    %-8s  %4d files\n", name, bySource[name])
	}
	fmt.Fprintln(&b)

	// Transform usage, keyed by step kind so filler values group together.
	steps := map[string]int{}
	for _, a := range m.Assets {
		for _, st := range a.Plan {
			name, _, _ := strings.Cut(st, "(")
			steps[name]++
		}
	}
	if len(steps) > 0 {
		fmt.Fprintln(&b, "  Transforms:")
		for _, name := range sortedKeys(steps) {
			fmt.Fprintf(&b, "    %-16s %4d assets\n", name, steps[name])
		}
		fmt.Fprintln(&b)
	}

	// Warnings.
	var warnings []string
	for _, key := range sortedKeys(m.Assets) {
		a := m.Assets[key]
		if a.Output.Checksum == "" {
			warnings = append(warnings, fmt.Sprintf("asset %q missing pixel checksum", key))
		}
		if a.Output.Width != a.Source.Width {
			warnings = append(warnings, fmt.Sprintf("asset %q resized %dx%d → %dx%d",
				key, a.Source.Width, a.Source.Height, a.Output.Width, a.Output.Height))
		}
	}
	if m.BuildInfo != nil && m.BuildInfo.Capabilities != negotiate.AllCapabilities.String() {
		warnings = append(warnings, "built with a reduced codec: "+m.BuildInfo.Capabilities)
	}
	if len(warnings) > 0 {
		fmt.Fprintf(&b, "  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(&b, "    ⚠ %s\n", w)
		}
		fmt.Fprintln(&b)
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
