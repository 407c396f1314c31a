package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pngpix/internal/manifest"
	"github.com/AnyUserName/pngpix/internal/pipeline"
	"github.com/AnyUserName/pngpix/internal/pixel"
	"github.com/AnyUserName/pngpix/internal/profile"
)

var (
	buildOutDir  string
	buildProfile string
	buildWorkers int
	buildTo      string
	buildWidth   int
	buildLevel   int
)

var buildCmd = &cobra.Command{
	Use:   "build <input_dir>",
	Short: "Convert every image in a directory to PNG and write a manifest",
	Long: `Scans input directory for images (png, jpg, jpeg, gif, webp, bmp, tiff),
converts each to the profile's pixel format and writes a manifest file.

Output filenames are content-addressed: <key>.<format>.<hash>.png

Profiles: ` + strings.Join(profile.Names(), ", "),
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutDir, "out", "o", "./pngpix_out", "output directory")
	buildCmd.Flags().StringVarP(&buildProfile, "profile", "p", "web", "processing profile")
	buildCmd.Flags().IntVarP(&buildWorkers, "workers", "w", 0, "parallel workers (0 = NumCPU)")
	buildCmd.Flags().StringVar(&buildTo, "to", "", "target pixel format (overrides profile)")
	buildCmd.Flags().IntVar(&buildWidth, "width", 0, "maximum output width, 0 = keep (overrides profile)")
	buildCmd.Flags().IntVarP(&buildLevel, "level", "l", 0, "zlib compression level -1..9 (overrides profile)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	inputDir := args[0]
	start := time.Now()

	// Resolve absolute paths.
	absInput, err := filepath.Abs(inputDir)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(buildOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	// Load profile.
	prof, ok := profile.Lookup(buildProfile)
	if !ok {
		logVerbose("unknown profile %q, using web", buildProfile)
		prof = profile.Get(buildProfile)
	}
	if buildTo != "" {
		f, err := pixel.ParseFormat(buildTo)
		if err != nil {
			return err
		}
		prof.Target = f
		prof.Strict = false
	}
	if cmd.Flags().Changed("width") {
		prof.Width = buildWidth
	}
	if cmd.Flags().Changed("level") {
		prof.Level = buildLevel
	}
	caps, err := capabilities()
	if err != nil {
		return err
	}

	logVerbose("input:   %s", absInput)
	logVerbose("output:  %s", absOutput)
	logVerbose("profile: %s (target=%s, width=%d, level=%d, strict=%v)",
		prof.Name, targetName(prof), prof.Width, prof.Level, prof.Strict)

	// Create output dir.
	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// Run pipeline.
	p := pipeline.New(pipeline.Config{
		InputDir:     absInput,
		OutputDir:    absOutput,
		Profile:      prof,
		Workers:      buildWorkers,
		Capabilities: caps,
		Logger:       newLogger(),
	})

	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	// Write manifest.
	manifestPath := filepath.Join(absOutput, manifest.FileName)
	if err := manifest.WriteJSON(m, manifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	printBuildReport(m, time.Since(start))
	return nil
}

func printBuildReport(m *manifest.Manifest, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║              pngpix build complete               ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	stats := m.Stats
	ratio := float64(0)
	if stats.TotalInputBytes > 0 {
		ratio = float64(stats.TotalOutputBytes) / float64(stats.TotalInputBytes) * 100
	}

	fmt.Printf("  Assets:      %d\n", stats.TotalAssets)
	fmt.Printf("  Converted:   %d\n", stats.Converted)
	if stats.Failed > 0 {
		fmt.Printf("  Failed:      %d (run with -v for details)\n", stats.Failed)
	}
	fmt.Printf("  Input size:  %s\n", formatBytes(stats.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(stats.TotalOutputBytes))
	fmt.Printf("  Ratio:       %.1f%% of original\n", ratio)
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	if m.BuildInfo != nil {
		fmt.Printf("  Workers:     %d\n", m.BuildInfo.Workers)
		fmt.Printf("  Codec:       %s\n", m.BuildInfo.Capabilities)
	}
	fmt.Println()

	// Top 10 heaviest assets.
	if len(m.Assets) > 0 {
		type assetSize struct {
			key        string
			inputSize  int64
			outputSize int64
		}
		var items []assetSize
		for key, a := range m.Assets {
			items = append(items, assetSize{key, a.Source.Size, a.Output.Size})
		}
		sort.Slice(items, func(i, j int) bool {
			if items[i].inputSize != items[j].inputSize {
				return items[i].inputSize > items[j].inputSize
			}
			return items[i].key < items[j].key
		})
		n := min(len(items), 10)
		fmt.Printf("  Top %d heaviest (original → converted):\n", n)
		for _, it := range items[:n] {
			fmt.Printf("    %-40s %8s → %8s  (%s)\n",
				truncKey(it.key, 40),
				formatBytes(it.inputSize),
				formatBytes(it.outputSize),
				sizeChange(it.inputSize, it.outputSize),
			)
		}
		fmt.Println()
	}

	fmt.Printf("  Formats:     %s\n", strings.Join(outputFormats(m), ", "))
	fmt.Println()

	data, _ := json.Marshal(m)
	fmt.Printf("  Manifest:    %s (%s)\n", manifest.FileName, formatBytes(int64(len(data))))
	fmt.Println()
}

// outputFormats lists the pixel formats present in the manifest in
// canonical order.
func outputFormats(m *manifest.Manifest) []string {
	var out []string
	for _, f := range pixel.Formats {
		if n := m.Stats.Formats[f.String()]; n > 0 {
			out = append(out, fmt.Sprintf("%s×%d", f, n))
		}
	}
	return out
}

func sizeChange(in, out int64) string {
	if in <= 0 {
		return "n/a"
	}
	pct := math.Round((float64(out)/float64(in) - 1) * 100)
	switch {
	case pct == 0:
		return "0%"
	case pct < 0:
		return fmt.Sprintf("−%.0f%%", -pct)
	}
	return fmt.Sprintf("+%.0f%%", pct)
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
