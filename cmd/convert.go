package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/pngpix/internal/pipeline"
	"github.com/AnyUserName/pngpix/internal/pixel"
	"github.com/AnyUserName/pngpix/internal/profile"
)

var (
	convertTo     string
	convertFiller int
	convertStrict bool
	convertWidth  int
	convertLevel  int
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output.png>",
	Short: "Convert one image to a PNG of the given pixel format",
	Long: `Reads a PNG (or any image format pngpix can decode), negotiates the codec
transforms that turn its stored format into --to, and writes the result.

Without --to the stored format is kept. --strict refuses any conversion and
fails unless the input already has the requested format.

Formats: ` + formatNames(),
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertTo, "to", "t", "", "target pixel format (default: keep stored format)")
	convertCmd.Flags().IntVar(&convertFiller, "filler", -1, "alpha value added to sources without alpha (default: opaque)")
	convertCmd.Flags().BoolVar(&convertStrict, "strict", false, "refuse color space conversion")
	convertCmd.Flags().IntVar(&convertWidth, "width", 0, "maximum output width (0 = keep)")
	convertCmd.Flags().IntVarP(&convertLevel, "level", "l", zlib.DefaultCompression, "zlib compression level")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(_ *cobra.Command, args []string) error {
	in, out := args[0], args[1]

	prof := profile.Profile{
		Name:   "convert",
		Width:  convertWidth,
		Level:  convertLevel,
		Strict: convertStrict,
	}
	if convertTo != "" {
		f, err := pixel.ParseFormat(convertTo)
		if err != nil {
			return err
		}
		prof.Target = f
	}
	filler, err := fillerValue(convertFiller)
	if err != nil {
		return err
	}
	prof.Filler = filler
	caps, err := capabilities()
	if err != nil {
		return err
	}

	format, ok := pipeline.FormatOf(in)
	if !ok {
		format = "png"
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	src := pipeline.Source{AbsPath: in, RelPath: in, Key: in, Format: format, Size: int64(len(data))}

	logVerbose("input:   %s (%s)", in, format)
	logVerbose("target:  %s", targetName(prof))

	res, err := pipeline.Convert(data, src, prof, caps, newLogger())
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, res.PNG, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	info := res.Image.Info()
	plan := "native"
	if len(res.Plan) > 0 {
		plan = strings.Join(res.Plan.Strings(), " → ")
	}
	fmt.Printf("  %s → %s  %dx%d %s  (%s, %s)\n",
		in, out, info.Width, info.Height, info.Format, plan, formatBytes(int64(len(res.PNG))))
	return nil
}

// fillerValue turns the --filler flag into a profile filler. Negative means
// the default opaque filler.
func fillerValue(n int) (*uint16, error) {
	if n < 0 {
		return nil, nil
	}
	if n > 0xffff {
		return nil, fmt.Errorf("--filler %d out of range 0..65535", n)
	}
	v := uint16(n)
	return &v, nil
}

// targetName describes a profile's target format for log output.
func targetName(p profile.Profile) string {
	if p.Target == (pixel.Format{}) {
		return "stored"
	}
	return p.Target.String()
}

func formatNames() string {
	names := make([]string, len(pixel.Formats))
	for i, f := range pixel.Formats {
		names[i] = f.String()
	}
	return strings.Join(names, ", ")
}
