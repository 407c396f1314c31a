package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/klauspost/compress/zlib"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/pngpix/internal/codec"
	"github.com/AnyUserName/pngpix/internal/pixel"
	"github.com/AnyUserName/pngpix/internal/raster"
)

var genSize int

var genCmd = &cobra.Command{
	Use:   "gen <1|2|4> <output.png>",
	Short: "Write a packed grayscale test pattern",
	Long: `Writes a square grayscale PNG stored at 1, 2 or 4 bits per pixel. Pixel
(x, y) holds x+y truncated to the bit depth, so every packed value and every
sub-byte offset appears in each row.`,
	Args: cobra.ExactArgs(2),
	RunE: runGen,
}

func init() {
	genCmd.Flags().IntVarP(&genSize, "size", "s", 32, "image width and height")
	rootCmd.AddCommand(genCmd)
}

func runGen(_ *cobra.Command, args []string) error {
	depth, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bit depth %q: %w", args[0], err)
	}
	if genSize <= 0 {
		return fmt.Errorf("--size must be positive, got %d", genSize)
	}

	img, err := grayPattern(depth, genSize)
	if err != nil {
		return err
	}

	f, err := os.Create(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	if err := img.Generate(f, codec.WithLevel(zlib.BestCompression)); err != nil {
		return fmt.Errorf("write %s: %w", args[1], err)
	}
	logVerbose("checksum: %016x", img.Checksum())
	fmt.Printf("  %s  %dx%d %s\n", args[1], genSize, genSize, img.Format())
	return f.Close()
}

func grayPattern(depth, size int) (raster.Any, error) {
	switch depth {
	case 1:
		return raster.GrayPattern[pixel.Gray1](size, size), nil
	case 2:
		return raster.GrayPattern[pixel.Gray2](size, size), nil
	case 4:
		return raster.GrayPattern[pixel.Gray4](size, size), nil
	}
	return nil, fmt.Errorf("unsupported packed depth %d (want 1, 2 or 4)", depth)
}
