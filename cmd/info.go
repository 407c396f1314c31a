package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pngpix/internal/codec"
	"github.com/AnyUserName/pngpix/internal/hasher"
	"github.com/AnyUserName/pngpix/internal/negotiate"
	"github.com/AnyUserName/pngpix/internal/pixel"
)

var infoCmd = &cobra.Command{
	Use:   "info <file.png>",
	Short: "Show a PNG header and how it converts to every pixel format",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(_ *cobra.Command, args []string) error {
	rd, err := readerFor(args[0])
	if err != nil {
		return err
	}
	fmt.Print(describeConversions(args[0], rd.Header(), rd.Descriptor(), rd.Capabilities()))

	sum, err := hasher.FileHash(args[0], 16)
	if err != nil {
		return err
	}
	fmt.Printf("  Hash:        %s\n\n", sum)
	return nil
}

func describeConversions(name string, hdr codec.Header, src negotiate.Descriptor, caps negotiate.Capability) string {
	var b strings.Builder
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "  File:        %s\n", name)
	fmt.Fprintf(&b, "  Size:        %dx%d\n", hdr.Width, hdr.Height)
	fmt.Fprintf(&b, "  Format:      %s (%d bits per pixel, %d bytes per row)\n",
		hdr.Format, hdr.Format.BitsPerPixel(), hdr.RowBytes())
	fmt.Fprintf(&b, "  Interlace:   %s\n", hdr.Interlace)
	if len(hdr.Palette) > 0 {
		fmt.Fprintf(&b, "  Palette:     %d entries\n", len(hdr.Palette))
	}
	if len(hdr.Transparency) > 0 {
		fmt.Fprintf(&b, "  tRNS:        %d bytes\n", len(hdr.Transparency))
	}
	fmt.Fprintf(&b, "  Codec:       %s\n", caps)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "  Conversions:")
	for _, dst := range pixel.Formats {
		plan, err := negotiate.Negotiate(src, dst, caps)
		switch {
		case err != nil:
			fmt.Fprintf(&b, "    %-8s  ✗ %s\n", dst, failureReason(err))
		case len(plan) == 0:
			fmt.Fprintf(&b, "    %-8s  ✓ native\n", dst)
		default:
			fmt.Fprintf(&b, "    %-8s  ✓ %s\n", dst, strings.Join(plan.Strings(), " → "))
		}
	}
	fmt.Fprintln(&b)
	return b.String()
}

func failureReason(err error) string {
	var ne *negotiate.Error
	if errors.As(err, &ne) && ne.Missing != 0 {
		return fmt.Sprintf("%v (needs %s)", ne.Kind, ne.Missing)
	}
	return strings.TrimPrefix(err.Error(), "negotiate: ")
}

// readerFor opens a PNG file for conversion with the current capabilities.
func readerFor(path string) (*codec.Reader, error) {
	caps, err := capabilities()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return codec.NewReader(bytes.NewReader(data), codec.WithCapabilities(caps))
}
