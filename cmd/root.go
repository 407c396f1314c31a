package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pngpix/internal/negotiate"
)

var (
	version = "0.1.0"
	verbose bool
	disable string
)

var rootCmd = &cobra.Command{
	Use:   "pngpix",
	Short: "PNG pixel format inspection and conversion",
	Long: `pngpix reads PNG files into typed pixel buffers, including packed
1, 2 and 4 bit rows, and converts between color types and bit depths by
negotiating the codec transforms each conversion needs.

Use --disable to model a codec built without some transforms and see which
conversions it can still perform.`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&disable, "disable", "", "comma separated codec transforms to disable (strip16, filler, palette-expand, ...)")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"pngpix %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[pngpix] "+format+"\n", args...)
	}
}

// newLogger returns the structured logger handed to library code.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// capabilities returns the codec capabilities left after --disable.
func capabilities() (negotiate.Capability, error) {
	off, err := negotiate.ParseCapabilities(disable)
	if err != nil {
		return 0, fmt.Errorf("--disable: %w", err)
	}
	caps := negotiate.AllCapabilities &^ off
	if off != 0 {
		logVerbose("codec capabilities: %s", caps)
	}
	return caps, nil
}
