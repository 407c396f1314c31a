package manifest

// Manifest is the top-level output of a pngpix build.
type Manifest struct {
	Version     int              `json:"version"`
	GeneratedAt string           `json:"generated_at"`
	Profile     string           `json:"profile"`
	BasePath    string           `json:"base_path"`
	BuildInfo   *BuildInfo       `json:"build_info,omitempty"`
	Assets      map[string]Asset `json:"assets"`
	Stats       Stats            `json:"stats"`
}

// BuildInfo captures build-time parameters for diagnostics.
type BuildInfo struct {
	Workers      int    `json:"workers"`
	Capabilities string `json:"capabilities"` // codec transforms the build allowed
}

// Asset describes a single source image and its converted output.
type Asset struct {
	Source SourceInfo `json:"source"`
	Output Output     `json:"output"`
	Plan   []string   `json:"plan"` // transform steps, empty when no conversion was needed
}

// SourceInfo holds metadata about the source image.
type SourceInfo struct {
	Path        string `json:"path"`
	Format      string `json:"format"`                 // file format: png, jpeg, webp, ...
	PixelFormat string `json:"pixel_format,omitempty"` // stored PNG format, png sources only
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Size        int64  `json:"size"`
}

// Output is the PNG written for an asset.
type Output struct {
	Path     string `json:"path"` // relative to base_path
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int64  `json:"size"`     // bytes on disk
	Hash     string `json:"hash"`     // xxhash64 of the file
	Checksum string `json:"checksum"` // xxhash64 of the unfiltered rows
}

// Stats aggregates build metrics.
type Stats struct {
	TotalInputBytes  int64          `json:"total_input_bytes"`
	TotalOutputBytes int64          `json:"total_output_bytes"`
	TotalAssets      int            `json:"total_assets"`
	Converted        int            `json:"converted"` // assets whose pixel format changed
	Failed           int            `json:"failed,omitempty"`
	Formats          map[string]int `json:"formats,omitempty"` // output format -> asset count
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1
