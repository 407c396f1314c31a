package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/AnyUserName/pngpix/internal/manifest"
	"github.com/AnyUserName/pngpix/internal/negotiate"
	"github.com/AnyUserName/pngpix/internal/profile"
)

// Config holds all parameters for a build pipeline run.
type Config struct {
	InputDir     string
	OutputDir    string
	Profile      profile.Profile
	Workers      int
	Capabilities negotiate.Capability
	Logger       *slog.Logger
}

// Pipeline converts every image under a directory to PNG.
type Pipeline struct {
	cfg Config
	log *slog.Logger
}

// New creates a configured pipeline. A nil logger discards output.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{cfg: cfg, log: log}
}

// Run executes the full build pipeline and returns the manifest.
func (p *Pipeline) Run() (*manifest.Manifest, error) {
	p.log.Debug("starting", "profile", p.cfg.Profile.Name, "target", p.cfg.Profile.Target,
		"workers", p.cfg.Workers, "capabilities", p.cfg.Capabilities)

	// Step 1: Scan for images.
	sources, err := ScanImages(p.cfg.InputDir, p.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", p.cfg.InputDir)
	}
	p.log.Debug("scanned", "images", len(sources))

	// Step 2: Convert images in parallel.
	results := make([]processResult, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			logger := p.log.With("file", s.RelPath)
			logger.Debug("processing")
			results[idx] = processImage(s, p.cfg, logger)
			if r := results[idx]; r.err == nil {
				logger.Debug("done", "format", r.asset.Output.Format, "plan", r.asset.Plan)
			}
		}(i, src)
	}
	wg.Wait()

	// Step 3: Collect results into manifest.
	m := manifest.New(p.cfg.Profile.Name)

	var failed int
	for _, r := range results {
		if r.err != nil {
			p.log.Error("conversion failed", "key", r.key, "error", r.err)
			failed++
			continue
		}
		m.Assets[r.key] = r.asset
	}

	// Partial failures are reported, not fatal.
	if failed == len(sources) {
		return nil, fmt.Errorf("all %d images failed to convert", failed)
	}
	if failed > 0 {
		p.log.Warn("some images had errors", "failed", failed, "total", len(sources))
	}

	m.BuildInfo = &manifest.BuildInfo{
		Workers:      p.cfg.Workers,
		Capabilities: p.cfg.Capabilities.String(),
	}
	m.Stats.Failed = failed
	m.ComputeStats()
	return m, nil
}
