package config

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// Validation modes, one per command family.
const (
	ModeSweep    = "sweep"
	ModeDryRun   = "dry-run"
	ModeProgress = "progress"
	ModeExport   = "export"
)

var (
	validImageModes = []string{"inline", "url"}
	validDrivers    = []string{"file", "sqlite", "postgres"}
	validLabels     = []string{"yes", "no"}
)

// Validate checks the settings a command needs. All problems are reported
// together, wrapped in ErrConfig.
func (c *Config) Validate(mode string) error {
	var problems []string
	add := func(msg string) { problems = append(problems, msg) }

	switch mode {
	case ModeSweep:
		if c.Maps.Key == "" {
			add("maps.key is required (set GOOGLE_MAPS_STATIC_API_KEY)")
		}
		if c.Anthropic.Key == "" {
			add("anthropic.key is required (set ANTHROPIC_API_KEY)")
		}
		if c.Anthropic.Model == "" {
			add("anthropic.model is required")
		}
		if !slices.Contains(validImageModes, strings.ToLower(c.Classifier.ImageMode)) {
			add("classifier.image_mode must be inline or url")
		}
		if !slices.Contains(validLabels, strings.ToLower(c.Classifier.TargetLabel)) {
			add("classifier.target_label must be yes or no")
		}
		if c.Classifier.Target == "" && strings.TrimSpace(c.Classifier.TargetPrompt) == "" {
			add("classifier.target or classifier.target_prompt is required")
		}
		if c.Maps.RateLimit < 0 {
			add("maps.rate_limit must be >= 0")
		}
		problems = append(problems, c.sweepProblems()...)
		problems = append(problems, c.progressProblems()...)
	case ModeDryRun:
		problems = append(problems, c.sweepProblems()...)
	case ModeProgress:
		problems = append(problems, c.progressProblems()...)
	case ModeExport:
	default:
		return eris.Wrapf(ErrConfig, "unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Wrap(ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) sweepProblems() []string {
	var out []string
	if c.Sweep.TileKm <= 0 {
		out = append(out, "sweep.tile_km must be > 0")
	}
	if c.Sweep.Size <= 0 || c.Sweep.Size > 2048 {
		out = append(out, "sweep.size must be between 1 and 2048")
	}
	if c.Maps.Scale != 1 && c.Maps.Scale != 2 {
		out = append(out, "maps.scale must be 1 or 2")
	}
	if c.Sweep.Workers < 1 || c.Sweep.Workers > 32 {
		out = append(out, "sweep.workers must be between 1 and 32")
	}
	if c.Sweep.DelayMs < 0 {
		out = append(out, "sweep.delay_ms must be >= 0")
	}
	if c.Sweep.OutputDir == "" {
		out = append(out, "sweep.output_dir is required")
	}
	return out
}

func (c *Config) progressProblems() []string {
	var out []string
	driver := strings.ToLower(c.Progress.Driver)
	if !slices.Contains(validDrivers, driver) {
		out = append(out, "progress.driver must be file, sqlite or postgres")
	}
	if (driver == "file" || driver == "sqlite") && c.Progress.Dir == "" {
		out = append(out, "progress.dir is required for the "+driver+" driver")
	}
	if driver == "postgres" && c.Progress.DatabaseURL == "" {
		out = append(out, "progress.database_url is required for the postgres driver")
	}
	return out
}
