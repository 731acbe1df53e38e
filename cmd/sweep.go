package main

import (
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tilesweep/internal/classify"
	"github.com/sells-group/tilesweep/internal/config"
	"github.com/sells-group/tilesweep/internal/cost"
	"github.com/sells-group/tilesweep/internal/geodesy"
	"github.com/sells-group/tilesweep/internal/sweep"
	"github.com/sells-group/tilesweep/pkg/staticmaps"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep a circle of tiles and save the ones that show the target",
	Long: "Enumerates tile centers inside --radius-km of --lat/--lon, fetches each tile from the " +
		"static maps provider, classifies it and saves positives to the sweep output folder. " +
		"Progress is persisted after every tile, so an interrupted sweep resumes where it stopped.",
	RunE: runSweep,
}

func init() {
	f := sweepCmd.Flags()
	f.Float64("lat", 0, "center latitude in degrees")
	f.Float64("lon", 0, "center longitude in degrees")
	f.Float64("radius-km", 0, "sweep radius in km")
	f.Float64("tile-km", 2.0, "ground size of one tile in km")
	f.Int("size", 1024, "image size in pixels")
	f.Int("scale", 2, "provider scale factor (1 or 2)")
	f.String("maptype", "satellite", "map type (roadmap, satellite, terrain, hybrid)")
	f.String("date", "", "historical imagery date (YYYY-MM-DD, YYYY-MM or unix seconds)")
	f.String("output", "output", "base output directory")
	f.String("name-prefix", "AAA", "prefix for saved tile names")
	f.String("model", "", "Anthropic model (default from anthropic.model)")
	f.String("target", "aaa", "classification target preset ("+strings.Join(classify.PresetNames(), ", ")+")")
	f.String("target-prompt", "", "custom question that overrides the target preset")
	f.String("target-label", "yes", "label that marks a tile for saving (yes or no)")
	f.String("image-mode", "inline", "how images reach the model (inline or url)")
	f.Duration("delay", 200*time.Millisecond, "politeness delay between tiles")
	f.Int("workers", 1, "tiles processed concurrently")
	f.Bool("retry-failed", false, "only revisit tiles recorded as failed")
	f.Bool("halt-on-outage", false, "stop the sweep when the classifier is unavailable")
	f.Bool("dry-run", false, "print the grid and sweep id without any network I/O")

	_ = sweepCmd.MarkFlagRequired("lat")
	_ = sweepCmd.MarkFlagRequired("lon")
	_ = sweepCmd.MarkFlagRequired("radius-km")

	rootCmd.AddCommand(sweepCmd)
}

// applySweepFlags copies explicitly set flags over the loaded config.
func applySweepFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("tile-km") {
		c.Sweep.TileKm, _ = f.GetFloat64("tile-km")
	}
	if f.Changed("size") {
		c.Sweep.Size, _ = f.GetInt("size")
	}
	if f.Changed("scale") {
		c.Maps.Scale, _ = f.GetInt("scale")
	}
	if f.Changed("maptype") {
		c.Sweep.MapType, _ = f.GetString("maptype")
	}
	if f.Changed("output") {
		c.Sweep.OutputDir, _ = f.GetString("output")
	}
	if f.Changed("name-prefix") {
		c.Sweep.NamePrefix, _ = f.GetString("name-prefix")
	}
	if f.Changed("model") {
		c.Anthropic.Model, _ = f.GetString("model")
	}
	if f.Changed("target") {
		c.Classifier.Target, _ = f.GetString("target")
	}
	if f.Changed("target-prompt") {
		c.Classifier.TargetPrompt, _ = f.GetString("target-prompt")
	}
	if f.Changed("target-label") {
		c.Classifier.TargetLabel, _ = f.GetString("target-label")
	}
	if f.Changed("image-mode") {
		c.Classifier.ImageMode, _ = f.GetString("image-mode")
	}
	if f.Changed("delay") {
		d, _ := f.GetDuration("delay")
		c.Sweep.DelayMs = int(d.Milliseconds())
	}
	if f.Changed("workers") {
		c.Sweep.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("halt-on-outage") {
		c.Sweep.HaltOnOutage, _ = f.GetBool("halt-on-outage")
	}
}

// buildSweepConfig turns config plus the per-invocation center, radius and
// date into a sweep.Config.
func buildSweepConfig(c *config.Config, center geodesy.GeoPoint, radiusKm float64, date string, retryFailed bool) (sweep.Config, error) {
	mt, err := staticmaps.ParseMapType(c.Sweep.MapType)
	if err != nil {
		return sweep.Config{}, eris.Wrap(config.ErrConfig, err.Error())
	}
	label, err := classify.ParseLabel(c.Classifier.TargetLabel)
	if err != nil {
		return sweep.Config{}, eris.Wrap(config.ErrConfig, err.Error())
	}
	return sweep.Config{
		Center:       center,
		RadiusKm:     radiusKm,
		TileKm:       c.Sweep.TileKm,
		SizePx:       c.Sweep.Size,
		Scale:        c.Maps.Scale,
		MapType:      mt,
		Date:         date,
		OutputDir:    c.Sweep.OutputDir,
		NamePrefix:   c.Sweep.NamePrefix,
		TargetLabel:  label,
		Delay:        time.Duration(c.Sweep.DelayMs) * time.Millisecond,
		Workers:      c.Sweep.Workers,
		RetryFailed:  retryFailed,
		HaltOnOutage: c.Sweep.HaltOnOutage,
	}, nil
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	applySweepFlags(cmd, cfg)
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	radius, _ := cmd.Flags().GetFloat64("radius-km")
	date, _ := cmd.Flags().GetString("date")
	retryFailed, _ := cmd.Flags().GetBool("retry-failed")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	mode := config.ModeSweep
	if dryRun {
		mode = config.ModeDryRun
	}
	if err := cfg.Validate(mode); err != nil {
		return err
	}

	sc, err := buildSweepConfig(cfg, geodesy.Point(lat, lon), radius, date, retryFailed)
	if err != nil {
		return err
	}

	if dryRun {
		classifier, err := newClassifier(cfg, nil)
		if err != nil {
			return err
		}
		plan, err := sweep.BuildPlan(sc, classifier.ID())
		if err != nil {
			return err
		}
		formatPlan(cmd.OutOrStdout(), plan, estimateSweep(cfg, plan, sc))
		return nil
	}

	classifier, err := newClassifier(cfg, newAnthropicClient(cfg))
	if err != nil {
		return err
	}
	st, err := openProgress(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	runner, err := sweep.New(sc, newMapsClient(cfg), classifier, st)
	if err != nil {
		return err
	}
	if plan, err := runner.Plan(); err == nil {
		est := estimateSweep(cfg, plan, sc)
		zap.L().Info("sweep cost estimate",
			zap.Int("tiles", est.Tiles),
			zap.Int64("input_tokens", est.InputTokens),
			zap.Float64("max_cost_usd", est.CostUSD),
			zap.Bool("known_model", est.KnownModel),
		)
	}

	sum, err := runner.Run(ctx)
	if sum != nil {
		formatSummary(cmd.OutOrStdout(), sum)
	}
	return err
}

func estimateSweep(c *config.Config, plan *sweep.Plan, sc sweep.Config) cost.SweepEstimate {
	return cost.NewCalculator(cost.DefaultRates()).EstimateSweep(c.Anthropic.Model, len(plan.Tiles), sc.SizePx, sc.Scale)
}
