// Package sweep runs the fetch, classify and persist loop over a circular
// tile grid, resuming from the progress store.
package sweep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/tilesweep/internal/classify"
	"github.com/sells-group/tilesweep/internal/config"
	"github.com/sells-group/tilesweep/internal/geodesy"
	"github.com/sells-group/tilesweep/internal/progress"
	"github.com/sells-group/tilesweep/internal/resilience"
	"github.com/sells-group/tilesweep/internal/tiles"
	"github.com/sells-group/tilesweep/pkg/staticmaps"
)

// Config is everything a sweep needs besides its collaborators.
type Config struct {
	Center   geodesy.GeoPoint
	RadiusKm float64
	TileKm   float64
	SizePx   int
	Scale    int
	MapType  staticmaps.MapType
	// Date selects historical imagery (YYYY-MM-DD, YYYY-MM or unix
	// seconds). Empty means latest.
	Date string

	OutputDir   string
	NamePrefix  string
	TargetLabel classify.Label

	Delay        time.Duration
	Workers      int
	RetryFailed  bool
	HaltOnOutage bool
}

// Plan is the resolved, side-effect-free description of a sweep.
type Plan struct {
	Tiles     []tiles.TileCenter
	Zoom      int
	Timestamp int64
	Spec      progress.Spec
	SweepID   string
	OutputDir string
}

// Runner owns one sweep.
type Runner struct {
	cfg        Config
	maps       staticmaps.Client
	classifier classify.Classifier
	store      progress.Store

	now       func() time.Time
	newRunID  func() string
	writeFile func(path string, data []byte, perm os.FileMode) error
}

// New validates cfg and builds a Runner. Configuration problems wrap
// config.ErrConfig.
func New(cfg Config, maps staticmaps.Client, classifier classify.Classifier, store progress.Store) (*Runner, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MapType == "" {
		cfg.MapType = staticmaps.MapTypeSatellite
	}
	if cfg.TargetLabel == "" {
		cfg.TargetLabel = classify.Yes
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = "tile"
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if cfg.SizePx <= 0 {
		return nil, eris.Wrapf(config.ErrConfig, "sweep: image size must be positive, got %d", cfg.SizePx)
	}
	if cfg.OutputDir == "" {
		return nil, eris.Wrap(config.ErrConfig, "sweep: output directory is required")
	}
	if _, err := staticmaps.ParseDate(cfg.Date); err != nil {
		return nil, eris.Wrap(config.ErrConfig, err.Error())
	}
	if maps == nil || classifier == nil || store == nil {
		return nil, eris.New("sweep: maps client, classifier and store are required")
	}
	return &Runner{
		cfg:        cfg,
		maps:       maps,
		classifier: classifier,
		store:      store,
		now:        func() time.Time { return time.Now().UTC() },
		newRunID:   uuid.NewString,
		writeFile:  progress.WriteFileAtomic,
	}, nil
}

// Plan enumerates the grid and derives the sweep identity and output folder.
// It performs no I/O.
func (r *Runner) Plan() (*Plan, error) {
	return BuildPlan(r.cfg, r.classifier.ID())
}

// BuildPlan is Plan without a Runner, for dry runs that have no clients.
func BuildPlan(cfg Config, classifierID string) (*Plan, error) {
	grid, err := tiles.NewGrid(cfg.Center, cfg.RadiusKm, cfg.TileKm)
	if err != nil {
		return nil, eris.Wrap(config.ErrConfig, err.Error())
	}
	ts, err := staticmaps.ParseDate(cfg.Date)
	if err != nil {
		return nil, eris.Wrap(config.ErrConfig, err.Error())
	}
	label := cfg.TargetLabel
	if label == "" {
		label = classify.Yes
	}

	spec := progress.Spec{
		Center:      cfg.Center,
		RadiusKm:    cfg.RadiusKm,
		TileKm:      cfg.TileKm,
		SizePx:      cfg.SizePx,
		Scale:       cfg.Scale,
		MapType:     string(cfg.MapType),
		Date:        strings.TrimSpace(cfg.Date),
		Classifier:  classifierID,
		TargetLabel: string(label),
	}
	return &Plan{
		Tiles:     grid.Collect(),
		Zoom:      tiles.ResolveZoom(cfg.TileKm, cfg.SizePx),
		Timestamp: ts,
		Spec:      spec,
		SweepID:   progress.SweepID(spec),
		OutputDir: filepath.Join(cfg.OutputDir, tiles.SweepDirName(cfg.Center, cfg.RadiusKm, cfg.TileKm, classifierID)),
	}, nil
}

// Run executes the sweep. It always returns a summary once the sweep has
// been initialized, even when it stops early on cancellation or an outage.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := r.now()

	plan, err := r.Plan()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(plan.OutputDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "sweep: create output dir %s", plan.OutputDir)
	}

	runID := r.newRunID()
	log := zap.L().With(zap.String("sweep_id", plan.SweepID), zap.String("run_id", runID))
	log.Info("sweep initialized",
		zap.String("state", string(StateInitializing)),
		zap.Int("total_tiles", len(plan.Tiles)),
		zap.Int("zoom", plan.Zoom),
		zap.String("output_dir", plan.OutputDir),
	)

	rec, startIndex, complete, err := r.resume(ctx, plan, log)
	if err != nil {
		return nil, err
	}
	rec.RunID = runID
	rec.SavedCountThisRun = 0

	sum := &Summary{
		SweepID:    plan.SweepID,
		RunID:      runID,
		TotalTiles: len(plan.Tiles),
		StartIndex: startIndex,
		OutputDir:  plan.OutputDir,
	}
	costBefore := r.costUSD()

	work := r.selectWork(plan, rec, startIndex, complete, sum)
	log.Info("sweep processing",
		zap.String("state", string(StateProcessing)),
		zap.Int("start_index", startIndex),
		zap.Int("pending", len(work)),
		zap.Int("resumed_skips", sum.Resumed),
		zap.Bool("retry_failed", r.cfg.RetryFailed),
	)

	t := &tracker{store: r.store, rec: rec, sum: sum, now: r.now, log: log}

	var limiter *rate.Limiter
	if r.cfg.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(r.cfg.Delay), 1)
	}

	if r.cfg.Workers > 1 {
		err = r.runParallel(ctx, plan, work, limiter, t)
	} else {
		err = r.runSequential(ctx, plan, work, limiter, t)
	}

	sum.CostUSD = r.costUSD() - costBefore
	sum.Duration = r.now().Sub(start)
	sum.LastProcessedIndex = rec.LastProcessedIndex
	sum.PendingFailures = len(rec.Failures)
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		sum.Halted = true
	case ctx.Err() != nil:
		sum.Canceled = true
	}
	if err == nil && rec.Complete() {
		log.Info("sweep completed", zap.String("state", string(StateCompleted)))
	}
	sum.Log(log)

	if err != nil {
		return sum, err
	}
	return sum, nil
}

// resume loads the record for the sweep and computes where to start.
func (r *Runner) resume(ctx context.Context, plan *Plan, log *zap.Logger) (*progress.Record, int, bool, error) {
	total := len(plan.Tiles)

	rec, err := r.store.Load(ctx, plan.SweepID)
	if err != nil {
		return nil, 0, false, eris.Wrap(err, "sweep: load progress")
	}
	if rec == nil {
		log.Info("no previous progress", zap.String("state", string(StateResuming)))
		return progress.NewRecord(plan.Spec, total, r.now()), 1, false, nil
	}

	if rec.TotalTiles != total {
		log.Warn("progress tile count differs from grid; using grid count",
			zap.Int("recorded_total", rec.TotalTiles),
			zap.Int("grid_total", total),
		)
		rec.TotalTiles = total
	}

	start, complete := rec.StartIndex()
	if start == 1 && rec.LastProcessedIndex != 0 {
		log.Warn("inconsistent progress watermark; restarting from the first tile",
			zap.Int("last_processed_index", rec.LastProcessedIndex),
			zap.Int("total_tiles", total),
		)
		rec.LastProcessedIndex = 0
		rec.Completed = nil
	}

	log.Info("resuming sweep",
		zap.String("state", string(StateResuming)),
		zap.Int("last_processed_index", rec.LastProcessedIndex),
		zap.Int("start_index", start),
		zap.Bool("already_complete", complete),
		zap.Int("recorded_failures", len(rec.Failures)),
	)
	return rec, start, complete, nil
}

// selectWork lists the tiles to visit in order.
func (r *Runner) selectWork(plan *Plan, rec *progress.Record, start int, complete bool, sum *Summary) []tiles.TileCenter {
	if r.cfg.RetryFailed {
		var work []tiles.TileCenter
		for _, idx := range rec.FailedIndices() {
			if idx >= 1 && idx <= len(plan.Tiles) {
				work = append(work, plan.Tiles[idx-1])
			}
		}
		return work
	}

	if complete {
		sum.Resumed = len(plan.Tiles)
		return nil
	}
	var work []tiles.TileCenter
	for _, tc := range plan.Tiles {
		if tc.Index < start || rec.Done(tc.Index) {
			sum.Resumed++
			continue
		}
		work = append(work, tc)
	}
	return work
}

func (r *Runner) costUSD() float64 {
	if cr, ok := r.classifier.(classify.CostReporter); ok {
		return cr.CostUSD()
	}
	return 0
}
