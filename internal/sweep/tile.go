package sweep

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tilesweep/internal/classify"
	"github.com/sells-group/tilesweep/internal/progress"
	"github.com/sells-group/tilesweep/internal/resilience"
	"github.com/sells-group/tilesweep/internal/tiles"
	"github.com/sells-group/tilesweep/pkg/staticmaps"
)

type tileStatus int

const (
	statusNoImagery tileStatus = iota
	statusFetchFailed
	statusNegative
	statusClassifyFailed
	statusSaved
	statusAlreadySaved
	statusPersistFailed
)

// tileOutcome is the result of one tile. Aborted tiles are not applied to
// the record; a halt stops the sweep.
type tileOutcome struct {
	tile    tiles.TileCenter
	status  tileStatus
	label   classify.Label
	local   bool
	failure *progress.Failure
	aborted bool
	halt    error
}

func (o tileOutcome) positive() bool {
	switch o.status {
	case statusSaved, statusAlreadySaved, statusPersistFailed:
		return true
	}
	return false
}

func (o tileOutcome) withImagery() bool {
	return o.status != statusNoImagery && o.status != statusFetchFailed
}

func (r *Runner) request(plan *Plan, tc tiles.TileCenter) staticmaps.Request {
	return staticmaps.Request{
		Center:    tc.Point,
		Zoom:      plan.Zoom,
		SizePx:    r.cfg.SizePx,
		Scale:     r.cfg.Scale,
		MapType:   r.cfg.MapType,
		Timestamp: plan.Timestamp,
	}
}

// processTile obtains, classifies and, on a positive label, persists one
// tile. It never returns an error: every problem is folded into the outcome.
func (r *Runner) processTile(ctx context.Context, plan *Plan, tc tiles.TileCenter) tileOutcome {
	out := tileOutcome{tile: tc, label: classify.No}
	req := r.request(plan, tc)
	path := filepath.Join(plan.OutputDir, tiles.ArtifactName(r.cfg.NamePrefix, tc.Point, r.cfg.TileKm))

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		out.local = true
	case errors.Is(err, os.ErrNotExist):
		data, err = r.maps.Fetch(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				out.aborted = true
				return out
			}
			if errors.Is(err, staticmaps.ErrNoImagery) {
				out.status = statusNoImagery
				return out
			}
			out.status = statusFetchFailed
			out.failure = r.failure(tc, progress.StageFetch, resilience.Kind(err), err)
			return out
		}
	default:
		out.status = statusFetchFailed
		out.failure = r.failure(tc, progress.StageFetch, resilience.KindPermanent, eris.Wrap(err, "sweep: read existing artifact"))
		return out
	}

	label, err := r.classifier.Classify(ctx, classify.ImageRef{
		URL:  r.maps.URL(req),
		Data: data,
	})
	if err != nil {
		if ctx.Err() != nil {
			out.aborted = true
			return out
		}
		if r.cfg.HaltOnOutage && errors.Is(err, resilience.ErrCircuitOpen) {
			out.aborted = true
			out.halt = err
			return out
		}
		out.status = statusClassifyFailed
		out.failure = r.failure(tc, progress.StageClassify, classify.FailureKind(err), err)
		return out
	}
	out.label = label

	if label != r.cfg.TargetLabel {
		out.status = statusNegative
		return out
	}
	if out.local {
		out.status = statusAlreadySaved
		return out
	}
	if err := r.writeFile(path, data, 0o644); err != nil {
		out.status = statusPersistFailed
		out.failure = r.failure(tc, progress.StagePersist, resilience.KindPermanent, err)
		return out
	}
	out.status = statusSaved
	zap.L().Debug("sweep: artifact saved", zap.String("path", path))
	return out
}

func (r *Runner) failure(tc tiles.TileCenter, stage, kind string, err error) *progress.Failure {
	return &progress.Failure{
		Index:    tc.Index,
		Lat:      tc.Point.Lat,
		Lon:      tc.Point.Lon,
		Stage:    stage,
		Kind:     kind,
		Error:    err.Error(),
		FailedAt: r.now(),
	}
}
