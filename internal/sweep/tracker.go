package sweep

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tilesweep/internal/progress"
)

// tracker is the single writer of the progress record. Outcomes may arrive
// out of order in parallel mode; MarkDone keeps the watermark contiguous.
type tracker struct {
	store progress.Store
	rec   *progress.Record
	sum   *Summary
	now   func() time.Time
	log   *zap.Logger
}

// apply counts an outcome and durably advances the record. A returned
// error stops the sweep.
func (t *tracker) apply(ctx context.Context, out tileOutcome) error {
	if out.halt != nil {
		t.log.Warn("classifier outage; halting sweep",
			zap.Int("index", out.tile.Index),
			zap.Error(out.halt),
		)
		return eris.Wrap(out.halt, "sweep: halted on classifier outage")
	}
	if out.aborted {
		return nil
	}

	t.count(out)

	idx := out.tile.Index
	t.rec.MarkDone(idx)
	if out.failure != nil {
		t.rec.AddFailure(*out.failure)
	} else {
		t.rec.ClearFailure(idx)
	}
	if out.status == statusSaved {
		t.rec.SavedCountThisRun++
	}
	t.rec.UpdatedAt = t.now()

	// The tile is done even if the caller is shutting down.
	if err := t.store.Save(context.WithoutCancel(ctx), t.rec); err != nil {
		return eris.Wrapf(err, "sweep: save progress after tile %d", idx)
	}

	fields := []zap.Field{
		zap.String("state", string(StateAdvancing)),
		zap.Int("index", idx),
		zap.Int("total", t.rec.TotalTiles),
		zap.Float64("lat", out.tile.Point.Lat),
		zap.Float64("lon", out.tile.Point.Lon),
		zap.String("outcome", out.status.String()),
		zap.Int("last_processed_index", t.rec.LastProcessedIndex),
	}
	if out.failure != nil {
		t.log.Warn("tile failed", append(fields,
			zap.String("stage", out.failure.Stage),
			zap.String("kind", out.failure.Kind),
			zap.String("error", out.failure.Error),
		)...)
		return nil
	}
	t.log.Info("tile processed", fields...)
	return nil
}

func (t *tracker) count(out tileOutcome) {
	s := t.sum
	s.Evaluated++
	if out.withImagery() {
		s.WithImagery++
	}
	if out.positive() {
		s.Positive++
	}
	switch out.status {
	case statusNoImagery:
		s.NoImagery++
	case statusFetchFailed:
		s.FetchFailed++
	case statusClassifyFailed:
		s.ClassifyFailed++
	case statusSaved:
		s.Saved++
	case statusAlreadySaved:
		s.AlreadySaved++
	case statusPersistFailed:
		s.PersistFailed++
	}
}

func (s tileStatus) String() string {
	switch s {
	case statusNoImagery:
		return "no_imagery"
	case statusFetchFailed:
		return "fetch_failed"
	case statusNegative:
		return "negative"
	case statusClassifyFailed:
		return "classify_failed"
	case statusSaved:
		return "saved"
	case statusAlreadySaved:
		return "already_saved"
	case statusPersistFailed:
		return "persist_failed"
	}
	return "unknown"
}
