package sweep

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/tilesweep/internal/tiles"
)

func (r *Runner) runSequential(ctx context.Context, plan *Plan, work []tiles.TileCenter, limiter *rate.Limiter, t *tracker) error {
	for _, tc := range work {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "sweep: canceled")
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return eris.Wrap(err, "sweep: canceled")
			}
		}
		out := r.processTile(ctx, plan, tc)
		if err := t.apply(ctx, out); err != nil {
			return err
		}
		if out.aborted {
			return eris.Wrap(ctx.Err(), "sweep: canceled")
		}
	}
	return nil
}

// runParallel fans tiles out to a bounded pool of workers. Results flow
// back to this goroutine, which owns the tracker.
func (r *Runner) runParallel(ctx context.Context, plan *Plan, work []tiles.TileCenter, limiter *rate.Limiter, t *tracker) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(runCtx)
	jobs := make(chan tiles.TileCenter)
	results := make(chan tileOutcome)

	g.Go(func() error {
		defer close(jobs)
		for _, tc := range work {
			if limiter != nil {
				if err := limiter.Wait(gCtx); err != nil {
					return err
				}
			}
			select {
			case jobs <- tc:
			case <-gCtx.Done():
				return gCtx.Err()
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for range r.cfg.Workers {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for tc := range jobs {
				out := r.processTile(gCtx, plan, tc)
				select {
				case results <- out:
				case <-gCtx.Done():
					return gCtx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var applyErr error
	for out := range results {
		if applyErr != nil {
			continue
		}
		if err := t.apply(ctx, out); err != nil {
			applyErr = err
			cancel()
		}
	}

	gErr := g.Wait()
	if applyErr != nil {
		return applyErr
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "sweep: canceled")
	}
	if gErr != nil {
		return eris.Wrap(gErr, "sweep: workers")
	}
	return nil
}
