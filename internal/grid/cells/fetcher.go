package cells

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rowpane/rowpane/internal/grid"
)

// Loader loads whole rows for one run: the result must hold exactly
// rows.Len() rows, each with one value per requested column.
type Loader func(ctx context.Context, rows grid.Range, cols []string) ([][]grid.Value, error)

const defaultParallelism = 4

// Fetcher fills a store through a [Loader]. It plans one load per pending
// run, skips anything already resolved, and runs the loads concurrently
// with bounded parallelism.
//
// Cancellation is an outcome, not a failure: a cancelled fetch returns the
// context's error (see [grid.IsAborted]) and leaves every already-delivered
// value in place.
type Fetcher struct {
	store    *Store
	load     Loader
	parallel int
}

// NewFetcher creates a fetcher writing through store.
func NewFetcher(store *Store, load Loader) *Fetcher {
	return &Fetcher{store: store, load: load, parallel: defaultParallelism}
}

// SetParallelism bounds the number of concurrent run loads.
func (f *Fetcher) SetParallelism(n int) {
	if n > 0 {
		f.parallel = n
	}
}

// Fetch resolves every cell of rows×cols that is still pending. A fetch
// whose window is already fully resolved issues no loads at all.
func (f *Fetcher) Fetch(ctx context.Context, rows grid.Range, cols []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runs := f.store.PendingRuns(rows, cols)
	if len(runs) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.parallel)
	for _, run := range runs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := f.load(ctx, run, cols)
			if err != nil {
				return fmt.Errorf("failed to load rows %v: %w", run, err)
			}
			if len(result) != run.Len() {
				return fmt.Errorf("%w: got %d rows for %v", ErrShape, len(result), run)
			}
			return f.store.SetRows(run.Start, cols, result)
		})
	}
	return g.Wait()
}
