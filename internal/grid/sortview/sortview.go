// Package sortview adapts a plain [grid.Source] into a [grid.Sorter] by
// computing rank tables and permutations from the source's own values.
//
// Ordering state lives in a [ranks.Cache] private to the wrapped source
// identity: permutations are computed once per sort order, shared by every
// caller, and dropped only when the identity changes. Rows appended after a
// permutation was computed read as pending under that order until the next
// identity change; they are never silently tacked onto a stale order.
package sortview

import (
	"context"
	"fmt"
	"io"
	"slices"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/rowpane/rowpane/internal/csync"
	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/grid/ranks"
	"github.com/rowpane/rowpane/internal/pubsub"
)

// View wraps an unsorted source with sorting. It implements [grid.Sorter].
type View struct {
	src    grid.Source
	cache  *ranks.Cache
	lastID *csync.Value[string]
	group  singleflight.Group
}

var _ grid.Sorter = (*View)(nil)

// New wraps src.
func New(src grid.Source) *View {
	return &View{
		src:    src,
		cache:  ranks.NewCache(),
		lastID: csync.NewValue(src.ID()),
	}
}

// ID implements [grid.Source].
func (v *View) ID() string { return v.src.ID() }

// NumRows implements [grid.Source].
func (v *View) NumRows() int { return v.src.NumRows() }

// Columns implements [grid.Source].
func (v *View) Columns() []string { return v.src.Columns() }

// Cell implements [grid.Source].
func (v *View) Cell(row int, col string) grid.Cell {
	v.checkIdentity()
	return v.src.Cell(row, col)
}

// Fetch implements [grid.Source].
func (v *View) Fetch(ctx context.Context, rows grid.Range, cols []string) error {
	v.checkIdentity()
	return v.src.Fetch(ctx, rows, cols)
}

// Events implements [grid.Source]; the view shares the source's broker.
func (v *View) Events() *pubsub.Broker[grid.Event] { return v.src.Events() }

// Close closes the wrapped source when it holds external handles.
func (v *View) Close() error {
	if c, ok := v.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SortedCell implements [grid.Sorter]. Rows whose position under order is
// not computed yet, including rows appended after the permutation was
// built, read as pending.
func (v *View) SortedCell(row int, col string, order grid.OrderBy) grid.Cell {
	src, ok := v.UnsortedRow(row, order)
	if !ok {
		return grid.Cell{}
	}
	return v.Cell(src, col)
}

// UnsortedRow maps a view row under order back to its source row. It never
// blocks: ok is false while the permutation is missing or the row is beyond
// it.
func (v *View) UnsortedRow(row int, order grid.OrderBy) (int, bool) {
	v.checkIdentity()
	if row < 0 {
		return 0, false
	}
	if len(order) == 0 {
		if row >= v.src.NumRows() {
			return 0, false
		}
		return row, true
	}
	perm, ok := v.cache.Permutation(order.Key())
	if !ok || row >= len(perm) {
		return 0, false
	}
	return perm[row], true
}

// SortedFetch implements [grid.Sorter]: it ensures the permutation for
// order exists, translates the view rows to source rows and fetches those.
func (v *View) SortedFetch(ctx context.Context, rows grid.Range, cols []string, order grid.OrderBy) error {
	if len(order) == 0 {
		return v.Fetch(ctx, rows, cols)
	}
	perm, err := v.Permutation(ctx, order)
	if err != nil {
		return err
	}

	rows = rows.Clamp(len(perm))
	sourceRows := make([]int, 0, rows.Len())
	for i := rows.Start; i < rows.End; i++ {
		sourceRows = append(sourceRows, perm[i])
	}
	runs := groupRuns(sourceRows)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, run := range runs {
		g.Go(func() error {
			return v.src.Fetch(ctx, run, cols)
		})
	}
	return g.Wait()
}

// Permutation implements [grid.Sorter]. The first call for an order fetches
// whatever columns it still needs ranks for, computes them, and caches the
// resulting permutation; concurrent calls for the same order share one
// computation.
func (v *View) Permutation(ctx context.Context, order grid.OrderBy) ([]int, error) {
	v.checkIdentity()
	if len(order) == 0 {
		return nil, nil
	}
	key := order.Key()
	if perm, ok := v.cache.Permutation(key); ok {
		return perm, nil
	}
	if err := v.validateOrder(order); err != nil {
		return nil, err
	}

	result, err, _ := v.group.Do(key, func() (any, error) {
		if perm, ok := v.cache.Permutation(key); ok {
			return perm, nil
		}
		numRows := v.src.NumRows()
		cols := make([]ranks.Column, len(order))
		for i, k := range order {
			table, err := v.columnRanks(ctx, k.Column, numRows)
			if err != nil {
				return nil, err
			}
			cols[i] = ranks.Column{Name: k.Column, Direction: k.Direction, Ranks: table}
		}
		perm, err := ranks.Indexes(numRows, cols)
		if err != nil {
			return nil, err
		}
		v.cache.SetPermutation(key, perm)
		v.src.Events().Publish(pubsub.UpdatedEvent, grid.Event{
			Rows:    grid.Range{Start: 0, End: numRows},
			Columns: order.Columns(),
			NumRows: numRows,
		})
		return perm, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]int), nil
}

// columnRanks returns the rank table for col over numRows rows, fetching
// and computing it when missing.
func (v *View) columnRanks(ctx context.Context, col string, numRows int) ([]int, error) {
	if table, ok := v.cache.Ranks(col); ok && len(table) == numRows {
		return table, nil
	}
	if numRows > 0 {
		if err := v.src.Fetch(ctx, grid.Range{Start: 0, End: numRows}, []string{col}); err != nil {
			return nil, fmt.Errorf("failed to fetch column %q: %w", col, err)
		}
	}
	values := make([]grid.Value, numRows)
	for i := range numRows {
		c := v.src.Cell(i, col)
		val, ok := c.Value()
		if !ok {
			return nil, fmt.Errorf("column %q row %d still unresolved after fetch", col, i)
		}
		values[i] = val
	}
	table := ranks.Compute(values)
	v.cache.SetRanks(col, table)
	return table, nil
}

func (v *View) validateOrder(order grid.OrderBy) error {
	known := v.src.Columns()
	for _, k := range order {
		if !slices.Contains(known, k.Column) {
			return fmt.Errorf("%w: %q", ranks.ErrInvalidColumn, k.Column)
		}
	}
	return nil
}

// checkIdentity drops all ordering state when the wrapped source was
// replaced under us.
func (v *View) checkIdentity() {
	if id := v.src.ID(); id != v.lastID.Get() {
		v.lastID.Set(id)
		v.cache.Reset()
	}
}

// groupRuns turns an unordered set of row indexes into sorted maximal
// contiguous ranges.
func groupRuns(rows []int) []grid.Range {
	if len(rows) == 0 {
		return nil
	}
	sorted := slices.Clone(rows)
	slices.Sort(sorted)
	var runs []grid.Range
	run := grid.Range{Start: sorted[0], End: sorted[0] + 1}
	for _, r := range sorted[1:] {
		switch {
		case r < run.End:
			// duplicate
		case r == run.End:
			run.End++
		default:
			runs = append(runs, run)
			run = grid.Range{Start: r, End: r + 1}
		}
	}
	return append(runs, run)
}
