// Package engine ties the table pieces together for a host: it owns the
// current sort order, the selection, and the viewport, schedules the fetches
// that keep the render window resolved, and keeps the selection pointing at
// the same underlying rows when the sort order changes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/grid/ranks"
	"github.com/rowpane/rowpane/internal/grid/selection"
	"github.com/rowpane/rowpane/internal/grid/sortview"
	"github.com/rowpane/rowpane/internal/grid/window"
	"github.com/rowpane/rowpane/internal/pubsub"
)

const (
	defaultOverscan = 20
	defaultPadding  = 30
)

// ErrRowOutOfRange is returned by selection gestures aimed past the table.
var ErrRowOutOfRange = errors.New("row out of range")

// Engine drives one table view over a [grid.Sorter].
//
// All mutating calls are safe for concurrent use. Fetching happens on
// background goroutines: every viewport change supersedes the previous
// fetch, cancelling it and discarding its outcome, so only the newest
// request ever reports completion or failure.
type Engine struct {
	ctx      context.Context
	cancel   context.CancelFunc
	sorter   grid.Sorter
	overscan int
	padding  int

	mu          sync.Mutex
	order       grid.OrderBy
	sel         selection.Selection
	geo         window.Geometry
	ranges      window.Ranges
	cols        []string
	hasViewport bool
	cancelFetch context.CancelFunc
	lastErr     error

	reqID  atomic.Uint64
	selGen atomic.Uint64 // bumped by every selection change; stales conversions
	busy   atomic.Int64
}

// Option configures an [Engine].
type Option func(*Engine)

// WithOverscan sets how many extra rows the visible range keeps on each
// side.
func WithOverscan(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.overscan = n
		}
	}
}

// WithPadding sets how many rows beyond the visible range get fetched
// ahead.
func WithPadding(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.padding = n
		}
	}
}

// New creates an engine over sorter. The context bounds every background
// fetch; cancel it or call Close to stop the engine.
func New(ctx context.Context, sorter grid.Sorter, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(ctx)
	e := &Engine{
		ctx:      ctx,
		cancel:   cancel,
		sorter:   sorter,
		overscan: defaultOverscan,
		padding:  defaultPadding,
	}
	for _, opt := range opts {
		opt(e)
	}
	go e.watch(ctx)
	return e
}

// ForSource creates an engine over any source, wrapping it in a sorting
// adapter unless it sorts natively.
func ForSource(ctx context.Context, src grid.Source, opts ...Option) *Engine {
	if sorter, ok := src.(grid.Sorter); ok {
		return New(ctx, sorter, opts...)
	}
	return New(ctx, sortview.New(src), opts...)
}

// Close stops background work and closes the underlying source if it holds
// external handles.
func (e *Engine) Close() error {
	e.cancel()
	if c, ok := e.sorter.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Events returns the change broker hosts should subscribe to for repaints.
func (e *Engine) Events() *pubsub.Broker[grid.Event] {
	return e.sorter.Events()
}

// NumRows returns the current row count.
func (e *Engine) NumRows() int { return e.sorter.NumRows() }

// Columns returns the source's columns.
func (e *Engine) Columns() []string { return e.sorter.Columns() }

// Order returns the current sort order.
func (e *Engine) Order() grid.OrderBy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.order)
}

// Selection returns the current selection in view space.
func (e *Engine) Selection() selection.Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel
}

// Ranges returns the visible and render ranges of the last viewport.
func (e *Engine) Ranges() window.Ranges {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ranges
}

// Busy reports whether any fetch or conversion is still in flight.
func (e *Engine) Busy() bool { return e.busy.Load() > 0 }

// Err returns the most recent background failure, if any. Cancelled work
// never surfaces here.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// SetColumns restricts which columns fetches resolve; nil means all.
func (e *Engine) SetColumns(cols []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cols = slices.Clone(cols)
}

// SetViewport adopts a new scroll position and schedules the fetch that
// fills its render range. Geometry errors are hard errors; nothing is
// fetched for a malformed viewport.
func (e *Engine) SetViewport(scrollTop, viewportSize, canvasSize float64) (window.Ranges, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	geo := window.Geometry{
		ScrollTop:    scrollTop,
		ViewportSize: viewportSize,
		CanvasSize:   canvasSize,
		NumRows:      e.sorter.NumRows(),
		Overscan:     e.overscan,
		Padding:      e.padding,
	}
	rs, err := window.Compute(geo)
	if err != nil {
		return window.Ranges{}, err
	}
	e.geo = geo
	e.ranges = rs
	e.hasViewport = true
	e.scheduleFetchLocked()
	return rs, nil
}

// Rows snapshots the cells of view rows r under the current order, one
// slice per row covering the engine's column set.
func (e *Engine) Rows(r grid.Range) [][]grid.Cell {
	e.mu.Lock()
	order := e.order
	cols := e.cols
	e.mu.Unlock()
	if cols == nil {
		cols = e.sorter.Columns()
	}

	r = r.Clamp(e.sorter.NumRows())
	out := make([][]grid.Cell, r.Len())
	for i := range out {
		row := make([]grid.Cell, len(cols))
		for j, col := range cols {
			row[j] = e.sorter.SortedCell(r.Start+i, col, order)
		}
		out[i] = row
	}
	return out
}

// SetOrderBy swaps the sort order and re-maps the selection so it keeps
// covering the same underlying rows. The re-mapping computes both
// permutations, which may block on data loads; a newer SetOrderBy, any
// selection gesture issued meanwhile, or an identity change supersedes the
// conversion silently.
func (e *Engine) SetOrderBy(ctx context.Context, order grid.OrderBy) error {
	e.mu.Lock()
	oldOrder := e.order
	e.order = slices.Clone(order)
	sel := e.sel
	gen := e.selGen.Add(1)
	sourceID := e.sorter.ID()
	e.scheduleFetchLocked()
	e.mu.Unlock()

	if sel.IsEmpty() {
		if _, hasAnchor := sel.Anchor(); !hasAnchor {
			return nil
		}
	}

	e.busy.Add(1)
	defer e.busy.Add(-1)

	mapping, err := e.conversionMapping(ctx, oldOrder, order)
	if err != nil {
		if grid.IsAborted(err) {
			return err
		}
		return fmt.Errorf("failed to convert selection: %w", err)
	}

	converted, err := trimTo(sel, len(mapping)).Convert(mapping)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selGen.Load() != gen || e.sorter.ID() != sourceID {
		return nil // superseded, the newer gesture owns the selection
	}
	e.sel = converted
	return nil
}

// conversionMapping builds the view-to-view row mapping from oldOrder space
// to newOrder space: old view row -> source row -> new view row.
func (e *Engine) conversionMapping(ctx context.Context, oldOrder, newOrder grid.OrderBy) ([]int, error) {
	permOld, err := e.sorter.Permutation(ctx, oldOrder)
	if err != nil {
		return nil, err
	}
	permNew, err := e.sorter.Permutation(ctx, newOrder)
	if err != nil {
		return nil, err
	}

	n := e.sorter.NumRows()
	if permOld != nil {
		n = min(n, len(permOld))
	}
	if permNew != nil {
		n = min(n, len(permNew))
	}

	var invNew []int
	if permNew != nil {
		if invNew, err = ranks.Invert(permNew); err != nil {
			return nil, err
		}
	}

	mapping := make([]int, n)
	for i := range mapping {
		src := i
		if permOld != nil {
			src = permOld[i]
		}
		if invNew == nil {
			mapping[i] = src
		} else {
			mapping[i] = invNew[src]
		}
	}
	return mapping, nil
}

// trimTo drops selected rows at or past n, so a selection can convert
// through a mapping that predates appended rows.
func trimTo(sel selection.Selection, n int) selection.Selection {
	rs := sel.Ranges()
	if len(rs) == 0 || rs[len(rs)-1].End <= n {
		return sel
	}
	trimmed, err := sel.UnselectRange(grid.Range{Start: n, End: rs[len(rs)-1].End})
	if err != nil {
		return sel
	}
	return trimmed
}

// ToggleRow flips the selected state of view row i.
func (e *Engine) ToggleRow(i int) error {
	return e.mutateSelection(i, func(s selection.Selection) (selection.Selection, error) {
		return s.ToggleIndex(i)
	})
}

// ExtendTo extends the selection from its anchor to view row i.
func (e *Engine) ExtendTo(i int) error {
	return e.mutateSelection(i, func(s selection.Selection) (selection.Selection, error) {
		return s.ExtendTo(i)
	})
}

// SelectRows selects every row of r.
func (e *Engine) SelectRows(r grid.Range) error {
	return e.mutateSelection(r.End-1, func(s selection.Selection) (selection.Selection, error) {
		return s.SelectRange(r)
	})
}

// ToggleAll selects all rows, or clears the selection when everything is
// already selected.
func (e *Engine) ToggleAll() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := e.sel.ToggleAll(e.sorter.NumRows())
	if err != nil {
		return err
	}
	e.sel = next
	e.selGen.Add(1)
	return nil
}

// ClearSelection empties the selection and drops the anchor.
func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = selection.Selection{}
	e.selGen.Add(1)
}

func (e *Engine) mutateSelection(maxRow int, fn func(selection.Selection) (selection.Selection, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if maxRow >= e.sorter.NumRows() {
		return ErrRowOutOfRange
	}
	next, err := fn(e.sel)
	if err != nil {
		return err
	}
	e.sel = next
	e.selGen.Add(1)
	return nil
}

// scheduleFetchLocked starts the background fetch for the current render
// range, cancelling whatever fetch was running before. Callers hold e.mu.
func (e *Engine) scheduleFetchLocked() {
	if !e.hasViewport {
		return
	}
	id := e.reqID.Add(1)
	if e.cancelFetch != nil {
		e.cancelFetch()
	}
	ctx, cancel := context.WithCancel(e.ctx)
	e.cancelFetch = cancel

	render := e.ranges.Render
	order := e.order
	cols := e.cols

	e.busy.Add(1)
	go func() {
		defer e.busy.Add(-1)
		defer cancel()
		err := e.sorter.SortedFetch(ctx, render, cols, order)
		if e.reqID.Load() != id {
			return // superseded: a newer viewport owns the outcome
		}
		switch {
		case err == nil:
			e.setErr(nil)
		case grid.IsAborted(err):
			// Cancelled fetches are an outcome, not a failure.
		default:
			e.setErr(err)
			slog.Error("fetch failed", "rows", render, "order", order.Key(), "error", err)
		}
	}()
}

func (e *Engine) setErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = err
}

// watch reacts to source-side changes: appended rows re-trigger the current
// window's fetch, and an identity change resets selection and order, since
// neither survives a dataset swap.
func (e *Engine) watch(ctx context.Context) {
	for ev := range e.sorter.Events().Subscribe(ctx) {
		switch ev.Type {
		case pubsub.CreatedEvent:
			e.mu.Lock()
			if e.hasViewport {
				e.geo.NumRows = e.sorter.NumRows()
				if rs, err := window.Compute(e.geo); err == nil {
					e.ranges = rs
				}
				e.scheduleFetchLocked()
			}
			e.mu.Unlock()
		case pubsub.DeletedEvent:
			e.mu.Lock()
			e.sel = selection.Selection{}
			e.order = nil
			e.selGen.Add(1)
			if e.hasViewport {
				e.geo.NumRows = e.sorter.NumRows()
				if rs, err := window.Compute(e.geo); err == nil {
					e.ranges = rs
				}
				e.scheduleFetchLocked()
			}
			e.mu.Unlock()
		}
	}
}
