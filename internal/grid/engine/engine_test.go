package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/pubsub"
	"github.com/rowpane/rowpane/internal/source/memory"
)

func newAges(t *testing.T, opts ...memory.Option) *memory.Source {
	t.Helper()
	src, err := memory.NewLazy([]string{"name", "age"}, [][]grid.Value{
		{"ada", int64(25)},
		{"grace", int64(30)},
		{"alan", int64(20)},
		{"linus", int64(20)},
	}, opts...)
	require.NoError(t, err)
	return src
}

func newEngine(t *testing.T, src grid.Source, opts ...Option) *Engine {
	t.Helper()
	e := ForSource(t.Context(), src, opts...)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// unit-row geometry: canvas equals the row count, scroll offsets in rows.
func view(t *testing.T, e *Engine, top, height float64) {
	t.Helper()
	_, err := e.SetViewport(top, height, float64(e.NumRows()))
	require.NoError(t, err)
}

func waitResolved(t *testing.T, e *Engine, r grid.Range) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, row := range e.Rows(r) {
			for _, c := range row {
				if !c.Resolved() {
					return false
				}
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
}

func TestViewportFetchResolvesRenderRange(t *testing.T) {
	t.Parallel()

	e := newEngine(t, newAges(t), WithOverscan(0), WithPadding(0))
	rs, err := e.SetViewport(0, 2, 4)
	require.NoError(t, err)
	require.Equal(t, grid.Range{Start: 0, End: 2}, rs.Visible)

	waitResolved(t, e, rs.Render)
	rows := e.Rows(rs.Render)
	v, _ := rows[0][0].Value()
	require.Equal(t, "ada", v)
	require.NoError(t, e.Err())
}

func TestViewportSupersession(t *testing.T) {
	t.Parallel()

	src := newAges(t, memory.WithDelay(30*time.Millisecond))
	e := newEngine(t, src, WithOverscan(0), WithPadding(0))

	// Two viewports in quick succession: the second supersedes the first.
	view(t, e, 0, 2)
	view(t, e, 2, 2)

	waitResolved(t, e, grid.Range{Start: 2, End: 4})
	require.Equal(t, grid.Range{Start: 2, End: 4}, e.Ranges().Visible)
	// A cancelled first fetch must not surface as an error.
	require.Eventually(t, func() bool { return !e.Busy() }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, e.Err())
}

func TestSelectionGestures(t *testing.T) {
	t.Parallel()

	e := newEngine(t, newAges(t))

	require.NoError(t, e.ToggleRow(2))
	require.NoError(t, e.ExtendTo(3))
	require.Equal(t, []grid.Range{{Start: 2, End: 4}}, e.Selection().Ranges())

	require.NoError(t, e.ToggleAll())
	require.Equal(t, []grid.Range{{Start: 0, End: 4}}, e.Selection().Ranges())
	require.NoError(t, e.ToggleAll())
	require.True(t, e.Selection().IsEmpty())

	require.ErrorIs(t, e.ToggleRow(4), ErrRowOutOfRange)
	require.ErrorIs(t, e.ExtendTo(99), ErrRowOutOfRange)

	require.NoError(t, e.SelectRows(grid.Range{Start: 0, End: 2}))
	require.Equal(t, 2, e.Selection().Count())
	e.ClearSelection()
	require.True(t, e.Selection().IsEmpty())
}

func TestSetOrderByConvertsSelection(t *testing.T) {
	t.Parallel()

	e := newEngine(t, newAges(t))
	view(t, e, 0, 4)

	// Select ada (row 0) and grace (row 1) in natural order.
	require.NoError(t, e.ToggleRow(0))
	require.NoError(t, e.ExtendTo(1))

	// age ascending puts them at view rows 2 and 3.
	err := e.SetOrderBy(t.Context(), grid.OrderBy{{Column: "age"}})
	require.NoError(t, err)
	require.Equal(t, []grid.Range{{Start: 2, End: 4}}, e.Selection().Ranges())

	waitResolved(t, e, grid.Range{Start: 0, End: 4})
	rows := e.Rows(grid.Range{Start: 0, End: 4})
	first, _ := rows[0][0].Value()
	require.Equal(t, "alan", first)

	// Back to natural order: the same underlying rows come back.
	require.NoError(t, e.SetOrderBy(t.Context(), nil))
	require.Equal(t, []grid.Range{{Start: 0, End: 2}}, e.Selection().Ranges())
}

func TestGestureDuringConversionWins(t *testing.T) {
	t.Parallel()

	// Slow loads keep the permutation computation in flight long enough for
	// a gesture to land in the middle of it.
	src := newAges(t, memory.WithDelay(200*time.Millisecond))
	e := newEngine(t, src)

	require.NoError(t, e.ToggleRow(0))

	done := make(chan error, 1)
	go func() { done <- e.SetOrderBy(t.Context(), grid.OrderBy{{Column: "age"}}) }()
	require.Eventually(t, func() bool { return e.Busy() }, 2*time.Second, time.Millisecond)

	// A gesture issued while the conversion computes is the newer request;
	// the converted snapshot must not overwrite it.
	require.NoError(t, e.ToggleRow(3))

	require.NoError(t, <-done)
	sel := e.Selection()
	require.Equal(t, 2, sel.Count())
	ok, err := sel.IsSelected(3)
	require.NoError(t, err)
	require.True(t, ok, "mid-conversion gesture was overwritten")
}

func TestSetOrderByWithEmptySelectionSkipsConversion(t *testing.T) {
	t.Parallel()

	e := newEngine(t, newAges(t))
	require.NoError(t, e.SetOrderBy(t.Context(), grid.OrderBy{{Column: "age", Direction: grid.Descending}}))
	require.Equal(t, "age:desc", e.Order().Key())
	require.True(t, e.Selection().IsEmpty())
}

func TestSetOrderByUnknownColumn(t *testing.T) {
	t.Parallel()

	e := newEngine(t, newAges(t))
	require.NoError(t, e.ToggleRow(0))

	err := e.SetOrderBy(t.Context(), grid.OrderBy{{Column: "salary"}})
	require.Error(t, err)
	// The failed conversion leaves the old selection alone.
	require.Equal(t, []grid.Range{{Start: 0, End: 1}}, e.Selection().Ranges())
}

func TestAppendRefetchesWindow(t *testing.T) {
	t.Parallel()

	src := newAges(t)
	e := newEngine(t, src, WithOverscan(0), WithPadding(0))
	view(t, e, 0, 10)
	waitResolved(t, e, grid.Range{Start: 0, End: 4})

	require.NoError(t, src.Append([]grid.Value{"rob", int64(55)}))

	require.Eventually(t, func() bool {
		rows := e.Rows(grid.Range{Start: 4, End: 5})
		return len(rows) == 1 && rows[0][0].Resolved()
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, 5, e.NumRows())
}

func TestIdentityChangeResetsSelectionAndOrder(t *testing.T) {
	t.Parallel()

	src := newAges(t)
	e := newEngine(t, src)
	view(t, e, 0, 4)

	require.NoError(t, e.ToggleRow(1))
	require.NoError(t, e.SetOrderBy(t.Context(), grid.OrderBy{{Column: "age"}}))

	require.NoError(t, src.Replace([]string{"city"}, [][]grid.Value{{"oslo"}, {"bergen"}}))

	require.Eventually(t, func() bool {
		return e.Selection().IsEmpty() && len(e.Order()) == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCloseAbortsQuietly(t *testing.T) {
	t.Parallel()

	src := newAges(t, memory.WithDelay(500*time.Millisecond))
	e := ForSource(t.Context(), src, WithOverscan(0), WithPadding(0))
	_, err := e.SetViewport(0, 4, 4)
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.Eventually(t, func() bool { return !e.Busy() }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, e.Err(), "an aborted fetch is not a failure")
}

func TestFetchFailureSurfacesInErr(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend gone")
	e := newEngine(t, &failingSource{broker: pubsub.NewBroker[grid.Event](), err: boom}, WithOverscan(0), WithPadding(0))
	_, err := e.SetViewport(0, 2, 4)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return errors.Is(e.Err(), boom)
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRowsClampsToTable(t *testing.T) {
	t.Parallel()

	e := newEngine(t, newAges(t))
	rows := e.Rows(grid.Range{Start: 2, End: 50})
	require.Len(t, rows, 2)
}

// failingSource always fails its fetches.
type failingSource struct {
	broker *pubsub.Broker[grid.Event]
	err    error
}

func (f *failingSource) ID() string        { return "failing" }
func (f *failingSource) NumRows() int      { return 4 }
func (f *failingSource) Columns() []string { return []string{"a"} }

func (f *failingSource) Cell(int, string) grid.Cell { return grid.Cell{} }

func (f *failingSource) Fetch(context.Context, grid.Range, []string) error { return f.err }

func (f *failingSource) Events() *pubsub.Broker[grid.Event] { return f.broker }
