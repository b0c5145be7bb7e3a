package grid

import (
	"context"
	"errors"

	"github.com/rowpane/rowpane/internal/pubsub"
)

// Event describes a change in a source, published through its broker.
// Created events report appended rows, Updated events report resolved or
// changed cells, and Deleted events report that the dataset was reset or
// replaced and every cache built against it is stale.
type Event struct {
	// Rows is the row range the change touches.
	Rows Range
	// Columns lists the affected columns; empty means all of them.
	Columns []string
	// NumRows is the source's row count after the change.
	NumRows int
}

// Source provides rows and columns in natural (unsorted) order.
//
// Cell never blocks: it reports what is already resolved. Fetch blocks until
// the requested window is resolved, the context is cancelled, or the source
// fails. Sources holding external handles may implement io.Closer.
type Source interface {
	// ID identifies the loaded dataset. A changed ID invalidates every
	// cache built against the source.
	ID() string
	// NumRows returns the current row count. It only ever grows for a
	// given ID.
	NumRows() int
	// Columns returns the column names in display order.
	Columns() []string
	// Cell returns the resolved value at (row, col), or a pending cell.
	Cell(row int, col string) Cell
	// Fetch resolves the given rows for the given columns; nil cols means
	// all columns.
	Fetch(ctx context.Context, rows Range, cols []string) error
	// Events returns the source's change broker.
	Events() *pubsub.Broker[Event]
}

// Sorter is a Source that can additionally serve any sort order, natively or
// through a sorting adapter.
type Sorter interface {
	Source

	// SortedCell is Cell under order. It never blocks; rows whose position
	// under order is not yet known read as pending.
	SortedCell(row int, col string, order OrderBy) Cell
	// SortedFetch resolves rows of the ordered view, loading whatever
	// ordering state and cells that requires.
	SortedFetch(ctx context.Context, rows Range, cols []string, order OrderBy) error
	// Permutation returns the view-row to source-row mapping for order,
	// computing and caching it on first use. nil with a nil error means
	// identity (the empty order).
	Permutation(ctx context.Context, order OrderBy) ([]int, error)
}

// IsAborted reports whether err is the outcome of a cancelled or expired
// context rather than a failure. Aborted work must not be surfaced as an
// error to the user.
func IsAborted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
