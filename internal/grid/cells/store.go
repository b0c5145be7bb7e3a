// Package cells reconciles asynchronous, partial column fetches into a
// resolved/pending cell store and plans the minimal loads that fill a
// requested window.
package cells

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/pubsub"
)

// ErrShape is returned when a load result does not match the requested
// range or column set. A mismatch is a source contract violation, never
// something to paper over by guessing which rows were meant.
var ErrShape = errors.New("result shape mismatch")

// Store holds the cells of one dataset view, column by column. Every cell
// starts pending and resolves monotonically as loads land; only a Reset
// returns cells to pending.
//
// Writes publish at most one Updated event per batch, and none when the
// batch changes nothing, so hosts can repaint per notification without
// being flooded.
type Store struct {
	mu      sync.Mutex
	numRows int
	cols    map[string][]grid.Cell
	broker  *pubsub.Broker[grid.Event]
}

// NewStore creates a store for numRows rows. Change events go to broker;
// a nil broker makes the store silent.
func NewStore(numRows int, broker *pubsub.Broker[grid.Event]) *Store {
	return &Store{
		numRows: max(numRows, 0),
		cols:    make(map[string][]grid.Cell),
		broker:  broker,
	}
}

// NumRows returns the current row count.
func (s *Store) NumRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numRows
}

// Cell returns the cell at (row, col). Unknown columns and out-of-range
// rows read as pending.
func (s *Store) Cell(row int, col string) grid.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row < 0 || row >= s.numRows {
		return grid.Cell{}
	}
	c, ok := s.cols[col]
	if !ok || row >= len(c) {
		return grid.Cell{}
	}
	return c[row]
}

// Rows snapshots the cells of r for the given columns, row-major.
func (s *Store) Rows(r grid.Range, cols []string) [][]grid.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	r = r.Clamp(s.numRows)
	out := make([][]grid.Cell, r.Len())
	for i := range out {
		row := make([]grid.Cell, len(cols))
		for j, col := range cols {
			if c, ok := s.cols[col]; ok && r.Start+i < len(c) {
				row[j] = c[r.Start+i]
			}
		}
		out[i] = row
	}
	return out
}

// PendingRuns returns the maximal runs of rows inside r where at least one
// of the given columns is still pending. Adjacent pending stretches
// coalesce into a single spanning run, so a planner issues one load for
// them instead of two.
func (s *Store) PendingRuns(r grid.Range, cols []string) []grid.Range {
	s.mu.Lock()
	defer s.mu.Unlock()
	r = r.Clamp(s.numRows)

	var runs []grid.Range
	inRun := false
	for row := r.Start; row < r.End; row++ {
		pending := false
		for _, col := range cols {
			c, ok := s.cols[col]
			if !ok || row >= len(c) || !c[row].Resolved() {
				pending = true
				break
			}
		}
		switch {
		case pending && !inRun:
			runs = append(runs, grid.Range{Start: row, End: row + 1})
			inRun = true
		case pending:
			runs[len(runs)-1].End = row + 1
		default:
			inRun = false
		}
	}
	return runs
}

// SetRange merges a columnar batch starting at row start. Cells only count
// as changed when they resolve for the first time or their value actually
// differs; rewriting identical values publishes nothing. Rows outside the
// store are dropped.
func (s *Store) SetRange(col string, start int, values []grid.Value) {
	s.mu.Lock()
	changed := s.setRangeLocked(col, start, values)
	numRows := s.numRows
	s.mu.Unlock()

	if changed.Len() > 0 {
		s.publish(pubsub.UpdatedEvent, grid.Event{Rows: changed, Columns: []string{col}, NumRows: numRows})
	}
}

// SetRows merges a row-major batch covering cols, starting at row start.
// Every row must have exactly len(cols) values. One Updated event covers
// the whole batch.
func (s *Store) SetRows(start int, cols []string, rows [][]grid.Value) error {
	s.mu.Lock()
	changed := grid.Range{}
	for i, row := range rows {
		if len(row) != len(cols) {
			s.mu.Unlock()
			return fmt.Errorf("%w: row %d has %d values for %d columns", ErrShape, start+i, len(row), len(cols))
		}
		for j, col := range cols {
			c := s.setRangeLocked(col, start+i, row[j:j+1])
			changed = union(changed, c)
		}
	}
	numRows := s.numRows
	s.mu.Unlock()

	if changed.Len() > 0 {
		s.publish(pubsub.UpdatedEvent, grid.Event{Rows: changed, Columns: cols, NumRows: numRows})
	}
	return nil
}

// setRangeLocked writes values into col at start and returns the range of
// rows whose cells actually changed.
func (s *Store) setRangeLocked(col string, start int, values []grid.Value) grid.Range {
	c, ok := s.cols[col]
	if !ok {
		c = make([]grid.Cell, s.numRows)
		s.cols[col] = c
	}
	changed := grid.Range{}
	for i, v := range values {
		row := start + i
		if row < 0 || row >= s.numRows {
			continue
		}
		if old, resolved := c[row].Value(); resolved && grid.Equal(old, v) {
			continue
		}
		c[row] = grid.CellOf(v)
		changed = union(changed, grid.Range{Start: row, End: row + 1})
	}
	return changed
}

// Resize grows the store to numRows rows; the new rows start pending.
// Shrinking is not supported, a smaller table is a new identity and goes
// through Reset.
func (s *Store) Resize(numRows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if numRows <= s.numRows {
		return
	}
	for col, c := range s.cols {
		grown := make([]grid.Cell, numRows)
		copy(grown, c)
		s.cols[col] = grown
	}
	s.numRows = numRows
}

// Reset drops every cell and adopts a new row count.
func (s *Store) Reset(numRows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.numRows = max(numRows, 0)
	s.cols = make(map[string][]grid.Cell)
}

func (s *Store) publish(t pubsub.EventType, e grid.Event) {
	if s.broker != nil {
		s.broker.Publish(t, e)
	}
}

// union merges two row ranges into the smallest range covering both. The
// zero Range acts as the identity.
func union(a, b grid.Range) grid.Range {
	if a.Len() == 0 {
		return b
	}
	if b.Len() == 0 {
		return a
	}
	return grid.Range{Start: min(a.Start, b.Start), End: max(a.End, b.End)}
}
