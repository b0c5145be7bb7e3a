// Package memory provides in-memory data sources, used for small datasets,
// CSV files and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/grid/cells"
	"github.com/rowpane/rowpane/internal/pubsub"
)

// Source serves rows from memory. The eager form resolves everything at
// construction; the lazy form resolves rows only as they are fetched, which
// makes the pending paths of the engine observable.
type Source struct {
	id      string
	columns []string
	broker  *pubsub.Broker[grid.Event]
	store   *cells.Store
	fetcher *cells.Fetcher

	mu    sync.Mutex
	rows  [][]grid.Value
	delay time.Duration
}

var _ grid.Source = (*Source)(nil)

// Option configures a lazy source.
type Option func(*Source)

// WithDelay makes every load take at least d, so tests and demos can watch
// cells resolve.
func WithDelay(d time.Duration) Option {
	return func(s *Source) { s.delay = d }
}

// New creates a fully resolved in-memory source. Every row must have one
// value per column.
func New(columns []string, rows [][]grid.Value) (*Source, error) {
	s, err := NewLazy(columns, rows)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		if err := s.store.SetRows(0, s.columns, rows); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewLazy creates a source whose cells stay pending until fetched.
func NewLazy(columns []string, rows [][]grid.Value, opts ...Option) (*Source, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(columns))
		}
	}
	broker := pubsub.NewBroker[grid.Event]()
	s := &Source{
		id:      uuid.NewString(),
		columns: slices.Clone(columns),
		broker:  broker,
		store:   cells.NewStore(len(rows), broker),
		rows:    rows,
	}
	s.fetcher = cells.NewFetcher(s.store, s.load)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ID implements [grid.Source].
func (s *Source) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// NumRows implements [grid.Source].
func (s *Source) NumRows() int { return s.store.NumRows() }

// Columns implements [grid.Source].
func (s *Source) Columns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.columns)
}

// Cell implements [grid.Source].
func (s *Source) Cell(row int, col string) grid.Cell {
	return s.store.Cell(row, col)
}

// Events implements [grid.Source].
func (s *Source) Events() *pubsub.Broker[grid.Event] { return s.broker }

// Fetch implements [grid.Source]. Nil cols means every column.
func (s *Source) Fetch(ctx context.Context, rows grid.Range, cols []string) error {
	cols, err := s.resolveColumns(cols)
	if err != nil {
		return err
	}
	return s.fetcher.Fetch(ctx, rows, cols)
}

// Append adds rows to the end of the dataset and announces them. The new
// cells are pending until fetched (or immediately resolved on an eager
// source's next fetch, which reads the same backing data).
func (s *Source) Append(rows ...[]grid.Value) error {
	s.mu.Lock()
	for i, row := range rows {
		if len(row) != len(s.columns) {
			s.mu.Unlock()
			return fmt.Errorf("appended row %d has %d values for %d columns", i, len(row), len(s.columns))
		}
	}
	s.rows = append(s.rows, rows...)
	numRows := len(s.rows)
	s.mu.Unlock()

	s.store.Resize(numRows)
	s.broker.Publish(pubsub.CreatedEvent, grid.Event{
		Rows:    grid.Range{Start: numRows - len(rows), End: numRows},
		NumRows: numRows,
	})
	return nil
}

// Replace swaps in an entirely new dataset under a new identity.
func (s *Source) Replace(columns []string, rows [][]grid.Value) error {
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(columns))
		}
	}
	s.mu.Lock()
	s.id = uuid.NewString()
	s.columns = slices.Clone(columns)
	s.rows = rows
	numRows := len(rows)
	s.mu.Unlock()

	s.store.Reset(numRows)
	s.broker.Publish(pubsub.DeletedEvent, grid.Event{NumRows: numRows})
	return nil
}

func (s *Source) load(ctx context.Context, rows grid.Range, cols []string) ([][]grid.Value, error) {
	s.mu.Lock()
	delay := s.delay
	backing := s.rows
	colIdx := make([]int, len(cols))
	for j, col := range cols {
		colIdx[j] = slices.Index(s.columns, col)
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if rows.End > len(backing) {
		return nil, fmt.Errorf("rows %v beyond %d backing rows", rows, len(backing))
	}
	out := make([][]grid.Value, rows.Len())
	for i := range out {
		row := make([]grid.Value, len(cols))
		for j := range cols {
			if colIdx[j] < 0 {
				return nil, fmt.Errorf("invalid column: %q", cols[j])
			}
			row[j] = backing[rows.Start+i][colIdx[j]]
		}
		out[i] = row
	}
	return out, nil
}

func (s *Source) resolveColumns(cols []string) ([]string, error) {
	known := s.Columns()
	if len(cols) == 0 {
		return known, nil
	}
	for _, col := range cols {
		if !slices.Contains(known, col) {
			return nil, fmt.Errorf("invalid column: %q", col)
		}
	}
	return cols, nil
}
