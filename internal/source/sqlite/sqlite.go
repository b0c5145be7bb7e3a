// Package sqlite serves rows straight out of a SQLite table. Sorting is
// pushed down to the database: each sort order gets its own cell store
// filled by ORDER BY … LIMIT/OFFSET queries, so no rank tables are ever
// built in Go.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rowpane/rowpane/internal/csync"
	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/grid/cells"
	"github.com/rowpane/rowpane/internal/grid/ranks"
	"github.com/rowpane/rowpane/internal/pubsub"
)

// Source reads one table of a SQLite database, opened read-only. The
// natural row order is rowid order, which also breaks ties under every
// sort order. The schema and row count are fixed at [Open]; a database
// rewritten on disk is a different dataset and should be reopened.
type Source struct {
	id      string
	db      *sql.DB
	table   string
	columns []string
	numRows int
	broker  *pubsub.Broker[grid.Event]
	views   *csync.Map[string, *orderView]
	perms   *csync.Map[string, []int]
}

var _ grid.Sorter = (*Source)(nil)

// orderView is the cell cache for one sort order.
type orderView struct {
	store   *cells.Store
	fetcher *cells.Fetcher
}

// Open opens the database at path read-only and binds the source to table.
func Open(ctx context.Context, path, table string) (*Source, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	db.SetMaxOpenConns(4)

	s := &Source{
		id:     uuid.NewString(),
		db:     db,
		table:  table,
		broker: pubsub.NewBroker[grid.Event](),
		views:  csync.NewMap[string, *orderView](),
		perms:  csync.NewMap[string, []int](),
	}
	if s.columns, err = tableColumns(ctx, db, table); err != nil {
		_ = db.Close()
		return nil, err
	}
	query := "SELECT COUNT(*) FROM " + quoteIdent(table)
	if err := db.QueryRowContext(ctx, query).Scan(&s.numRows); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return s, nil
}

// ID implements [grid.Source].
func (s *Source) ID() string { return s.id }

// NumRows implements [grid.Source].
func (s *Source) NumRows() int { return s.numRows }

// Columns implements [grid.Source] in declaration order.
func (s *Source) Columns() []string { return slices.Clone(s.columns) }

// Events implements [grid.Source].
func (s *Source) Events() *pubsub.Broker[grid.Event] { return s.broker }

// Close shuts the event broker down and closes the database.
func (s *Source) Close() error {
	s.broker.Shutdown()
	return s.db.Close()
}

// Cell implements [grid.Source].
func (s *Source) Cell(row int, col string) grid.Cell {
	return s.SortedCell(row, col, nil)
}

// Fetch implements [grid.Source].
func (s *Source) Fetch(ctx context.Context, rows grid.Range, cols []string) error {
	return s.SortedFetch(ctx, rows, cols, nil)
}

// SortedCell implements [grid.Sorter]. Cells an order's store has not
// loaded yet read as pending.
func (s *Source) SortedCell(row int, col string, order grid.OrderBy) grid.Cell {
	return s.view(order).store.Cell(row, col)
}

// SortedFetch implements [grid.Sorter]. Nil cols means every column.
func (s *Source) SortedFetch(ctx context.Context, rows grid.Range, cols []string, order grid.OrderBy) error {
	if err := s.validateOrder(order); err != nil {
		return err
	}
	cols, err := s.resolveColumns(cols)
	if err != nil {
		return err
	}
	return s.view(order).fetcher.Fetch(ctx, rows, cols)
}

// Permutation implements [grid.Sorter]: the view-to-natural row mapping
// under order, computed by two rowid scans and cached per order key.
func (s *Source) Permutation(ctx context.Context, order grid.OrderBy) ([]int, error) {
	if len(order) == 0 {
		return nil, nil
	}
	if err := s.validateOrder(order); err != nil {
		return nil, err
	}
	key := order.Key()
	if perm, ok := s.perms.Get(key); ok {
		return perm, nil
	}

	natural, err := s.rowidPositions(ctx)
	if err != nil {
		return nil, err
	}
	query := "SELECT rowid FROM " + quoteIdent(s.table) + orderClause(order)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to order %s: %w", s.table, err)
	}
	defer func() { _ = rows.Close() }()

	perm := make([]int, 0, len(natural))
	for rows.Next() {
		var rid int64
		if err := rows.Scan(&rid); err != nil {
			return nil, err
		}
		pos, ok := natural[rid]
		if !ok {
			return nil, fmt.Errorf("rowid %d appeared mid-scan in %s", rid, s.table)
		}
		perm = append(perm, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.perms.Set(key, perm)
	return perm, nil
}

// rowidPositions maps every rowid to its natural position. Rowids are not
// contiguous after deletes, so positions come from a rowid-ordered scan.
func (s *Source) rowidPositions(ctx context.Context) (map[int64]int, error) {
	query := "SELECT rowid FROM " + quoteIdent(s.table) + " ORDER BY rowid"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to scan rowids of %s: %w", s.table, err)
	}
	defer func() { _ = rows.Close() }()

	natural := make(map[int64]int, s.numRows)
	for rows.Next() {
		var rid int64
		if err := rows.Scan(&rid); err != nil {
			return nil, err
		}
		natural[rid] = len(natural)
	}
	return natural, rows.Err()
}

// view returns the cell cache for order, creating it on first use.
func (s *Source) view(order grid.OrderBy) *orderView {
	return s.views.GetOrSet(order.Key(), func() *orderView {
		store := cells.NewStore(s.numRows, s.broker)
		return &orderView{
			store:   store,
			fetcher: cells.NewFetcher(store, s.loader(order)),
		}
	})
}

// loader builds the row loader for one sort order. Every load is a single
// ORDER BY … LIMIT/OFFSET query; ties and the natural order both fall back
// to rowid, so pagination is stable across loads.
func (s *Source) loader(order grid.OrderBy) cells.Loader {
	return func(ctx context.Context, rows grid.Range, cols []string) ([][]grid.Value, error) {
		query := fmt.Sprintf("SELECT %s FROM %s%s LIMIT %d OFFSET %d",
			selectList(cols), quoteIdent(s.table), orderClause(order), rows.Len(), rows.Start)
		res, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return nil, err
		}
		defer func() { _ = res.Close() }()

		out := make([][]grid.Value, 0, rows.Len())
		for res.Next() {
			ptrs := make([]any, len(cols))
			for i := range ptrs {
				ptrs[i] = new(any)
			}
			if err := res.Scan(ptrs...); err != nil {
				return nil, err
			}
			// The driver hands back int64, float64, string, []byte or nil,
			// which are exactly the value kinds the grid speaks.
			row := make([]grid.Value, len(cols))
			for i := range ptrs {
				row[i] = *(ptrs[i].(*any))
			}
			out = append(out, row)
		}
		return out, res.Err()
	}
}

func (s *Source) resolveColumns(cols []string) ([]string, error) {
	if len(cols) == 0 {
		return s.Columns(), nil
	}
	for _, col := range cols {
		if !slices.Contains(s.columns, col) {
			return nil, fmt.Errorf("invalid column: %q", col)
		}
	}
	return cols, nil
}

func (s *Source) validateOrder(order grid.OrderBy) error {
	for _, k := range order {
		if !slices.Contains(s.columns, k.Column) {
			return fmt.Errorf("%w: %q", ranks.ErrInvalidColumn, k.Column)
		}
	}
	return nil
}

// Tables lists the user tables of the database at path, in name order.
func Tables(ctx context.Context, path string) ([]string, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	query := `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables of %s: %w", path, err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// tableColumns reads the declared column names of table.
func tableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no such table: %q", table)
	}
	return cols, nil
}

// orderClause renders " ORDER BY …" for order, always ending on rowid so
// ties keep their natural relative order.
func orderClause(order grid.OrderBy) string {
	var b strings.Builder
	b.WriteString(" ORDER BY ")
	for _, k := range order {
		b.WriteString(quoteIdent(k.Column))
		if k.Direction == grid.Descending {
			b.WriteString(" DESC")
		}
		b.WriteString(", ")
	}
	b.WriteString("rowid")
	return b.String()
}

func selectList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdent(col)
	}
	return strings.Join(quoted, ", ")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
