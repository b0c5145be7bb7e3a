// Package grid defines the shared data model for the virtual table engine:
// half-open row ranges, sort orders, cells and the contract data sources
// implement.
package grid

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/exp/ordered"
)

// Range is a half-open interval of row indexes, [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of rows in r.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether row i falls inside r.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

// Clamp clips r to [0, n), keeping Start <= End.
func (r Range) Clamp(n int) Range {
	r.Start = ordered.Clamp(r.Start, 0, n)
	r.End = ordered.Clamp(r.End, 0, n)
	if r.End < r.Start {
		r.End = r.Start
	}
	return r
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Direction is a sort direction.
type Direction int8

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortKey orders rows by a single column.
type SortKey struct {
	Column    string
	Direction Direction
}

// OrderBy is a multi-key sort order. Empty means natural source order.
type OrderBy []SortKey

// Key returns the canonical serialization of o. Equal orders always produce
// equal keys and distinct orders never collide, so Key is safe to use as a
// cache key. Separator characters in column names are backslash-escaped.
func (o OrderBy) Key() string {
	if len(o) == 0 {
		return ""
	}
	var b strings.Builder
	for i, k := range o {
		if i > 0 {
			b.WriteByte(',')
		}
		for _, r := range k.Column {
			if r == '\\' || r == ':' || r == ',' {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		b.WriteByte(':')
		b.WriteString(k.Direction.String())
	}
	return b.String()
}

// Columns returns the columns o sorts by, first key first.
func (o OrderBy) Columns() []string {
	cols := make([]string, len(o))
	for i, k := range o {
		cols[i] = k.Column
	}
	return cols
}
