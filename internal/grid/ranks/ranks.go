// Package ranks turns column values into rank tables and sort orders into
// row permutations.
//
// A rank table maps each source row to its position in the ascending order
// of one column, ties sharing the first tied position. Rank tables are
// direction-free: descending orders negate the comparison when the
// permutation is built, which keeps tied rows in ascending row order for
// every direction. A permutation maps view rows to source rows.
package ranks

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/rowpane/rowpane/internal/grid"
)

var (
	// ErrEmptyOrder is returned when a permutation is requested for no
	// sort keys.
	ErrEmptyOrder = errors.New("empty order")
	// ErrInvalidColumn is returned when a sort key references a column
	// with no usable rank table.
	ErrInvalidColumn = errors.New("invalid column")
	// ErrInvalidPermutation is returned when a permutation is not a
	// bijection over its index range.
	ErrInvalidPermutation = errors.New("invalid permutation")
)

// Compute builds the rank table for one column. Values compare per
// [grid.Compare]; equal values share the rank of their first occurrence.
func Compute(values []grid.Value) []int {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		if c := grid.Compare(values[a], values[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	ranks := make([]int, n)
	rank := 0
	for pos, row := range order {
		if pos > 0 && grid.Compare(values[order[pos-1]], values[row]) != 0 {
			rank = pos
		}
		ranks[row] = rank
	}
	return ranks
}

// Column pairs one sort key with its precomputed rank table.
type Column struct {
	Name      string
	Direction grid.Direction
	Ranks     []int
}

// Indexes builds the permutation for a multi-key sort: element i is the
// source row shown at view row i. Keys apply in order; a descending key
// negates its comparison. Rows equal under every key keep ascending source
// order.
func Indexes(numRows int, cols []Column) ([]int, error) {
	if len(cols) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, c := range cols {
		if len(c.Ranks) != numRows {
			return nil, fmt.Errorf("%w: %q has %d ranks for %d rows", ErrInvalidColumn, c.Name, len(c.Ranks), numRows)
		}
	}

	perm := make([]int, numRows)
	for i := range perm {
		perm[i] = i
	}
	slices.SortFunc(perm, func(a, b int) int {
		for _, c := range cols {
			v := cmp.Compare(c.Ranks[a], c.Ranks[b])
			if c.Direction == grid.Descending {
				v = -v
			}
			if v != 0 {
				return v
			}
		}
		return cmp.Compare(a, b)
	})
	return perm, nil
}

// Invert returns the inverse of perm: if perm maps view rows to source rows,
// the result maps source rows to view rows.
func Invert(perm []int) ([]int, error) {
	n := len(perm)
	inv := make([]int, n)
	seen := make([]bool, n)
	for i, p := range perm {
		if p < 0 || p >= n {
			return nil, fmt.Errorf("%w: perm[%d] = %d out of %d", ErrInvalidPermutation, i, p, n)
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: perm[%d] = %d repeats", ErrInvalidPermutation, i, p)
		}
		seen[p] = true
		inv[p] = i
	}
	return inv, nil
}
