// Package selection implements row selection as a set of half-open index
// ranges plus the anchor used by extend gestures.
//
// Selections are immutable values: every operation returns a new Selection
// and leaves the receiver untouched, so concurrent readers can hold
// snapshots safely. The range list is kept canonical at all times: strictly
// increasing, non-empty, non-overlapping and non-adjacent.
package selection

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rowpane/rowpane/internal/grid"
)

var (
	// ErrInvalidIndex is returned for negative or out-of-bounds indexes.
	ErrInvalidIndex = errors.New("invalid index: out of bounds")
	// ErrInvalidRange is returned for ranges with Start < 0 or End <= Start.
	ErrInvalidRange = errors.New("invalid range")
	// ErrDuplicateIndex is returned when a row mapping is not a bijection.
	ErrDuplicateIndex = errors.New("duplicate index")
)

// Selection is an immutable set of selected row indexes with an optional
// anchor. The zero Selection is empty.
type Selection struct {
	ranges []grid.Range
	anchor *int
}

// FromRanges builds a Selection from arbitrary ranges, normalizing them into
// canonical form. Overlapping and adjacent input ranges merge; malformed
// ranges are rejected.
func FromRanges(ranges ...grid.Range) (Selection, error) {
	var s Selection
	var err error
	for _, r := range ranges {
		s, err = s.SelectRange(r)
		if err != nil {
			return Selection{}, err
		}
	}
	return s, nil
}

// FromIndexes builds a Selection from individual row indexes. Duplicates
// collapse; negative indexes are rejected.
func FromIndexes(indexes ...int) (Selection, error) {
	if len(indexes) == 0 {
		return Selection{}, nil
	}
	sorted := slices.Clone(indexes)
	slices.Sort(sorted)
	if sorted[0] < 0 {
		return Selection{}, fmt.Errorf("%w: %d", ErrInvalidIndex, sorted[0])
	}

	var ranges []grid.Range
	run := grid.Range{Start: sorted[0], End: sorted[0] + 1}
	for _, i := range sorted[1:] {
		if i < run.End {
			continue // duplicate
		}
		if i == run.End {
			run.End++
			continue
		}
		ranges = append(ranges, run)
		run = grid.Range{Start: i, End: i + 1}
	}
	ranges = append(ranges, run)
	return Selection{ranges: ranges}, nil
}

// Ranges returns the selected ranges in canonical form. The returned slice
// is a copy.
func (s Selection) Ranges() []grid.Range {
	return slices.Clone(s.ranges)
}

// Anchor returns the extend-gesture anchor. The anchor is a row index and
// need not itself be selected.
func (s Selection) Anchor() (int, bool) {
	if s.anchor == nil {
		return 0, false
	}
	return *s.anchor, true
}

// IsEmpty reports whether no rows are selected.
func (s Selection) IsEmpty() bool {
	return len(s.ranges) == 0
}

// Count returns the number of selected rows.
func (s Selection) Count() int {
	n := 0
	for _, r := range s.ranges {
		n += r.Len()
	}
	return n
}

// IsSelected reports whether row i is selected. Negative indexes are
// rejected, not treated as unselected.
func (s Selection) IsSelected(i int) (bool, error) {
	if i < 0 {
		return false, fmt.Errorf("%w: %d", ErrInvalidIndex, i)
	}
	return s.contains(i), nil
}

// AllSelected reports whether every row of a table with numRows rows is
// selected. An empty table counts as fully selected; a negative numRows is
// rejected.
func (s Selection) AllSelected(numRows int) (bool, error) {
	if numRows < 0 {
		return false, fmt.Errorf("%w: numRows %d", ErrInvalidIndex, numRows)
	}
	if numRows == 0 {
		return true, nil
	}
	return len(s.ranges) == 1 && s.ranges[0].Start == 0 && s.ranges[0].End >= numRows, nil
}

func (s Selection) contains(i int) bool {
	_, ok := slices.BinarySearchFunc(s.ranges, i, func(r grid.Range, i int) int {
		switch {
		case r.End <= i:
			return -1
		case r.Start > i:
			return 1
		default:
			return 0
		}
	})
	return ok
}

// ToggleIndex flips the selected state of row i and moves the anchor to it.
func (s Selection) ToggleIndex(i int) (Selection, error) {
	if i < 0 {
		return s, fmt.Errorf("%w: %d", ErrInvalidIndex, i)
	}
	var next Selection
	var err error
	if s.contains(i) {
		next, err = s.UnselectRange(grid.Range{Start: i, End: i + 1})
	} else {
		next, err = s.SelectRange(grid.Range{Start: i, End: i + 1})
	}
	if err != nil {
		return s, err
	}
	return next.withAnchor(i), nil
}

// SelectRange adds every row of r to the selection, merging with existing
// ranges as needed. The anchor is unchanged.
func (s Selection) SelectRange(r grid.Range) (Selection, error) {
	if r.Start < 0 || r.End <= r.Start {
		return s, fmt.Errorf("%w: %v", ErrInvalidRange, r)
	}
	merged := make([]grid.Range, 0, len(s.ranges)+1)
	i := 0
	for ; i < len(s.ranges) && s.ranges[i].End < r.Start; i++ {
		merged = append(merged, s.ranges[i])
	}
	// Absorb every range that overlaps or touches r.
	for ; i < len(s.ranges) && s.ranges[i].Start <= r.End; i++ {
		r.Start = min(r.Start, s.ranges[i].Start)
		r.End = max(r.End, s.ranges[i].End)
	}
	merged = append(merged, r)
	merged = append(merged, s.ranges[i:]...)
	return Selection{ranges: merged, anchor: s.anchor}, nil
}

// UnselectRange removes every row of r from the selection, splitting ranges
// that straddle it. The anchor is unchanged.
func (s Selection) UnselectRange(r grid.Range) (Selection, error) {
	if r.Start < 0 || r.End <= r.Start {
		return s, fmt.Errorf("%w: %v", ErrInvalidRange, r)
	}
	next := make([]grid.Range, 0, len(s.ranges)+1)
	for _, cur := range s.ranges {
		if cur.End <= r.Start || cur.Start >= r.End {
			next = append(next, cur)
			continue
		}
		if cur.Start < r.Start {
			next = append(next, grid.Range{Start: cur.Start, End: r.Start})
		}
		if cur.End > r.End {
			next = append(next, grid.Range{Start: r.End, End: cur.End})
		}
	}
	return Selection{ranges: next, anchor: s.anchor}, nil
}

// ToggleAll selects every row of a table with numRows rows, or clears the
// selection when all of them are already selected. The anchor resets.
func (s Selection) ToggleAll(numRows int) (Selection, error) {
	all, err := s.AllSelected(numRows)
	if err != nil {
		return s, err
	}
	if all {
		return Selection{}, nil
	}
	return Selection{ranges: []grid.Range{{Start: 0, End: numRows}}}, nil
}

// ExtendTo extends the selection from the anchor to row i, inclusive on both
// ends. Whether the span selects or unselects follows the anchor's state.
// Without an anchor, or when i is the anchor, it degrades to ToggleIndex.
// The anchor moves to i.
func (s Selection) ExtendTo(i int) (Selection, error) {
	if i < 0 {
		return s, fmt.Errorf("%w: %d", ErrInvalidIndex, i)
	}
	anchor, ok := s.Anchor()
	if !ok || anchor == i {
		return s.ToggleIndex(i)
	}
	span := grid.Range{Start: min(anchor, i), End: max(anchor, i) + 1}
	var next Selection
	var err error
	if s.contains(anchor) {
		next, err = s.SelectRange(span)
	} else {
		next, err = s.UnselectRange(span)
	}
	if err != nil {
		return s, err
	}
	return next.withAnchor(i), nil
}

func (s Selection) withAnchor(i int) Selection {
	return Selection{ranges: s.ranges, anchor: &i}
}

func (s Selection) String() string {
	if s.IsEmpty() {
		return "none"
	}
	parts := make([]string, len(s.ranges))
	for i, r := range s.ranges {
		if r.Len() == 1 {
			parts[i] = fmt.Sprintf("%d", r.Start)
		} else {
			parts[i] = fmt.Sprintf("%d-%d", r.Start, r.End-1)
		}
	}
	return strings.Join(parts, ",")
}
