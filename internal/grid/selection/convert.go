package selection

import (
	"fmt"
)

// Convert re-maps a selection through a row mapping, typically the
// composition of an old sort order's permutation with the inverse of a new
// one. mapping[old] gives the row's index in the new space.
//
// The mapping must be a bijection over [0, len(mapping)): out-of-range
// entries yield ErrInvalidIndex and repeated entries ErrDuplicateIndex. Row
// membership survives conversion exactly; range boundaries are rebuilt from
// the mapped indexes. An anchor outside the mapping is dropped rather than
// failing the conversion.
func (s Selection) Convert(mapping []int) (Selection, error) {
	n := len(mapping)
	seen := make([]bool, n)
	for i, to := range mapping {
		if to < 0 || to >= n {
			return s, fmt.Errorf("%w: mapping[%d] = %d", ErrInvalidIndex, i, to)
		}
		if seen[to] {
			return s, fmt.Errorf("%w: mapping[%d] = %d", ErrDuplicateIndex, i, to)
		}
		seen[to] = true
	}

	indexes := make([]int, 0, s.Count())
	for _, r := range s.ranges {
		for i := r.Start; i < r.End; i++ {
			if i >= n {
				return s, fmt.Errorf("%w: selected row %d beyond mapping of %d", ErrInvalidIndex, i, n)
			}
			indexes = append(indexes, mapping[i])
		}
	}

	next, err := FromIndexes(indexes...)
	if err != nil {
		return s, err
	}
	if anchor, ok := s.Anchor(); ok && anchor < n {
		next = next.withAnchor(mapping[anchor])
	}
	return next, nil
}
