package ranks

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowpane/rowpane/internal/grid"
)

func TestComputeFirstOccurrenceTies(t *testing.T) {
	t.Parallel()

	values := []grid.Value{int64(25), int64(30), int64(20), int64(20)}
	require.Equal(t, []int{2, 3, 0, 0}, Compute(values))
}

func TestComputeMixedKinds(t *testing.T) {
	t.Parallel()

	// nil < bool < number < string < bytes.
	values := []grid.Value{"b", nil, int64(7), true, []byte("x")}
	require.Equal(t, []int{3, 0, 2, 1, 4}, Compute(values))
}

func TestComputeEmptyAndSingle(t *testing.T) {
	t.Parallel()

	require.Empty(t, Compute(nil))
	require.Equal(t, []int{0}, Compute([]grid.Value{"only"}))
}

func TestComputeAllEqual(t *testing.T) {
	t.Parallel()

	values := []grid.Value{int64(1), int64(1), int64(1)}
	require.Equal(t, []int{0, 0, 0}, Compute(values))
}

func TestIndexesAscending(t *testing.T) {
	t.Parallel()

	age := Compute([]grid.Value{int64(25), int64(30), int64(20), int64(20)})
	perm, err := Indexes(4, []Column{{Name: "age", Direction: grid.Ascending, Ranks: age}})
	require.NoError(t, err)
	require.Equal(t, []int{2, 3, 0, 1}, perm)
}

func TestIndexesDescendingKeepsTieOrder(t *testing.T) {
	t.Parallel()

	age := Compute([]grid.Value{int64(25), int64(30), int64(20), int64(20)})
	perm, err := Indexes(4, []Column{{Name: "age", Direction: grid.Descending, Ranks: age}})
	require.NoError(t, err)

	// Negating the comparison keeps tied rows (2 and 3) in ascending row
	// order. Reversing the ascending permutation would flip them.
	require.Equal(t, []int{1, 0, 2, 3}, perm)
	require.NotEqual(t, []int{1, 0, 3, 2}, perm)
}

func TestIndexesMultiKey(t *testing.T) {
	t.Parallel()

	// city asc, then age desc within each city.
	city := Compute([]grid.Value{"oslo", "bergen", "oslo", "bergen"})
	age := Compute([]grid.Value{int64(40), int64(25), int64(31), int64(52)})

	perm, err := Indexes(4, []Column{
		{Name: "city", Direction: grid.Ascending, Ranks: city},
		{Name: "age", Direction: grid.Descending, Ranks: age},
	})
	require.NoError(t, err)
	require.Equal(t, []int{3, 1, 0, 2}, perm)
}

func TestIndexesErrors(t *testing.T) {
	t.Parallel()

	_, err := Indexes(4, nil)
	require.ErrorIs(t, err, ErrEmptyOrder)

	_, err = Indexes(4, []Column{{Name: "age", Ranks: []int{0, 1}}})
	require.ErrorIs(t, err, ErrInvalidColumn)
}

func TestInvert(t *testing.T) {
	t.Parallel()

	inv, err := Invert([]int{2, 0, 1})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 0}, inv)

	// Inverting twice returns the original.
	back, err := Invert(inv)
	require.NoError(t, err)
	require.Equal(t, []int{2, 0, 1}, back)

	_, err = Invert([]int{0, 0, 1})
	require.ErrorIs(t, err, ErrInvalidPermutation)
	_, err = Invert([]int{0, 3, 1})
	require.ErrorIs(t, err, ErrInvalidPermutation)
}

func TestPermutationMatchesRankOrderOnValues(t *testing.T) {
	t.Parallel()

	values := []grid.Value{"pear", "apple", "fig", "apple", "banana"}
	perm, err := Indexes(len(values), []Column{{Name: "fruit", Ranks: Compute(values)}})
	require.NoError(t, err)

	// Walking the permutation yields the values in non-decreasing order.
	for i := 1; i < len(perm); i++ {
		require.LessOrEqual(t, grid.Compare(values[perm[i-1]], values[perm[i]]), 0)
	}
	// Tied "apple" rows stay in source order.
	require.Equal(t, []int{1, 3, 4, 2, 0}, perm)
}
