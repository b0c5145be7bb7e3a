package grid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRangeClamp(t *testing.T) {
	t.Parallel()

	require.Equal(t, Range{0, 5}, Range{-3, 5}.Clamp(10))
	require.Equal(t, Range{2, 10}, Range{2, 15}.Clamp(10))
	require.Equal(t, Range{0, 0}, Range{-5, -1}.Clamp(10))
	require.Equal(t, Range{10, 10}, Range{12, 20}.Clamp(10))
	require.Equal(t, Range{2, 5}, Range{2, 5}.Clamp(10))
}

func TestRangeContains(t *testing.T) {
	t.Parallel()

	r := Range{2, 5}
	require.False(t, r.Contains(1))
	require.True(t, r.Contains(2))
	require.True(t, r.Contains(4))
	require.False(t, r.Contains(5))
	require.Equal(t, 3, r.Len())
}

func TestOrderByKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", OrderBy{}.Key())
	require.Equal(t, "name:asc", OrderBy{{Column: "name"}}.Key())
	require.Equal(t, "age:desc,name:asc", OrderBy{
		{Column: "age", Direction: Descending},
		{Column: "name", Direction: Ascending},
	}.Key())

	// Equal orders produce equal keys, different orders different keys.
	a := OrderBy{{Column: "a"}, {Column: "b", Direction: Descending}}
	b := OrderBy{{Column: "a"}, {Column: "b", Direction: Descending}}
	require.Equal(t, a.Key(), b.Key())
	require.NotEqual(t, a.Key(), OrderBy{{Column: "b", Direction: Descending}, {Column: "a"}}.Key())
}

func TestOrderByKeyEscapesSeparators(t *testing.T) {
	t.Parallel()

	// A column name containing the separators must not alias a multi-key
	// order built from plain names.
	odd := OrderBy{{Column: "a:desc,b"}}
	two := OrderBy{{Column: "a", Direction: Descending}, {Column: "b"}}
	require.NotEqual(t, two.Key(), odd.Key())

	require.Equal(t, `a\:desc\,b:asc`, odd.Key())
	require.Equal(t, `back\\slash:asc`, OrderBy{{Column: `back\slash`}}.Key())
}

func TestCellZeroValueIsPending(t *testing.T) {
	t.Parallel()

	var c Cell
	require.False(t, c.Resolved())
	_, ok := c.Value()
	require.False(t, ok)

	// A resolved nil is not pending.
	c = CellOf(nil)
	require.True(t, c.Resolved())
	v, ok := c.Value()
	require.True(t, ok)
	require.Nil(t, v)
}
