package csync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMap_GetSet(t *testing.T) {
	t.Parallel()

	m := NewMap[string, int]()
	_, ok := m.Get("missing")
	require.False(t, ok)

	m.Set("a", 1)
	got, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, got)
	require.Equal(t, 1, m.Len())
}

func TestMap_GetOrSet(t *testing.T) {
	t.Parallel()

	m := NewMap[string, []int]()
	calls := 0
	v := m.GetOrSet("k", func() []int {
		calls++
		return []int{1, 2}
	})
	require.Equal(t, []int{1, 2}, v)

	v = m.GetOrSet("k", func() []int {
		calls++
		return nil
	})
	require.Equal(t, []int{1, 2}, v)
	require.Equal(t, 1, calls)
}

func TestMap_DelReset(t *testing.T) {
	t.Parallel()

	m := NewMap[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)

	m.Del("a")
	_, ok := m.Get("a")
	require.False(t, ok)
	require.Equal(t, 1, m.Len())

	m.Reset()
	require.Equal(t, 0, m.Len())
}

func TestMap_Seq2Snapshot(t *testing.T) {
	t.Parallel()

	m := NewMap[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)

	seen := map[string]int{}
	for k, v := range m.Seq2() {
		// Mutating during iteration must be safe: Seq2 walks a snapshot.
		m.Set("c", 3)
		seen[k] = v
	}
	require.Equal(t, map[string]int{"a": 1, "b": 2}, seen)
}

func TestMap_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	m := NewMap[int, int]()
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			m.Set(i, i)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, _ = m.Get(i)
		}(i)
	}
	wg.Wait()
	require.Equal(t, 100, m.Len())
}
