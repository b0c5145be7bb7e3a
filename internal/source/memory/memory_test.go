package memory

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/pubsub"
)

func people() ([]string, [][]grid.Value) {
	return []string{"name", "age"}, [][]grid.Value{
		{"ada", int64(36)},
		{"grace", int64(45)},
		{"alan", int64(41)},
	}
}

func TestEagerSourceIsResolved(t *testing.T) {
	t.Parallel()

	cols, rows := people()
	s, err := New(cols, rows)
	require.NoError(t, err)

	require.Equal(t, 3, s.NumRows())
	require.Equal(t, []string{"name", "age"}, s.Columns())
	require.NotEmpty(t, s.ID())

	v, ok := s.Cell(1, "name").Value()
	require.True(t, ok)
	require.Equal(t, "grace", v)
}

func TestLazySourceResolvesOnFetch(t *testing.T) {
	t.Parallel()

	cols, rows := people()
	s, err := NewLazy(cols, rows)
	require.NoError(t, err)

	require.False(t, s.Cell(0, "name").Resolved())

	require.NoError(t, s.Fetch(t.Context(), grid.Range{Start: 0, End: 2}, []string{"name"}))
	require.True(t, s.Cell(0, "name").Resolved())
	require.True(t, s.Cell(1, "name").Resolved())
	// Row 2 and the other column stay pending.
	require.False(t, s.Cell(2, "name").Resolved())
	require.False(t, s.Cell(0, "age").Resolved())
}

func TestFetchNilColsMeansAll(t *testing.T) {
	t.Parallel()

	cols, rows := people()
	s, err := NewLazy(cols, rows)
	require.NoError(t, err)

	require.NoError(t, s.Fetch(t.Context(), grid.Range{Start: 0, End: 3}, nil))
	require.True(t, s.Cell(2, "age").Resolved())
}

func TestFetchUnknownColumn(t *testing.T) {
	t.Parallel()

	cols, rows := people()
	s, err := NewLazy(cols, rows)
	require.NoError(t, err)

	err = s.Fetch(t.Context(), grid.Range{Start: 0, End: 1}, []string{"salary"})
	require.ErrorContains(t, err, `invalid column: "salary"`)
}

func TestRowWidthValidation(t *testing.T) {
	t.Parallel()

	_, err := New([]string{"a", "b"}, [][]grid.Value{{int64(1)}})
	require.Error(t, err)
}

func TestAppendPublishesCreated(t *testing.T) {
	t.Parallel()

	cols, rows := people()
	s, err := New(cols, rows)
	require.NoError(t, err)

	events := s.Events().Subscribe(t.Context())
	require.NoError(t, s.Append([]grid.Value{"linus", int64(55)}))

	require.Equal(t, 4, s.NumRows())
	select {
	case e := <-events:
		require.Equal(t, pubsub.CreatedEvent, e.Type)
		require.Equal(t, grid.Range{Start: 3, End: 4}, e.Payload.Rows)
		require.Equal(t, 4, e.Payload.NumRows)
	case <-time.After(time.Second):
		t.Fatal("no created event")
	}

	// Appended rows start pending and resolve on fetch.
	require.False(t, s.Cell(3, "name").Resolved())
	require.NoError(t, s.Fetch(t.Context(), grid.Range{Start: 3, End: 4}, nil))
	v, _ := s.Cell(3, "name").Value()
	require.Equal(t, "linus", v)
}

func TestReplaceChangesIdentity(t *testing.T) {
	t.Parallel()

	cols, rows := people()
	s, err := New(cols, rows)
	require.NoError(t, err)
	oldID := s.ID()

	events := s.Events().Subscribe(t.Context())
	require.NoError(t, s.Replace([]string{"city"}, [][]grid.Value{{"oslo"}}))

	require.NotEqual(t, oldID, s.ID())
	require.Equal(t, 1, s.NumRows())
	require.Equal(t, []string{"city"}, s.Columns())

	select {
	case e := <-events:
		require.Equal(t, pubsub.DeletedEvent, e.Type)
	case <-time.After(time.Second):
		t.Fatal("no deleted event")
	}
}

func TestFromCSV(t *testing.T) {
	t.Parallel()

	src := "name,age,score,active\nada,36,9.5,true\ngrace,45,,false\n"
	s, err := FromCSV(strings.NewReader(src))
	require.NoError(t, err)

	require.Equal(t, []string{"name", "age", "score", "active"}, s.Columns())
	require.Equal(t, 2, s.NumRows())

	v, _ := s.Cell(0, "age").Value()
	require.Equal(t, int64(36), v)
	v, _ = s.Cell(0, "score").Value()
	require.Equal(t, 9.5, v)
	v, _ = s.Cell(0, "active").Value()
	require.Equal(t, true, v)
	v, ok := s.Cell(1, "score").Value()
	require.True(t, ok, "empty field resolves to nil, not pending")
	require.Nil(t, v)
}

func TestFromCSVErrors(t *testing.T) {
	t.Parallel()

	_, err := FromCSV(strings.NewReader(""))
	require.ErrorContains(t, err, "missing header")
}
