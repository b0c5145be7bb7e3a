package jsonl

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/pubsub"
)

const sample = `{"name":"ada","age":36,"active":true,"score":9.5}
{"name":"bob","age":41,"active":false,"tags":["x","y"]}

{"name":"eve","age":null,"score":7.25}
`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpen(t *testing.T) {
	t.Parallel()
	src, err := Open(writeSample(t, sample))
	require.NoError(t, err)
	defer src.Close()

	// Union of sampled keys in first-seen order; blank lines are not rows.
	require.Equal(t, []string{"name", "age", "active", "score", "tags"}, src.Columns())
	require.Equal(t, 3, src.NumRows())
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()
	_, err := Open(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.Error(t, err)
}

func TestFetchValues(t *testing.T) {
	t.Parallel()
	src, err := Open(writeSample(t, sample))
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, src.Fetch(t.Context(), grid.Range{Start: 0, End: 3}, nil))

	name, ok := src.Cell(0, "name").Value()
	require.True(t, ok)
	require.Equal(t, "ada", name)
	age, _ := src.Cell(0, "age").Value()
	require.Equal(t, int64(36), age)
	score, _ := src.Cell(0, "score").Value()
	require.Equal(t, 9.5, score)
	active, _ := src.Cell(0, "active").Value()
	require.Equal(t, true, active)

	// Arrays read as raw JSON text.
	tags, _ := src.Cell(1, "tags").Value()
	require.Equal(t, `["x","y"]`, tags)

	// JSON null and a missing key both read as nil, but resolved.
	null, ok := src.Cell(2, "age").Value()
	require.True(t, ok)
	require.Nil(t, null)
	missing, ok := src.Cell(2, "tags").Value()
	require.True(t, ok)
	require.Nil(t, missing)
}

func TestFetchSeeksToOffset(t *testing.T) {
	t.Parallel()
	src, err := Open(writeSample(t, sample))
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, src.Fetch(t.Context(), grid.Range{Start: 2, End: 3}, []string{"name"}))

	require.False(t, src.Cell(0, "name").Resolved())
	require.False(t, src.Cell(1, "name").Resolved())
	name, _ := src.Cell(2, "name").Value()
	require.Equal(t, "eve", name)
}

func TestSampleRowsLimit(t *testing.T) {
	t.Parallel()
	src, err := Open(writeSample(t, sample), WithSampleRows(1))
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, []string{"name", "age", "active", "score"}, src.Columns())
}

func TestFetchDetectsRewrite(t *testing.T) {
	t.Parallel()
	path := writeSample(t, sample)
	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{"name":"mal","age":1,"active":true,"score":0}
{"name":"bob","age":41,"active":false,"tags":["x","y"]}

{"name":"eve","age":null,"score":7.25}
`), 0o644))

	err = src.Fetch(t.Context(), grid.Range{Start: 0, End: 1}, []string{"name"})
	require.ErrorContains(t, err, "changed on disk")
}

func TestFollowAppend(t *testing.T) {
	t.Parallel()
	path := writeSample(t, sample)
	src, err := Open(path, WithFollow())
	require.NoError(t, err)
	defer src.Close()

	events := src.Events().Subscribe(t.Context())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"name":"zed","age":7,"active":true,"score":1.5,"extra":"new"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	e := awaitEvent(t, events, pubsub.CreatedEvent)
	require.Equal(t, grid.Range{Start: 3, End: 4}, e.Payload.Rows)
	require.Equal(t, 4, e.Payload.NumRows)
	require.Equal(t, 4, src.NumRows())

	// The followed row arrives resolved, and its unseen key joins the columns.
	name, ok := src.Cell(3, "name").Value()
	require.True(t, ok)
	require.Equal(t, "zed", name)
	require.Contains(t, src.Columns(), "extra")
}

func TestFollowRewriteIsNewIdentity(t *testing.T) {
	t.Parallel()
	path := writeSample(t, sample)
	src, err := Open(path, WithFollow())
	require.NoError(t, err)
	defer src.Close()

	origID := src.ID()
	events := src.Events().Subscribe(t.Context())

	require.NoError(t, os.WriteFile(path, []byte(`{"name":"new","age":1}`+"\n"), 0o644))

	awaitEvent(t, events, pubsub.DeletedEvent)
	require.NotEqual(t, origID, src.ID())
	require.Equal(t, 1, src.NumRows())
	require.False(t, src.Cell(0, "name").Resolved())
}

func awaitEvent(t *testing.T, ch <-chan pubsub.Event[grid.Event], typ pubsub.EventType) pubsub.Event[grid.Event] {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-ch:
			if e.Type == typ {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", typ)
		}
	}
}
