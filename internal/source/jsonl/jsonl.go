// Package jsonl serves rows from a JSON Lines file, one object per line.
//
// Opening a file scans it once to build a byte-offset index, so cell loads
// seek straight to their rows instead of re-reading the file from the top.
// Every indexed line also keeps an xxh3 hash; the hashes tell a file that
// grew apart from one that was rewritten underneath us, which is the
// difference between appending rows and becoming a new dataset.
package jsonl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nxadm/tail"
	"github.com/tidwall/gjson"
	"github.com/zeebo/xxh3"

	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/grid/cells"
	"github.com/rowpane/rowpane/internal/pubsub"
)

// DefaultSampleRows is how many leading rows column discovery reads.
const DefaultSampleRows = 100

// Source reads a JSONL file. Columns are the union of top-level keys seen
// in the sampled prefix, in first-seen order. With [WithFollow] the source
// tails the file: appended lines become new rows, a truncated or rewritten
// file becomes a new identity.
type Source struct {
	path    string
	broker  *pubsub.Broker[grid.Event]
	store   *cells.Store
	fetcher *cells.Fetcher

	mu      sync.Mutex
	id      string
	columns []string
	offsets []int64
	hashes  []uint64
	size    int64

	sampleRows int
	follow     bool
	tailer     *tail.Tail
}

var _ grid.Source = (*Source)(nil)

// Option configures a source before the initial scan.
type Option func(*Source)

// WithFollow keeps reading the file after the initial scan, like tail -f.
func WithFollow() Option {
	return func(s *Source) { s.follow = true }
}

// WithSampleRows sets how many leading rows column discovery samples.
func WithSampleRows(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.sampleRows = n
		}
	}
}

// Open scans the file at path and returns a source over its rows.
func Open(path string, opts ...Option) (*Source, error) {
	broker := pubsub.NewBroker[grid.Event]()
	s := &Source{
		path:       path,
		broker:     broker,
		id:         uuid.NewString(),
		sampleRows: DefaultSampleRows,
	}
	for _, opt := range opts {
		opt(s)
	}

	idx, err := scanFile(path, s.sampleRows)
	if err != nil {
		return nil, err
	}
	s.columns = idx.columns
	s.offsets = idx.offsets
	s.hashes = idx.hashes
	s.size = idx.size
	s.store = cells.NewStore(len(idx.offsets), broker)
	s.fetcher = cells.NewFetcher(s.store, s.load)

	if s.follow {
		// Polling works on filesystems where inotify does not (NFS,
		// some containers), and a 250ms pickup is plenty for a viewer.
		s.tailer, err = tail.TailFile(path, tail.Config{
			Follow:    true,
			ReOpen:    true,
			MustExist: true,
			Poll:      true,
			Location:  &tail.SeekInfo{Offset: s.size, Whence: io.SeekStart},
			Logger:    tail.DiscardingLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to follow %s: %w", path, err)
		}
		go s.watch()
	}
	return s, nil
}

// ID implements [grid.Source].
func (s *Source) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// NumRows implements [grid.Source].
func (s *Source) NumRows() int { return s.store.NumRows() }

// Columns implements [grid.Source].
func (s *Source) Columns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.columns)
}

// Cell implements [grid.Source].
func (s *Source) Cell(row int, col string) grid.Cell {
	return s.store.Cell(row, col)
}

// Events implements [grid.Source].
func (s *Source) Events() *pubsub.Broker[grid.Event] { return s.broker }

// Fetch implements [grid.Source]. Nil cols means every column.
func (s *Source) Fetch(ctx context.Context, rows grid.Range, cols []string) error {
	if len(cols) == 0 {
		cols = s.Columns()
	}
	return s.fetcher.Fetch(ctx, rows, cols)
}

// Close stops following and shuts the event broker down.
func (s *Source) Close() error {
	s.broker.Shutdown()
	if s.tailer == nil {
		return nil
	}
	err := s.tailer.Stop()
	s.tailer.Cleanup()
	return err
}

// load reads the rows of one run straight from their recorded offsets.
func (s *Source) load(ctx context.Context, rows grid.Range, cols []string) ([][]grid.Value, error) {
	s.mu.Lock()
	if rows.End > len(s.offsets) {
		s.mu.Unlock()
		return nil, fmt.Errorf("rows %v beyond %d indexed lines", rows, len(s.offsets))
	}
	start := s.offsets[rows.Start]
	firstHash := s.hashes[rows.Start]
	s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close() //nolint:errcheck
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}

	r := bufio.NewReader(f)
	out := make([][]grid.Value, 0, rows.Len())
	for len(out) < rows.Len() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := r.ReadString('\n')
		line := strings.TrimRight(raw, "\r\n")
		if line != "" {
			if len(out) == 0 && xxh3.HashString(line) != firstHash {
				return nil, fmt.Errorf("%s changed on disk at row %d", s.path, rows.Start)
			}
			out = append(out, extract(line, cols))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if len(out) != rows.Len() {
		return nil, fmt.Errorf("%s lost rows: wanted %v, found %d lines", s.path, rows, len(out))
	}
	return out, nil
}

// watch consumes the tail and folds new lines into the index.
func (s *Source) watch() {
	for line := range s.tailer.Lines {
		if line.Err != nil {
			slog.Error("follow failed", "path", s.path, "error", line.Err)
			continue
		}
		s.ingest(line)
	}
}

// ingest handles one followed line. The tail position tells appends apart
// from a restart: a position at or before what we already indexed means
// the file shrank and tail started over.
func (s *Source) ingest(line *tail.Line) {
	end := line.SeekInfo.Offset
	text := strings.TrimRight(line.Text, "\r")

	s.mu.Lock()
	if end <= s.size {
		s.mu.Unlock()
		s.resync()
		return
	}
	if text == "" {
		s.size = end
		s.mu.Unlock()
		return
	}
	s.offsets = append(s.offsets, s.size)
	s.hashes = append(s.hashes, xxh3.HashString(text))
	s.size = end
	newCols := s.mergeColumnsLocked(text)
	numRows := len(s.offsets)
	cols := slices.Clone(s.columns)
	s.mu.Unlock()

	s.store.Resize(numRows)
	// The tail already has the line in hand, so the new row resolves
	// immediately instead of waiting for a fetch.
	s.store.SetRows(numRows-1, cols, [][]grid.Value{extract(text, cols)}) //nolint:errcheck
	s.broker.Publish(pubsub.CreatedEvent, grid.Event{
		Rows:    grid.Range{Start: numRows - 1, End: numRows},
		Columns: newCols,
		NumRows: numRows,
	})
}

// resync rescans the whole file after the tail lost its place. A file
// whose old lines all still hash the same just grew; anything else is a
// rewrite and gets a fresh identity.
func (s *Source) resync() {
	idx, err := scanFile(s.path, s.sampleRows)
	if err != nil {
		slog.Error("resync failed", "path", s.path, "error", err)
		return
	}

	s.mu.Lock()
	grown := len(idx.hashes) >= len(s.hashes) && slices.Equal(idx.hashes[:len(s.hashes)], s.hashes)
	unchanged := grown && len(idx.hashes) == len(s.hashes) && idx.size == s.size
	if unchanged {
		s.mu.Unlock()
		return
	}
	oldRows := len(s.offsets)
	s.offsets = idx.offsets
	s.hashes = idx.hashes
	s.size = idx.size
	for _, col := range idx.columns {
		if !slices.Contains(s.columns, col) {
			s.columns = append(s.columns, col)
		}
	}
	if !grown {
		s.id = uuid.NewString()
	}
	numRows := len(idx.offsets)
	s.mu.Unlock()

	if grown {
		s.store.Resize(numRows)
		s.broker.Publish(pubsub.CreatedEvent, grid.Event{
			Rows:    grid.Range{Start: oldRows, End: numRows},
			NumRows: numRows,
		})
		return
	}
	s.store.Reset(numRows)
	s.broker.Publish(pubsub.DeletedEvent, grid.Event{NumRows: numRows})
}

// mergeColumnsLocked adds unseen top-level keys of line and returns them.
func (s *Source) mergeColumnsLocked(line string) []string {
	var added []string
	gjson.Parse(line).ForEach(func(key, _ gjson.Result) bool {
		if !slices.Contains(s.columns, key.Str) {
			s.columns = append(s.columns, key.Str)
			added = append(added, key.Str)
		}
		return true
	})
	return added
}

// fileIndex is the result of one full scan.
type fileIndex struct {
	columns []string
	offsets []int64
	hashes  []uint64
	size    int64
}

// scanFile walks the file once, indexing line offsets and hashes and
// sampling the leading rows for column names. Blank lines take up bytes
// but never become rows.
func scanFile(path string, sampleRows int) (*fileIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	idx := &fileIndex{}
	r := bufio.NewReader(f)
	for {
		raw, err := r.ReadString('\n')
		line := strings.TrimRight(raw, "\r\n")
		if line != "" {
			idx.offsets = append(idx.offsets, idx.size)
			idx.hashes = append(idx.hashes, xxh3.HashString(line))
			if len(idx.offsets) <= sampleRows {
				gjson.Parse(line).ForEach(func(key, _ gjson.Result) bool {
					if !slices.Contains(idx.columns, key.Str) {
						idx.columns = append(idx.columns, key.Str)
					}
					return true
				})
			}
		}
		idx.size += int64(len(raw))
		if err == io.EOF {
			return idx, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", path, err)
		}
	}
}

// extract pulls the given columns out of one line. Missing keys read as
// nil; nested objects and arrays read as their raw JSON text.
func extract(line string, cols []string) []grid.Value {
	fields := make(map[string]gjson.Result, len(cols))
	gjson.Parse(line).ForEach(func(key, val gjson.Result) bool {
		fields[key.Str] = val
		return true
	})
	row := make([]grid.Value, len(cols))
	for i, col := range cols {
		row[i] = value(fields[col])
	}
	return row
}

func value(r gjson.Result) grid.Value {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
			return i
		}
		return r.Float()
	case gjson.String:
		return r.Str
	default:
		if !r.Exists() {
			return nil
		}
		return r.Raw
	}
}
