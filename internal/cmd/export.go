package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/grid/sortview"
)

// exportChunk is how many rows one fetch resolves at a time, so exporting
// a huge range never holds more than a window of cells at once.
const exportChunk = 512

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write rows as JSON Lines without the UI",
	Long: heredoc.Doc(`
		Export resolves a row range through the same engine the browser
		uses and writes it as JSON Lines, one object per row. Rows are
		fetched in windows, so exporting a million-row slice costs a
		window of memory, not a dataset of it.
	`),
	Example: heredoc.Doc(`
		# Everything, to stdout
		rowpane export people.csv

		# A slice of columns, sorted, into a file
		rowpane export --rows 0:1000 --cols name,age --order age:desc people.csv -o top.jsonl
	`),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path, err := resolveDataset(cfg, args)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		src, err := openSource(ctx, cmd, cfg, path)
		if err != nil {
			return err
		}
		sorter := asSorter(src)
		defer closeSource(sorter)

		rowsFlag, _ := cmd.Flags().GetString("rows")
		rows, err := parseRows(rowsFlag, sorter.NumRows())
		if err != nil {
			return err
		}
		cols, _ := cmd.Flags().GetStringSlice("cols")
		if len(cols) == 0 {
			cols = sorter.Columns()
		}
		orderFlag, _ := cmd.Flags().GetString("order")
		order, err := parseOrder(orderFlag)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if output, _ := cmd.Flags().GetString("output"); output != "" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		return runExport(ctx, sorter, out, rows, cols, order)
	},
}

func init() {
	exportCmd.Flags().String("rows", "", "Row range to export as start:end, half-open (default: all rows)")
	exportCmd.Flags().StringSlice("cols", nil, "Columns to export (default: all columns)")
	exportCmd.Flags().String("order", "", "Sort order as col[:asc|desc], comma-separated")
	exportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	exportCmd.Flags().StringP("table", "t", "", "Table to export from a SQLite database")
}

func asSorter(src grid.Source) grid.Sorter {
	if sorter, ok := src.(grid.Sorter); ok {
		return sorter
	}
	return sortview.New(src)
}

func closeSource(src grid.Source) {
	if c, ok := src.(io.Closer); ok {
		_ = c.Close()
	}
}

// runExport streams rows×cols under order into w as JSON Lines, fetching
// one window at a time.
func runExport(ctx context.Context, sorter grid.Sorter, w io.Writer, rows grid.Range, cols []string, order grid.OrderBy) error {
	bw := bufio.NewWriter(w)
	for start := rows.Start; start < rows.End; start += exportChunk {
		window := grid.Range{Start: start, End: min(start+exportChunk, rows.End)}
		if err := sorter.SortedFetch(ctx, window, cols, order); err != nil {
			return fmt.Errorf("failed to fetch rows %v: %w", window, err)
		}
		for row := window.Start; row < window.End; row++ {
			line, err := buildLine(sorter, row, cols, order)
			if err != nil {
				return err
			}
			if _, err := bw.WriteString(line); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// buildLine renders one row as a JSON object in column order.
func buildLine(sorter grid.Sorter, row int, cols []string, order grid.OrderBy) (string, error) {
	line := "{}"
	for _, col := range cols {
		v, ok := sorter.SortedCell(row, col, order).Value()
		if !ok {
			return "", fmt.Errorf("row %d column %q unresolved after fetch", row, col)
		}
		var err error
		line, err = sjson.Set(line, escapeJSONPath(col), v)
		if err != nil {
			return "", fmt.Errorf("failed to encode row %d column %q: %w", row, col, err)
		}
	}
	return line, nil
}

// escapeJSONPath neutralizes sjson path syntax so a column named "a.b" sets
// the key "a.b" instead of nesting.
var escapeJSONPath = strings.NewReplacer(
	`\`, `\\`, `.`, `\.`, `*`, `\*`, `?`, `\?`, `|`, `\|`, `#`, `\#`, `@`, `\@`, `:`, `\:`,
).Replace

// parseRows reads a half-open start:end row range; either bound may be
// omitted. The range is clamped to the table.
func parseRows(s string, numRows int) (grid.Range, error) {
	r := grid.Range{Start: 0, End: numRows}
	if s == "" {
		return r, nil
	}
	startStr, endStr, ok := strings.Cut(s, ":")
	if !ok {
		return grid.Range{}, fmt.Errorf("invalid rows %q (want start:end)", s)
	}
	var err error
	if startStr != "" {
		if r.Start, err = strconv.Atoi(startStr); err != nil {
			return grid.Range{}, fmt.Errorf("invalid rows %q: %w", s, err)
		}
	}
	if endStr != "" {
		if r.End, err = strconv.Atoi(endStr); err != nil {
			return grid.Range{}, fmt.Errorf("invalid rows %q: %w", s, err)
		}
	}
	if r.Start < 0 || r.End < r.Start {
		return grid.Range{}, fmt.Errorf("invalid rows %q", s)
	}
	return r.Clamp(numRows), nil
}

// parseOrder reads a comma-separated list of col[:asc|desc] sort keys.
func parseOrder(s string) (grid.OrderBy, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var order grid.OrderBy
	for _, part := range strings.Split(s, ",") {
		col, dir, hasDir := strings.Cut(strings.TrimSpace(part), ":")
		if col == "" {
			return nil, fmt.Errorf("invalid order %q: empty column", s)
		}
		key := grid.SortKey{Column: col}
		if hasDir {
			switch dir {
			case "asc":
			case "desc":
				key.Direction = grid.Descending
			default:
				return nil, fmt.Errorf("invalid order %q: direction %q (want asc or desc)", s, dir)
			}
		}
		order = append(order, key)
	}
	return order, nil
}
