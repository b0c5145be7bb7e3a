package memory

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rowpane/rowpane/internal/grid"
)

// FromCSV reads a CSV stream whose first record names the columns and
// returns a fully resolved source. Fields parse as int64 then float64
// before falling back to string; empty fields become nil.
func FromCSV(r io.Reader) (*Source, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var rows [][]grid.Value
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", len(rows)+2, err)
		}
		row := make([]grid.Value, len(header))
		for i := range header {
			if i < len(record) {
				row[i] = sniffValue(record[i])
			}
		}
		rows = append(rows, row)
	}
	return New(header, rows)
}

func sniffValue(field string) grid.Value {
	if field == "" {
		return nil
	}
	if n, err := strconv.ParseInt(field, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(field, 64); err == nil {
		return f
	}
	switch field {
	case "true":
		return true
	case "false":
		return false
	}
	return field
}
