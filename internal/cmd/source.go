package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rowpane/rowpane/internal/config"
	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/source/jsonl"
	"github.com/rowpane/rowpane/internal/source/memory"
	"github.com/rowpane/rowpane/internal/source/sqlite"
)

// openSource opens path with the source implementation its extension calls
// for, honoring the --table and --follow flags where they apply.
func openSource(ctx context.Context, cmd *cobra.Command, cfg *config.Config, path string) (grid.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return openCSV(path)
	case ".db", ".sqlite", ".sqlite3":
		table, _ := cmd.Flags().GetString("table")
		return openSQLite(ctx, path, table)
	case ".jsonl", ".ndjson":
		follow, _ := cmd.Flags().GetBool("follow")
		return openJSONL(cfg, path, follow)
	default:
		return nil, fmt.Errorf("unsupported file type: %q (want .csv, .jsonl, .ndjson, .db, .sqlite or .sqlite3)", filepath.Ext(path))
	}
}

func openCSV(path string) (grid.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	src, err := memory.FromCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return src, nil
}

// openSQLite binds to table, or to the database's only table when none is
// given. A multi-table database needs an explicit --table.
func openSQLite(ctx context.Context, path, table string) (grid.Source, error) {
	if table == "" {
		tables, err := sqlite.Tables(ctx, path)
		if err != nil {
			return nil, err
		}
		switch len(tables) {
		case 0:
			return nil, fmt.Errorf("%s has no tables", path)
		case 1:
			table = tables[0]
		default:
			return nil, fmt.Errorf("%s has %d tables (%s); pick one with --table",
				path, len(tables), strings.Join(tables, ", "))
		}
	}
	return sqlite.Open(ctx, path, table)
}

func openJSONL(cfg *config.Config, path string, follow bool) (grid.Source, error) {
	opts := []jsonl.Option{jsonl.WithSampleRows(cfg.Options.SampleRows)}
	if follow || cfg.Options.Follow {
		opts = append(opts, jsonl.WithFollow())
	}
	return jsonl.Open(path, opts...)
}
