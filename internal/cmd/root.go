// Package cmd wires the command line interface: browsing a dataset in the
// terminal UI, exporting rows headlessly, listing datasets, and printing
// the config schema.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/fang"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/rowpane/rowpane/internal/config"
	"github.com/rowpane/rowpane/internal/datasets"
	"github.com/rowpane/rowpane/internal/grid/engine"
	"github.com/rowpane/rowpane/internal/log"
	"github.com/rowpane/rowpane/internal/ui"
	"github.com/rowpane/rowpane/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "rowpane [file]",
	Short: "Browse huge tabular datasets in your terminal",
	Long: heredoc.Doc(`
		Rowpane is a terminal browser for tabular data. It opens CSV, JSONL
		and SQLite files of any size, loading only the rows on screen, and
		lets you sort, select and copy without ever materializing the whole
		dataset.

		The file may be a path or a dataset ID as printed by 'rowpane ls'.
		With no argument, the single dataset found under the current
		directory is opened.
	`),
	Example: heredoc.Doc(`
		# Browse a CSV file
		rowpane people.csv

		# Follow a growing JSONL log
		rowpane --follow logs/app.jsonl

		# Browse one table of a SQLite database
		rowpane --table orders shop.db
	`),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTerminal(os.Stdout) {
			return errors.New("rowpane needs an interactive terminal; use 'rowpane export' in scripts")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := log.Setup(cfg.LogPath(), cfg.Options.Debug); err != nil {
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
		eng := engine.ForSource(ctx, src,
			engine.WithOverscan(cfg.Options.Overscan),
			engine.WithPadding(cfg.Options.Padding),
		)
		defer eng.Close() //nolint:errcheck

		slog.Info("browsing dataset", "path", path, "rows", eng.NumRows(), "columns", len(eng.Columns()))

		model := ui.New(ctx, eng, filepath.Base(path), cfg)
		_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Write debug logs")
	rootCmd.Flags().BoolP("follow", "f", false, "Keep reading a growing JSONL file, like tail -f")
	rootCmd.Flags().StringP("table", "t", "", "Table to open in a SQLite database (default: the only table)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(schemaCmd)
}

// Execute runs the CLI.
func Execute() error {
	defer log.RecoverPanic("main", nil)
	return fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return config.Load(cwd, debug)
}

// resolveDataset turns the optional positional argument into a file path.
// Without an argument it opens the one dataset discoverable from here, and
// refuses to guess when there are several.
func resolveDataset(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		path, ok := datasets.Resolve(cfg, args[0])
		if !ok {
			return "", fmt.Errorf("no such file or dataset: %q (see 'rowpane ls')", args[0])
		}
		return path, nil
	}

	found, err := datasets.List(cfg)
	if err != nil {
		return "", err
	}
	switch len(found) {
	case 0:
		return "", errors.New("no datasets found here; pass a file to open")
	case 1:
		return found[0].Path, nil
	default:
		return "", fmt.Errorf("found %d datasets; pick one (see 'rowpane ls')", len(found))
	}
}
