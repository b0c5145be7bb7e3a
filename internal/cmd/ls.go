package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rowpane/rowpane/internal/config"
	"github.com/rowpane/rowpane/internal/datasets"
	"github.com/rowpane/rowpane/internal/home"
)

var lsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List datasets under a directory and the shared data dir",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		if len(args) > 0 {
			if dir, err = filepath.Abs(args[0]); err != nil {
				return err
			}
		}

		debug, _ := cmd.Flags().GetBool("debug")
		cfg, err := config.Load(dir, debug)
		if err != nil {
			return err
		}
		found, err := datasets.List(cfg)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No datasets found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, d := range found {
			size := "?"
			if info, err := os.Stat(d.Path); err == nil {
				size = humanize.Bytes(uint64(info.Size()))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, size, home.Short(d.Path))
		}
		return w.Flush()
	},
}
