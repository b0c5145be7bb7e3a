package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rowpane/rowpane/internal/config"
)

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Print the JSON schema of the config file",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(config.Schema(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}
