package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurou927/pg-schema-explorer/internal/catalog"
)

var dbnameCmd = &cobra.Command{
	Use:   "dbname <descriptor>",
	Short: "Print the database name a connection descriptor refers to",
	Args:  cobra.ExactArgs(1),
	// No configuration or connection is needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), catalog.DatabaseName(args[0]))
		return err
	},
}

func init() {
	rootCmd.AddCommand(dbnameCmd)
}
