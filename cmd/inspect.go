package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurou927/pg-schema-explorer/internal/output"
)

var (
	inspectFormat string
	inspectOutput string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the full schema model",
	Long:  `Introspects tables, views and routines and writes the model as YAML, JSON or a SQLite snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		d, err := s.introspect(ctx)
		if err != nil {
			return err
		}
		doc := output.BuildDocument(d, cfg.ExcludeSet())

		outPath := inspectOutput
		if outPath == "" {
			outPath = cfg.Output
		}

		if inspectFormat == "sqlite" {
			if outPath == "" || outPath == "-" {
				return fmt.Errorf("--format sqlite requires --output")
			}
			return output.WriteSQLite(ctx, outPath, doc)
		}

		w, err := openOutput(outPath)
		if err != nil {
			return err
		}
		defer w.Close()

		switch inspectFormat {
		case "yaml":
			return output.WriteYAML(w, doc)
		case "json":
			return output.WriteJSON(w, doc)
		default:
			return fmt.Errorf("unknown format: %s (supported: yaml, json, sqlite)", inspectFormat)
		}
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "yaml", "output format: yaml, json or sqlite")
	inspectCmd.Flags().StringVar(&inspectOutput, "output", "", "output file path (overrides config)")
	rootCmd.AddCommand(inspectCmd)
}
