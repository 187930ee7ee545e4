package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hurou927/pg-schema-explorer/internal/graph"
)

var (
	analyzeFormat      string
	analyzeFailOnCycle bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze FK dependency graph and output structure",
	Long:  `Connects to the database, introspects the schema, builds an FK dependency graph, and outputs it in the specified format.`,
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

		g := graph.Build(d, cfg.ExcludeSet())

		switch analyzeFormat {
		case "mermaid":
			err = graph.WriteMermaid(os.Stdout, g)
		case "text":
			err = graph.WriteText(os.Stdout, g)
		default:
			return fmt.Errorf("unknown format: %s (supported: mermaid, text)", analyzeFormat)
		}
		if err != nil {
			return err
		}

		if analyzeFailOnCycle {
			return g.ValidateCycles(graph.TopoSortAll(g))
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "mermaid", "output format: mermaid or text")
	analyzeCmd.Flags().BoolVar(&analyzeFailOnCycle, "fail-on-cycle", false, "exit non-zero when FK dependencies are circular")
	rootCmd.AddCommand(analyzeCmd)
}
