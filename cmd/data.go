package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hurou927/pg-schema-explorer/internal/catalog"
	"github.com/hurou927/pg-schema-explorer/internal/graph"
	"github.com/hurou927/pg-schema-explorer/internal/output"
	"github.com/hurou927/pg-schema-explorer/internal/schema"
)

var (
	dataOutput string
	dataAll    bool
)

var dataCmd = &cobra.Command{
	Use:   "data [[schema.]name ...]",
	Short: "Dump table or view contents in COPY format",
	Long: `Selects every row of the named tables or views and writes pg_dump-compatible
COPY blocks. With --all every table is dumped, parents before children.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !dataAll && len(args) == 0 {
			return fmt.Errorf("name at least one table or view, or pass --all")
		}
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

		jobs, err := planDump(d, cfg.ExcludeSet(), args, dataAll)
		if err != nil {
			return err
		}

		outPath := dataOutput
		if outPath == "" {
			outPath = cfg.Output
		}
		w, err := openOutput(outPath)
		if err != nil {
			return err
		}
		defer w.Close()

		cw := output.NewWriter(w)
		if err := cw.WriteHeader(); err != nil {
			return err
		}
		rows := 0
		for _, j := range jobs {
			dt, err := j.fetch(ctx, s.provider)
			if err != nil {
				return fmt.Errorf("reading %s: %w", j.target, err)
			}
			if err := cw.WriteData(j.target, dt); err != nil {
				return err
			}
			rows += len(dt.Rows)
			if verbose {
				log.Printf("%s: %d rows", j.target, len(dt.Rows))
			}
		}
		if err := cw.WriteFooter(); err != nil {
			return err
		}

		if outPath != "" && outPath != "-" {
			fmt.Fprintf(os.Stderr, "Wrote %d rows from %d relations to %s\n", rows, len(jobs), outPath)
		}
		return nil
	},
}

type dumpJob struct {
	target string
	fetch  func(context.Context, catalog.SchemaProvider) (*catalog.DataTable, error)
}

// planDump lists the relations to dump. With all set every table comes first
// in FK order, cycle members last. Named relations follow; each relation is
// queued once.
func planDump(d *schema.Database, exclude map[string]bool, names []string, all bool) ([]dumpJob, error) {
	var jobs []dumpJob
	queued := make(map[string]bool)
	add := func(j dumpJob) {
		if queued[j.target] {
			return
		}
		queued[j.target] = true
		jobs = append(jobs, j)
	}
	tableJob := func(t *schema.Table) dumpJob {
		return dumpJob{t.FullName(), func(ctx context.Context, p catalog.SchemaProvider) (*catalog.DataTable, error) {
			return p.TableData(ctx, t)
		}}
	}

	if all {
		g := graph.Build(d, exclude)
		res := graph.TopoSortAll(g)
		if res.HasCycle {
			log.Printf("circular FK dependencies among %v; relying on session_replication_role", g.Names(res.CycleTables))
		}
		order := make([]schema.TableRef, 0, len(res.Order)+len(res.CycleTables))
		order = append(order, res.Order...)
		order = append(order, res.CycleTables...)
		for _, ref := range order {
			add(tableJob(g.Table(ref)))
		}
	}
	for _, name := range names {
		schemaName, objName, ok := strings.Cut(name, ".")
		if !ok {
			schemaName, objName = "public", name
		}
		if t := d.Table(schemaName, objName); t != nil {
			add(tableJob(t))
			continue
		}
		if v := d.View(schemaName, objName); v != nil {
			add(dumpJob{v.FullName(), func(ctx context.Context, p catalog.SchemaProvider) (*catalog.DataTable, error) {
				return p.ViewData(ctx, v)
			}})
			continue
		}
		msg := fmt.Sprintf("table or view %q not found", name)
		if suggestions := d.Suggest(name, 5); len(suggestions) > 0 {
			msg += "; did you mean: " + strings.Join(suggestions, ", ")
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return jobs, nil
}

func init() {
	dataCmd.Flags().StringVar(&dataOutput, "output", "", "output file path (overrides config)")
	dataCmd.Flags().BoolVar(&dataAll, "all", false, "dump every table in FK dependency order")
	rootCmd.AddCommand(dataCmd)
}
