package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/hurou927/pg-schema-explorer/internal/catalog"
	"github.com/hurou927/pg-schema-explorer/internal/config"
	"github.com/hurou927/pg-schema-explorer/internal/db"
	"github.com/hurou927/pg-schema-explorer/internal/schema"
)

var (
	cfgPath string
	envFile string
	dsnFlag string
	schemas []string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pgse",
	Short: "Explore the schema of a PostgreSQL database",
	Long: `pgse reads the PostgreSQL system catalogs and builds a portable model of
tables, columns, indexes, keys, views and routines. The model can be rendered as
YAML, JSON or a SQLite snapshot, analyzed as an FK dependency graph, or served
over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnv(envFile); err != nil {
			return err
		}
		var err error
		cfg, err = config.Read(cfgPath)
		if err != nil {
			return err
		}
		if dsnFlag != "" {
			cfg.ConnectionString = dsnFlag
		}
		if len(schemas) > 0 {
			cfg.Schemas = schemas
		}
		return cfg.Finish()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with PG* variables (ignored if missing)")
	rootCmd.PersistentFlags().StringVar(&dsnFlag, "dsn", "", "connection string (overrides config)")
	rootCmd.PersistentFlags().StringSliceVar(&schemas, "schema", nil, "restrict to these schemas (default: all non-system schemas)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log skipped references and progress to stderr")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session is an open connection plus the provider reading through it.
type session struct {
	close    func()
	provider *catalog.Provider
}

func connect(ctx context.Context) (*session, error) {
	pool, err := db.NewPool(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	p := catalog.New(db.NewSource(pool), catalog.Options{
		Schemas:    cfg.Schemas,
		StrictKeys: cfg.StrictKeys,
		Logger:     logger(),
	})
	return &session{close: pool.Close, provider: p}, nil
}

func logger() *log.Logger {
	if !verbose {
		return nil
	}
	return log.New(os.Stderr, "pgse: ", log.LstdFlags)
}

func (s *session) newDatabase() *schema.Database {
	d := schema.NewDatabase(s.provider.DatabaseName(cfg.Descriptor()))
	d.IncludeFunctions = cfg.IncludeFunctions
	return d
}

// introspect builds the full model.
func (s *session) introspect(ctx context.Context) (*schema.Database, error) {
	d := s.newDatabase()
	if err := catalog.Introspect(ctx, s.provider, d); err != nil {
		return nil, fmt.Errorf("introspecting schema: %w", err)
	}
	if verbose {
		log.Printf("introspected %s: %d tables, %d views, %d routines",
			d.Name, len(d.Tables), len(d.Views), len(d.Commands))
	}
	return d, nil
}

// openOutput returns stdout for "" or "-", otherwise a created file.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
