package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hurou927/pg-schema-explorer/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the schema model over HTTP",
	Long:  `Starts an HTTP server exposing tables, views, routines and the dependency graph under /api/v1. Every request reads the catalog afresh.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}
		srv := server.New(s.provider, server.Options{
			Addr:             addr,
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			Descriptor:       cfg.Descriptor(),
			IncludeFunctions: cfg.IncludeFunctions,
			Exclude:          cfg.ExcludeSet(),
		})

		errCh := make(chan error, 1)
		go func() {
			log.Printf("Server listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case <-quit:
		}

		log.Println("Shutting down server gracefully ...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Println("Server exiting")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config, default :8080)")
	rootCmd.AddCommand(serveCmd)
}
