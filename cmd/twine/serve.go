// HTTP server command.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/twine/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the linking API over HTTP",
	Long: `Serve exposes link lifecycle, migration, audit, and suggestion
operations as a JSON API. The server shuts down cleanly on SIGINT/SIGTERM,
draining in-flight requests and buffered audit writes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("addr") && loadedConfig.Server.ListenAddr != "" {
			serveAddr = loadedConfig.Server.ListenAddr
		}
		router := httpapi.NewRouter(httpapi.Deps{
			Manager:   engine.Manager,
			Migrator:  engine.Migrator,
			Suggester: engine.Suggest,
		})

		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			slog.Info("twine API listening", "addr", serveAddr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8600", "listen address")
}
