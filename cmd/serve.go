package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/gc30/certify/internal/handlers"
	"github.com/gc30/certify/internal/router"
)

func newServeCmd(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the intake and lookup web service",
		Long: `Starts the certify HTTP service.

Customers upload their autograph photos to /upload and receive a tracking code;
/search returns the stored request for a code. Uploaded images are served
from /uploads and the client UI from the configured public directory.`,
		Example: `  # Start server on the configured address (default :8081)
  certify serve

  # Start server on a custom address
  certify serve --bind 127.0.0.1:3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			addr := a.cfg.Server.Bind
			if bind != "" {
				addr = bind
			}

			handler := handlers.New(a.service, a.area, a.cfg.Server.PublicDir)
			server := &http.Server{
				Addr:              addr,
				Handler:           router.New(handler),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Certify service available",
					"addr", addr,
					"store", a.cfg.Storage.Path,
					"driver", a.cfg.Storage.Driver,
					"uploads", a.cfg.Storage.UploadsDir,
					"mail", a.cfg.MailConfigured())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&bind, "bind", "b", "", "Address to listen on (overrides server.bind)")

	return cmd
}
