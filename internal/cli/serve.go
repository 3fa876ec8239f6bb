package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/drawbridge/internal/server"
)

// serveCommand creates the serve command exposing the conversion API over
// HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion HTTP API",
		Long:  `Serve starts an HTTP server exposing POST /api/v1/convert, POST /api/v1/batch, GET /api/v1/types, and GET /healthz. The server shuts down gracefully on SIGINT.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, pool, err := c.newRunner(cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			defer runner.Cache.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(runner, c.Logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			c.Logger.Info("serving conversion API", "addr", addr, "renderer", cfg.RendererURL)

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
