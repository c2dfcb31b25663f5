package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"levercalc/internal/api"
	"levercalc/internal/logging"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator as a JSON API",
		Long: `Start an HTTP server exposing the calculator.

Endpoints:
  GET  /healthz        liveness check
  POST /v1/calculate   compute one trade; fee_rate and exchange_rate default to the settings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			logger := logging.WithOperation(app.Logger, "serve")

			if !cmd.Flags().Changed("addr") {
				addr = app.Config.Server.Addr
			}

			gin.SetMode(gin.ReleaseMode)
			handler := api.NewHandler(api.Defaults{
				FeeRate:      app.Config.FeeRate,
				ExchangeRate: app.Config.ExchangeRate,
			}, app.Logger)
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(handler, app.Logger),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", addr).Msg("API server listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()
			output.Info("Listening on http://%s (Ctrl+C to stop)", addr)

			select {
			case err, ok := <-errCh:
				if ok {
					output.Error("Server failed: %v", err)
					return reported(err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info().Msg("Shutting down API server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				output.Error("Shutdown failed: %v", err)
				return reported(err)
			}
			output.Success("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from settings, 127.0.0.1:8080)")
	return cmd
}
