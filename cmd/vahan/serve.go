package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vahanpulse/internal/app"
	"vahanpulse/internal/infrastructure"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		Long: `Start the HTTP server with the dashboard API.

The server provides:
  - /api/dashboard/* metric and ranking endpoints
  - /api/dataset/reload to rerun the pipeline
  - /ws pipeline progress events
  - /metrics in Prometheus format

Examples:
  vahan serve
  vahan serve --port 3000
  vahan serve --host 0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			logger, err := infrastructure.InitializeLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer infrastructure.CloseLogFile()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.NewApplication(ctx, cfg, logger)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s listening on http://%s\n", app.AppName, cfg.Server.Addr())
			return application.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host to bind to (default: server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default: server.port)")
	return cmd
}
