package main

import (
	"github.com/ds124wfegd/pagestudio/internal/appServer"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the image processor service",
		Long: `Starts the HTTP processor that edit sessions talk to.

Routes: POST /process_image, POST /upload, GET /templates, GET /health.`,
		Example: `  # Start on the configured port
  pagestudio serve

  # Start on a custom port with the redis result cache
  PAGESTUDIO_CACHE_ENABLED=true pagestudio serve --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Server.Port = port
			}
			return appServer.Serve(cmd.Context(), a.cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on")

	return cmd
}
