package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/canvaid/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port    int
		origins []string
		apiURL  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("allowed-origins") {
				cfg.Server.AllowedOrigins = origins
			}

			// The data directory is created on first run (like `mkdir -p`).
			if dir := filepath.Dir(cfg.Database.Path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("creating database directory: %w", err)
				}
			}

			srv, err := server.New(server.Config{
				Port:           cfg.Server.Port,
				DBPath:         cfg.Database.Path,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				APIURL:         apiURL,
			}, a.logger)
			if err != nil {
				return err
			}
			// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
			return srv.Start()
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port")
	cmd.Flags().StringSliceVar(&origins, "allowed-origins", nil, "browser origins allowed to call the API")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL used by the canvas page (default same origin)")
	return cmd
}
