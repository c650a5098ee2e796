package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DevHeauk/han-parse/internal/web"
)

// NewServeCommand builds `hanparse serve`.
func NewServeCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the table editing web API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := web.DefaultConfig()
			if configPath != "" {
				var err error
				cfg, err = web.LoadConfig(configPath)
				if err != nil {
					return err
				}
			}

			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			srv, err := web.NewServer(cfg, log)
			if err != nil {
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	return cmd
}
