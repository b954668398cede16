package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vsinha/capplan/pkg/interfaces/httpapi"
)

func (a *App) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning API over HTTP",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, rt *runtime, _ []string) error {
			if addr == "" {
				addr = rt.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			router := httpapi.NewRouter(rt.planner, rt.metrics.Handler(), rt.logger)
			return httpapi.NewServer(addr, router, rt.logger).Run(ctx)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
