package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Gonosen60/gestion-conges-app/api"
	"github.com/Gonosen60/gestion-conges-app/app"
)

func newServeCmd(opts *options) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(cmd *cobra.Command, args []string, a *app.App) error {
			if port == "" {
				port = a.Config.Port
			}
			handler := api.NewHandler(a.Service, a.Holidays, a.Breaks, a.Defaults, a.Logger)
			router := api.NewRouter(handler, a.Config.CORSOrigins)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return api.Serve(ctx, ":"+port, router, a.Logger)
		}),
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port (overrides PORT)")
	return cmd
}
