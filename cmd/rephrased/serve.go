package main

import (
	"net"

	"github.com/spf13/cobra"

	"github.com/hupe1980/rephrase/server"
)

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Server.Port = port
			}

			p, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = p.close() }()

			srv := server.New(p.coord, p.fixtures, p.history, func(o *server.Options) {
				o.Logger = a.logger
				o.AllowedOrigins = a.cfg.Server.CORSOrigins
			})
			return srv.Run(cmd.Context(), net.JoinHostPort("", a.cfg.Server.Port))
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides config)")
	return cmd
}
