package cmd

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ox-ai/oxdb-lite/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API over the database root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}

			listenAddr := cfg.Server.Addr
			if addr != "" {
				listenAddr = addr
			}

			srv := server.New(db, cfg.Server.APIKey, slog.Default())
			fmt.Fprintf(cmd.OutOrStdout(), "oxdb listening on %s\n", listenAddr)
			return http.ListenAndServe(listenAddr, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides the config's server.addr)")
	return cmd
}
