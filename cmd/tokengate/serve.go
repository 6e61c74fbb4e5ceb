package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rhuss/tokengate/pkg/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the tokengate server",
		Long:  `Opens the user store, seeds the configured users and serves the login endpoint and the protected API.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			app, err := server.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer app.Close()

			return app.Run(cmd.Context())
		},
	}
}
