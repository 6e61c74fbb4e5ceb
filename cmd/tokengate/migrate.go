package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rhuss/tokengate/pkg/server"
	"github.com/rhuss/tokengate/pkg/storage/postgres"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.Type != "postgres" {
				return fmt.Errorf("migrate needs storage.type \"postgres\", got %q", cfg.Storage.Type)
			}

			pgCfg := server.PostgresConfig(cfg.Storage.Postgres)
			pgCfg.MigrateOnStart = false
			store, err := postgres.New(cmd.Context(), pgCfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
