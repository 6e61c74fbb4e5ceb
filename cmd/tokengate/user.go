package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/rhuss/tokengate/pkg/auth"
	"github.com/rhuss/tokengate/pkg/auth/credential"
	"github.com/rhuss/tokengate/pkg/server"
	"github.com/rhuss/tokengate/pkg/storage"
)

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users in the configured store",
	}
	cmd.AddCommand(newUserAddCmd(opts))
	return cmd
}

func newUserAddCmd(opts *rootOptions) *cobra.Command {
	var (
		username string
		roles    []string
		cost     int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user with a password read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return errors.New("--username flag is required")
			}
			parsed := auth.ParseRoles(roles)
			if len(parsed) == 0 {
				return errors.New("at least one known role must be specified using --roles")
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.Type == "memory" {
				return errors.New("user add needs a persistent store: set storage.type to postgres or redis")
			}

			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			h, err := credential.HashPassword(password, cost)
			if err != nil {
				return err
			}

			store, err := server.OpenStore(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			err = store.CreateUser(cmd.Context(), &storage.User{
				Username:     username,
				PasswordHash: h,
				Roles:        auth.RoleNames(parsed),
			})
			if errors.Is(err, storage.ErrConflict) {
				return fmt.Errorf("user %q already exists", username)
			}
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %s with roles %v\n", username, auth.RoleNames(parsed))
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	cmd.Flags().StringSliceVar(&roles, "roles", []string{"USER"}, "Comma-separated roles (USER, ADMIN)")
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost factor")
	return cmd
}
