package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rhuss/tokengate/pkg/config"
	"github.com/rhuss/tokengate/pkg/debug"
)

// rootOptions holds the persistent flags shared by all subcommands.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "tokengate",
		Short: "Stateless token authentication gate",
		Long: `tokengate issues signed bearer tokens for username/password logins and
checks those tokens, and the roles they carry, on every other request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Path to the config file (env: "+config.EnvConfig+")")

	cmd.AddCommand(
		newServeCmd(opts),
		newHashPasswordCmd(),
		newUserCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

// loadConfig loads the configuration and sets up logging from it.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

// readPassword reads a single line from r. The trailing newline is dropped,
// any other whitespace is kept.
func readPassword(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", errors.New("password is required on stdin")
	}
	password := strings.TrimSuffix(scanner.Text(), "\r")
	if password == "" {
		return "", errors.New("password is required on stdin")
	}
	return password, nil
}
