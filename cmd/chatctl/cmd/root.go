// Package cmd holds the chatctl commands.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gochat/internal/common"
	"gochat/internal/config"
	"gochat/internal/di"
	"gochat/internal/logger"
)

var (
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chatctl",
	Short: "Command line client for gochat",
	Long: `chatctl sends messages, searches and follows channels of a gochat organization.

Connection settings come from the environment (or a .env file): MYSQL_*, MONGO_*,
NOTIF_SERVICE_ADDR, MEDIA_BASE_URL and GOCHAT_TOKEN for the identity.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		if err := logger.Init(level, "console"); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openClient wires the full client stack. The caller must run the returned cleanup.
func openClient() (*di.Client, func(), error) {
	client, cleanup, err := di.InitializeClient()
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return client, cleanup, nil
}

// describe turns a core error into the hint a user acts on.
func describe(err error) error {
	switch common.Category(err) {
	case common.CategoryValidation:
		return fmt.Errorf("rejected, fix the input: %w", err)
	case common.CategoryTransient:
		return fmt.Errorf("temporary failure, safe to retry: %w", err)
	case common.CategoryPartial:
		return fmt.Errorf("message sent but incomplete: %w", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
