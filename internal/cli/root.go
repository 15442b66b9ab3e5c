package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/sololev-backend/internal/app"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

type rootOptions struct {
	configPath string
}

// NewRootCommand builds the sololev command tree. Running it without a
// subcommand serves the API.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "sololev",
		Short:         "SoloLev habit tracker API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("SOLOLEV_CONFIG"), "path to a YAML config file")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sololev:", err)
		return 1
	}
	return 0
}

func loadConfigAndLogger(opts *rootOptions) (app.Config, *logger.Logger, error) {
	cfg, err := app.LoadConfigFile(opts.configPath)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Server.LogMode)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
