package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"workforce/internal/platform/config"
	"workforce/internal/platform/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "workforce",
		Short:         "Employee and project assignment service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd())
	return cmd
}

// bootstrap loads configuration and builds the process logger shared by every subcommand.
func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.Environment)
	if err != nil {
		return config.Config{}, nil, err
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}
