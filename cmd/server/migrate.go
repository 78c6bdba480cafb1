package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"workforce/internal/platform/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		migrateSubcommand("up", "Apply all pending migrations", func(cmd *cobra.Command, m *db.Migrator) error {
			return m.Up(cmd.Context())
		}),
		migrateSubcommand("down", "Roll back the latest migration", func(cmd *cobra.Command, m *db.Migrator) error {
			return m.Down(cmd.Context())
		}),
		migrateSubcommand("status", "List migrations and whether they are applied", func(cmd *cobra.Command, m *db.Migrator) error {
			statuses, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tAPPLIED\tFILE")
			for _, s := range statuses {
				fmt.Fprintf(w, "%d\t%t\t%s\n", s.Version, s.Applied, s.Path)
			}
			return w.Flush()
		}),
	)
	return cmd
}

func migrateSubcommand(use, short string, run func(*cobra.Command, *db.Migrator) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			pool, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			migrator, err := db.NewMigrator(pool, logger)
			if err != nil {
				return err
			}
			defer migrator.Close()
			return run(cmd, migrator)
		},
	}
}
