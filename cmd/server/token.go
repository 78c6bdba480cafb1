package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"workforce/internal/domain/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for API access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !auth.ValidRole(role) {
				return fmt.Errorf("role must be one of %v", auth.Roles)
			}
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			token, err := auth.GenerateToken(cfg.JWTSecret, auth.Claims{UserID: userID, RoleName: role}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "subject user id")
	cmd.Flags().StringVar(&role, "role", auth.RoleHR, "role claim (HR, Manager, Employee)")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
