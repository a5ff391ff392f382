package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"paypal-relay/internal/config"
	"paypal-relay/internal/infra/api"
)

func adminTokenCmd(flags *rootFlags) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint a bearer token for GET /payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadStoreConfig(flags.configPath, flags.dev)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			auth := api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
			if auth == nil {
				return errors.New("admin.jwt_secret (ADMIN_JWT_SECRET) is not set")
			}
			tok, err := auth.Mint(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	return cmd
}
