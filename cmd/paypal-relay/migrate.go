package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"paypal-relay/internal/config"
	pg "paypal-relay/internal/infra/db/postgres"
)

func migrateCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the PostgreSQL schema",
		Long: `Manage the payment_records schema.

serve applies pending migrations on startup; these commands exist for
deployments that run schema changes as a separate step.

Examples:
  paypal-relay migrate up
  paypal-relay migrate down --steps 1`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := postgresConfig(flags)
			if err != nil {
				return err
			}
			if err := pg.MigrateUp(cfg.Database.URL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := postgresConfig(flags)
			if err != nil {
				return err
			}
			if err := pg.MigrateDown(cfg.Database.URL, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", max(steps, 1))
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func postgresConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.LoadStoreConfig(flags.configPath, flags.dev)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Store.Driver != "postgres" {
		return nil, errors.New("migrations only apply to the postgres store driver")
	}
	return cfg, nil
}
