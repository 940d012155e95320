package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/atlas-core/internal/adapters/driven/postgres"
	"github.com/custodia-labs/atlas-core/internal/config"
)

func migrateCMD(load func() (*config.Config, error)) *cobra.Command {
	var direction string
	var steps int

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("database.url is required")
			}
			if err := postgres.Migrate(cfg.Database.URL, direction, steps); err != nil {
				return err
			}
			v, dirty, err := postgres.MigrationVersion(cfg.Database.URL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", v, dirty)
			return nil
		},
	}
	migrate.Flags().StringVar(&direction, "direction", postgres.MigrateUp, "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")

	return migrate
}
