package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Freeeeeet/slot_swapper/internal/app"
	"github.com/Freeeeeet/slot_swapper/internal/config"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(m *app.Migrator) error {
					return m.Run(cmd.Context())
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the status of every migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(m *app.Migrator) error {
					return m.Status(cmd.Context())
				})
			},
		},
	)
	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(m *app.Migrator) error) error {
	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("migrations require STORE=%s", config.StorePostgres)
	}

	pool, err := openPool(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return fn(migrator)
}
