package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"loan-engine/internal/infrastructure/database/postgres"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the embedded database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(postgres.MigrateUp), string(postgres.MigrateDown)},
		RunE:      runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	direction := postgres.MigrateUp
	if len(args) == 1 {
		direction = postgres.MigrationDirection(args[0])
	}

	cfg, logger, err := loadConfigAndLogger(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(pool, direction, logger); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", direction)
	return nil
}
