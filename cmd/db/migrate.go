package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/config"
	"github/chapool/wallet-txengine/internal/util/command"
	"github/chapool/wallet-txengine/internal/wallet/store"
)

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Executes all migrations which are not yet applied.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), store.Migrate)
		},
	}
}

func newRollback() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Reverts the most recently applied migration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), store.MigrateDown)
		},
	}
}

func runMigrate(ctx context.Context, migrate func(ctx context.Context, db *sql.DB, driver string) (int, error)) error {
	cfg := config.DefaultServiceConfigFromEnv()
	command.ConfigureLogger(cfg.Logger)

	if cfg.Database.Driver == api.DriverMemory {
		return errors.New("memory store has no migrations")
	}

	dbCfg := cfg.Database
	dbCfg.AutoMigrate = false

	db, err := api.NewDB(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := migrate(ctx, db, dbCfg.Driver)
	if err != nil {
		return err
	}

	log.Info().Int("count", n).Str("driver", dbCfg.Driver).Msg("Migrations done")
	fmt.Printf("Applied %d migrations.\n", n)

	return nil
}
