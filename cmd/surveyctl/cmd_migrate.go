package main

import (
	"errors"
	"fmt"
	"strconv"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/survey-api/pkg/database"
)

// migrateCmd - родительская команда для миграций
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
	Long: `Apply or repair golang-migrate migrations.

Available subcommands:
  up      - apply all pending migrations
  force   - set the version and clear the dirty flag
  version - print the current version`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		return database.MigrateDB(e.db, e.cfg.Database.MigrationsPath, e.log)
	},
}

// migrateForceCmd нужен после упавшей миграции: migrate помечает базу как dirty
// и отказывается применять следующие версии до ручного исправления.
var migrateForceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Force the migration version and clear the dirty state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}

		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		m, err := database.NewMigrator(e.db, e.cfg.Database.MigrationsPath)
		if err != nil {
			return err
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("failed to force version %d: %w", version, err)
		}
		e.log.Info("Migration version forced, dirty state cleared", zap.Int("version", version))
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current migration version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		m, err := database.NewMigrator(e.db, e.cfg.Database.MigrationsPath)
		if err != nil {
			return err
		}
		version, dirty, err := m.Version()
		if errors.Is(err, migrateV4.ErrNilVersion) {
			fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
		return nil
	},
}
