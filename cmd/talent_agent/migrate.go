package main

import (
	"fmt"

	"github.com/jonathan/talent-reconciler/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrations(cmd, func(database *db.DB) error {
			results, err := database.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			printMigrations(cmd, results)
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrations(cmd, func(database *db.DB) error {
			results, err := database.MigrateDown(cmd.Context())
			if err != nil {
				return err
			}
			printMigrations(cmd, results)
			return nil
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrations(cmd, func(database *db.DB) error {
			version, err := database.MigrationVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", version)
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func withMigrations(cmd *cobra.Command, fn func(database *db.DB) error) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	// migrations are explicit here
	cfg.Database.AutoMigrate = false
	database, err := openDatabase(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(database)
}

func printMigrations(cmd *cobra.Command, results []db.MigrationResult) {
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no migrations to run")
		return
	}
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d %s\n", r.Direction, r.Version, r.Source)
	}
}
