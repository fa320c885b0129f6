package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/linhsuan/shortstack/config"
	"github.com/linhsuan/shortstack/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Connect to the configured database and apply the schema. Safe to run
repeatedly; existing tables are left untouched.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	// Connect runs migrations as part of setup
	_, closeDB, err := database.Connect(cmd.Context(), cfg.Database)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	closeDB()

	slog.Info("database migration complete", "type", cfg.Database.Type)
	return nil
}
