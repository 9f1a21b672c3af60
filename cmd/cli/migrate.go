package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/importusers/import-service/internal/store"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres entity store tables",
	Long: `Connect to the database configured by DATABASE_URL or database.url and create
the tables of the entity store if they do not exist yet.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	pgCfg := *cfg
	pgCfg.Store.Type = store.TypePostgres

	_, closeStore, err := store.Open(cmd.Context(), &pgCfg, logger)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer closeStore()

	logger.Info().Msg("Entity store schema is up to date")
	return nil
}
