package cmd

import (
	"fmt"

	"github.com/jon4hz/eduquest/internal/engine"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Run database migrations to set up or update the database schema and create the bootstrap admin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db := loadConfigAndDB()
		defer db.Close() //nolint: errcheck

		e, err := engine.New(cmd.Context(), cfg, db)
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}
		defer e.Close() //nolint: errcheck

		if err := e.EnsureBootstrapAdmin(cmd.Context()); err != nil {
			return fmt.Errorf("failed to create bootstrap admin: %w", err)
		}

		fmt.Println("Database migrations completed successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
