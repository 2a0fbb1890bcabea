package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dealdocs-backend/internal/shared/storage/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations, or show their status with --status",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetBool("status")
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		if a.DB == nil {
			return fmt.Errorf("DATABASE_URL is required for migrate")
		}
		if status {
			return db.MigrationStatus(cmd.Context(), a.DB)
		}
		if err := db.RunMigrations(cmd.Context(), a.DB); err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(cmd.OutOrStdout(), "%s migrations applied\n", green("✓"))
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("status", false, "Show applied and pending migrations")
	rootCmd.AddCommand(migrateCmd)
}
