package cmd

import (
	"log"

	"lms/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cmd.Flags().Set("migrate", "false"); err != nil {
			return err
		}
		_, db, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		if err := database.RunMigrations(db); err != nil {
			return err
		}
		log.Println("[DB] Migrations complete")
		return nil
	},
}
