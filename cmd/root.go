package cmd

import (
	"lms/config"
	"lms/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "lms",
	Short: "Course progress and quiz scoring service",
	Long:  "lms tracks lesson completion, course progress milestones, quiz attempts and certificates.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("migrate", true, "Run schema migrations on startup")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(tokenCmd)
}

// openDatabase loads configuration and connects, migrating unless --migrate=false.
func openDatabase(cmd *cobra.Command) (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := database.RunMigrations(db); err != nil {
			return nil, nil, err
		}
	}
	return cfg, db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
