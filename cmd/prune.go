package cmd

import (
	"fmt"
	"time"

	"lms/services/catalog"
	"lms/services/progress"
	"lms/utils"

	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune-notifications",
	Short: "Delete read notifications older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		days, _ := cmd.Flags().GetInt("days")
		if days < 1 {
			days = cfg.NotificationRetentionDays
		}

		svc := progress.NewService(progress.NewGormStore(db), catalog.NewRepository(db))
		deleted, err := utils.PruneNotifications(cmd.Context(), svc, days, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d notifications\n", deleted)
		return nil
	},
}

func init() {
	pruneCmd.Flags().Int("days", 0, "Retention window in days (defaults to NOTIFICATION_RETENTION_DAYS)")
}
