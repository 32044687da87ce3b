package utils

import (
	"context"
	"log"
	"time"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
)

type NotificationPruner interface {
	PruneNotifications(ctx context.Context, before time.Time) (int64, error)
}

// InitializeRetentionScheduler deletes read notifications older than the retention window on spec.
func InitializeRetentionScheduler(pruner NotificationPruner, spec string, retentionDays int) (*cron.Cron, error) {
	log.Println("[RETENTION-SCHEDULER] Initializing notification retention scheduler...")

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		log.Println("[RETENTION-SCHEDULER] Running notification cleanup...")
		if _, err := PruneNotifications(context.Background(), pruner, retentionDays, time.Now()); err != nil {
			log.Printf("[RETENTION-SCHEDULER] Error pruning notifications: %v", err)
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Printf("[RETENTION-SCHEDULER] Retention scheduler started - runs at %q, keeps %d days", spec, retentionDays)
	return c, nil
}

// RetentionCutoff is midnight (local to at) retentionDays before at.
func RetentionCutoff(at time.Time, retentionDays int) time.Time {
	return now.With(at).BeginningOfDay().AddDate(0, 0, -retentionDays)
}

func PruneNotifications(ctx context.Context, pruner NotificationPruner, retentionDays int, at time.Time) (int64, error) {
	cutoff := RetentionCutoff(at, retentionDays)
	deleted, err := pruner.PruneNotifications(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Printf("[RETENTION-SCHEDULER] Deleted %d read notifications created before %s", deleted, cutoff.Format(time.RFC3339))
	}
	return deleted, nil
}
