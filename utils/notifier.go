package utils

import (
	"context"
	"log"
	"sync"
	"time"

	"lms/models"
	"lms/models/course"
	"lms/services/progress"
)

type UserFinder interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
}

// NotificationDispatcher fans committed notifications out to email and webhook.
// Either channel may be nil. Email goes out for new enrollments and issued
// certificates only. Failures are logged and never retried here.
type NotificationDispatcher struct {
	mailer  *Mailer
	webhook *WebhookClient
	users   UserFinder
	wg      sync.WaitGroup
}

func NewNotificationDispatcher(mailer *Mailer, webhook *WebhookClient, users UserFinder) *NotificationDispatcher {
	return &NotificationDispatcher{mailer: mailer, webhook: webhook, users: users}
}

// Dispatch delivers in the background.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, del progress.Delivery) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		d.Deliver(ctx, del)
	}()
}

// Wait blocks until background deliveries finish.
func (d *NotificationDispatcher) Wait() {
	d.wg.Wait()
}

func (d *NotificationDispatcher) Deliver(ctx context.Context, del progress.Delivery) {
	if d.webhook != nil {
		payload := WebhookPayload{
			Event:         "notifications.created",
			UserID:        del.UserID,
			Notifications: del.Notifications,
			Certificate:   del.Certificate,
			SentAt:        time.Now(),
		}
		if del.Course != nil {
			payload.CourseID = del.Course.ID
		}
		if err := d.webhook.Post(ctx, payload); err != nil {
			log.Printf("[NOTIFY] Webhook delivery for user %d failed: %v", del.UserID, err)
		}
	}

	if d.mailer == nil || d.users == nil {
		return
	}
	enrolled := hasType(del.Notifications, course.NotificationCourseEnrolled)
	if !enrolled && del.Certificate == nil {
		return
	}

	user, err := d.users.FindUserByID(ctx, del.UserID)
	if err != nil {
		log.Printf("[NOTIFY] Could not load user %d for email: %v", del.UserID, err)
		return
	}
	courseTitle := "your course"
	if del.Course != nil {
		courseTitle = del.Course.Title
	}

	if enrolled {
		if err := d.mailer.SendEnrollmentEmail(ctx, user.Email, user.Name, courseTitle); err != nil {
			log.Printf("[NOTIFY] Enrollment email to %s failed: %v", user.Email, err)
		}
	}
	if del.Certificate != nil {
		if err := d.mailer.SendCertificateEmail(ctx, user.Email, user.Name, courseTitle, del.Certificate.CertificateNumber); err != nil {
			log.Printf("[NOTIFY] Certificate email to %s failed: %v", user.Email, err)
		}
	}
}

func hasType(notes []course.Notification, t course.NotificationType) bool {
	for _, n := range notes {
		if n.Type == t {
			return true
		}
	}
	return false
}
