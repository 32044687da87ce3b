package course

import "time"

// NotificationType is the fixed set of in-app notification kinds.
type NotificationType string

const (
	NotificationCourseEnrolled  NotificationType = "course_enrolled"
	NotificationLessonCompleted NotificationType = "lesson_completed"
	NotificationQuizPassed      NotificationType = "quiz_passed"
	NotificationQuizFailed      NotificationType = "quiz_failed"
	NotificationCourseCompleted NotificationType = "course_completed"
	NotificationProgress25      NotificationType = "progress_25"
	NotificationProgress50      NotificationType = "progress_50"
	NotificationProgress75      NotificationType = "progress_75"
)

// Notification is an in-app message shown on the user's dashboard
type Notification struct {
	ID        uint             `json:"id" gorm:"primarykey"`
	UserID    uint             `json:"user_id" gorm:"index;not null"`
	Type      NotificationType `json:"type" gorm:"size:32;not null"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      string           `json:"link"`
	IsRead    bool             `json:"is_read" gorm:"default:false;index"`
	CreatedAt time.Time        `json:"created_at" gorm:"index"`
}
