package progress

import (
	"context"
	"time"

	"lms/models"
	"lms/models/course"
)

// Store is durable storage for per-user progress records.
type Store interface {
	// Transaction runs fn against a Store bound to one transaction. A non-nil
	// error from fn rolls every write back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error)
	// FindEnrollment returns ErrNotEnrolled when no row exists.
	FindEnrollment(ctx context.Context, userID, courseID uint) (*course.Enrollment, error)
	// LockEnrollment is FindEnrollment with a row lock held until the transaction ends.
	LockEnrollment(ctx context.Context, userID, courseID uint) (*course.Enrollment, error)
	// Enroll inserts an enrollment or bumps last_accessed_at on the existing one.
	Enroll(ctx context.Context, userID, courseID uint, now time.Time) (*course.Enrollment, bool, error)
	UpdateEnrollmentProgress(ctx context.Context, userID, courseID uint, u ProgressUpdate) error

	IsLessonCompleted(ctx context.Context, userID, lessonID uint) (bool, error)
	// RecordLessonCompletion reports false when the completion already existed.
	RecordLessonCompletion(ctx context.Context, userID uint, lesson *course.Lesson, now time.Time) (bool, error)
	CountCompletedLessons(ctx context.Context, userID, courseID uint) (int, error)
	CountTotalLessons(ctx context.Context, courseID uint) (int, error)
	ModuleLessons(ctx context.Context, userID, moduleID uint) ([]LessonState, error)

	CreateNotification(ctx context.Context, n *course.Notification) error
	ListNotifications(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]course.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID uint) error
	PruneReadNotifications(ctx context.Context, before time.Time) (int64, error)

	// CreateCertificate returns the existing certificate, and false, when one was already issued.
	CreateCertificate(ctx context.Context, userID, courseID uint, number string, now time.Time) (*course.Certificate, bool, error)
	ListCertificates(ctx context.Context, userID uint) ([]course.Certificate, error)

	// FindQuizByLesson returns ErrQuizNotFound when the lesson has no quiz.
	FindQuizByLesson(ctx context.Context, lessonID uint) (*course.Quiz, error)
	CountQuizAttempts(ctx context.Context, userID, quizID uint) (int, error)
	CreateQuizResult(ctx context.Context, r *course.QuizResult) error
	// LatestQuizResult returns ErrNoQuizAttempt when the user never submitted the quiz.
	LatestQuizResult(ctx context.Context, userID, quizID uint) (*course.QuizResult, error)

	InProgressEnrollments(ctx context.Context, userID uint, limit int) ([]course.Enrollment, error)
	RecentCompletions(ctx context.Context, userID uint, limit int) ([]course.LessonCompletion, error)
	RecentEnrollments(ctx context.Context, userID uint, limit int) ([]course.Enrollment, error)
	RecentQuizResults(ctx context.Context, userID uint, limit int) ([]course.QuizResult, error)
}

// Catalog is the read-only view of courses, lessons and users.
// Lookups of missing rows fail with catalog.ErrNotFound.
type Catalog interface {
	FindCourseByID(ctx context.Context, id uint) (*course.Course, error)
	FindModuleByID(ctx context.Context, id uint) (*course.Module, error)
	FindLessonByID(ctx context.Context, id uint) (*course.Lesson, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
}

// Dispatcher delivers committed notifications outside the database (email, webhooks).
// Implementations must not block the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, d Delivery)
}

// Delivery is everything committed by one workflow for one user.
type Delivery struct {
	UserID        uint
	Course        *course.Course
	Notifications []course.Notification
	Certificate   *course.Certificate
}

type ProgressUpdate struct {
	Progress    float64
	Status      course.EnrollmentStatus
	CompletedAt *time.Time
	AccessedAt  time.Time
}

// LessonState is a lesson together with the user's completion of it.
type LessonState struct {
	LessonID    uint       `json:"lesson_id"`
	Title       string     `json:"title"`
	OrderIndex  int        `json:"order_index"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
