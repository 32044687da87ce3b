// Package progress tracks per-user course completion: enrollments, lesson
// completions, quiz attempts, milestone notifications and certificates.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lms/models/course"
	"lms/services/catalog"
)

const (
	defaultListLimit = 10
	maxListLimit     = 50
)

// Service runs the completion workflows. It is safe for concurrent use.
type Service struct {
	store      Store
	catalog    Catalog
	dispatcher Dispatcher
	now        func() time.Time

	notifyEachLesson bool
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDispatcher sets where committed notifications are delivered.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

// WithLessonNotifications emits a lesson_completed notification for every newly completed lesson.
func WithLessonNotifications(enabled bool) Option {
	return func(s *Service) { s.notifyEachLesson = enabled }
}

func NewService(store Store, cat Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: cat,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CourseProgress is the user's standing in one course.
type CourseProgress struct {
	CourseID         uint                    `json:"course_id"`
	Progress         float64                 `json:"progress"`
	Status           course.EnrollmentStatus `json:"status"`
	CompletedLessons int                     `json:"completed_lessons"`
	TotalLessons     int                     `json:"total_lessons"`
	EnrolledAt       time.Time               `json:"enrolled_at"`
	LastAccessedAt   time.Time               `json:"last_accessed_at"`
	CompletedAt      *time.Time              `json:"completed_at"`
}

// ModuleProgress is the per-lesson view of one module.
type ModuleProgress struct {
	ModuleID         uint          `json:"module_id"`
	Title            string        `json:"title"`
	Progress         float64       `json:"progress"`
	CompletedLessons int           `json:"completed_lessons"`
	TotalLessons     int           `json:"total_lessons"`
	Lessons          []LessonState `json:"lessons"`
}

// EnrollUser enrolls a user in a course. The bool is true for a new enrollment.
func (s *Service) EnrollUser(ctx context.Context, userID, courseID uint) (*course.Enrollment, bool, error) {
	c, err := s.lookupCourse(ctx, courseID)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	var (
		enrollment *course.Enrollment
		created    bool
		notes      []course.Notification
	)
	err = s.store.Transaction(ctx, func(tx Store) error {
		var err error
		enrollment, created, err = tx.Enroll(ctx, userID, courseID, now)
		if err != nil || !created {
			return err
		}
		n, err := createNotification(ctx, tx, userID, course.NotificationCourseEnrolled, Subject{
			CourseID:    c.ID,
			CourseTitle: c.Title,
			CourseSlug:  c.Slug,
		}, now)
		if err != nil {
			return err
		}
		notes = append(notes, *n)
		return nil
	})
	if err != nil {
		return nil, false, s.persistenceError("enroll", userID, err)
	}

	if created {
		log.Printf("[PROGRESS] User %d enrolled in course %d", userID, courseID)
		s.dispatch(ctx, Delivery{UserID: userID, Course: c, Notifications: notes})
	}
	return enrollment, created, nil
}

func (s *Service) IsLessonCompleted(ctx context.Context, userID, lessonID uint) (bool, error) {
	return s.store.IsLessonCompleted(ctx, userID, lessonID)
}

// GetUserCourseProgress returns ok=false when the user is not enrolled.
func (s *Service) GetUserCourseProgress(ctx context.Context, userID, courseID uint) (*CourseProgress, bool, error) {
	e, err := s.store.FindEnrollment(ctx, userID, courseID)
	if errors.Is(err, ErrNotEnrolled) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	completed, err := s.store.CountCompletedLessons(ctx, userID, courseID)
	if err != nil {
		return nil, false, err
	}
	total, err := s.store.CountTotalLessons(ctx, courseID)
	if err != nil {
		return nil, false, err
	}

	return &CourseProgress{
		CourseID:         courseID,
		Progress:         e.Progress,
		Status:           e.Status,
		CompletedLessons: completed,
		TotalLessons:     total,
		EnrolledAt:       e.EnrolledAt,
		LastAccessedAt:   e.LastAccessedAt,
		CompletedAt:      e.CompletedAt,
	}, true, nil
}

// GetModuleProgress reports ErrModuleNotFound when the module does not belong to courseID.
func (s *Service) GetModuleProgress(ctx context.Context, userID, courseID, moduleID uint) (*ModuleProgress, error) {
	m, err := s.catalog.FindModuleByID(ctx, moduleID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, ErrModuleNotFound
	}
	if err != nil {
		return nil, err
	}
	if m.CourseID != courseID {
		return nil, ErrModuleNotFound
	}

	lessons, err := s.store.ModuleLessons(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	completed := 0
	for _, l := range lessons {
		if l.Completed {
			completed++
		}
	}

	return &ModuleProgress{
		ModuleID:         m.ID,
		Title:            m.Title,
		Progress:         ComputeProgress(completed, len(lessons)),
		CompletedLessons: completed,
		TotalLessons:     len(lessons),
		Lessons:          lessons,
	}, nil
}

func (s *Service) GetInProgressCourses(ctx context.Context, userID uint, limit int) ([]course.Enrollment, error) {
	return s.store.InProgressEnrollments(ctx, userID, clampLimit(limit))
}

func (s *Service) ListNotifications(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]course.Notification, error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly, clampLimit(limit))
}

func (s *Service) MarkNotificationRead(ctx context.Context, userID, notificationID uint) error {
	return s.store.MarkNotificationRead(ctx, userID, notificationID)
}

func (s *Service) ListCertificates(ctx context.Context, userID uint) ([]course.Certificate, error) {
	return s.store.ListCertificates(ctx, userID)
}

// PruneNotifications deletes read notifications created before the cutoff.
func (s *Service) PruneNotifications(ctx context.Context, before time.Time) (int64, error) {
	return s.store.PruneReadNotifications(ctx, before)
}

func (s *Service) lookupCourse(ctx context.Context, courseID uint) (*course.Course, error) {
	c, err := s.catalog.FindCourseByID(ctx, courseID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, ErrCourseNotFound
	}
	return c, err
}

func (s *Service) lookupLesson(ctx context.Context, lessonID uint) (*course.Lesson, error) {
	l, err := s.catalog.FindLessonByID(ctx, lessonID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, ErrLessonNotFound
	}
	return l, err
}

func (s *Service) dispatch(ctx context.Context, d Delivery) {
	if s.dispatcher == nil || (len(d.Notifications) == 0 && d.Certificate == nil) {
		return
	}
	s.dispatcher.Dispatch(context.WithoutCancel(ctx), d)
}

// persistenceError logs the cause and hides it behind ErrPersistence. Domain
// sentinels raised inside the transaction pass through unchanged.
func (s *Service) persistenceError(op string, userID uint, err error) error {
	for _, domain := range []error{ErrNotEnrolled, ErrQuizNotFound, ErrLessonNotFound, ErrCourseNotFound} {
		if errors.Is(err, domain) {
			return err
		}
	}
	log.Printf("[PROGRESS] %s failed for user %d, rolled back: %v", op, userID, err)
	return fmt.Errorf("%s: %w", op, ErrPersistence)
}

func createNotification(ctx context.Context, tx Store, userID uint, t course.NotificationType, subj Subject, now time.Time) (*course.Notification, error) {
	content := RenderNotification(t, subj)
	n := &course.Notification{
		UserID:    userID,
		Type:      t,
		Title:     content.Title,
		Message:   content.Message,
		Link:      content.Link,
		CreatedAt: now,
	}
	if err := tx.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("create %s notification: %w", t, err)
	}
	return n, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
