package progress

import "errors"

var (
	ErrNotEnrolled          = errors.New("user is not enrolled in this course")
	ErrQuizNotFound         = errors.New("no quiz found for this lesson")
	ErrNoQuizAttempt        = errors.New("quiz has not been attempted")
	ErrLessonNotFound       = errors.New("lesson not found")
	ErrCourseNotFound       = errors.New("course not found")
	ErrModuleNotFound       = errors.New("module not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrPersistence wraps any storage failure inside a workflow; the
	// transaction has been rolled back when it is returned.
	ErrPersistence = errors.New("persistence failure")
)
