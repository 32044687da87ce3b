package progress

import (
	"context"
	"fmt"
	"log"
	"time"

	"lms/models/course"
)

// CompletionResult describes the enrollment after a lesson completion.
type CompletionResult struct {
	CourseID         uint                      `json:"course_id"`
	LessonID         uint                      `json:"lesson_id"`
	Progress         float64                   `json:"progress"`
	Status           course.EnrollmentStatus   `json:"status"`
	AlreadyCompleted bool                      `json:"already_completed"`
	Notifications    []course.NotificationType `json:"notifications,omitempty"`
	Certificate      *course.Certificate       `json:"certificate,omitempty"`
}

// completion is what one transactional completion wrote.
type completion struct {
	result      *CompletionResult
	notes       []course.Notification
	certificate *course.Certificate // set only when issued by this call
}

// MarkLessonComplete records a lesson as done and advances the course enrollment.
// Repeating it for a completed lesson returns the current state without writing.
func (s *Service) MarkLessonComplete(ctx context.Context, userID, lessonID uint) (*CompletionResult, error) {
	lesson, err := s.lookupLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	done, err := s.store.IsLessonCompleted(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	if done {
		e, err := s.store.FindEnrollment(ctx, userID, lesson.CourseID)
		if err != nil {
			return nil, err
		}
		return &CompletionResult{
			CourseID:         lesson.CourseID,
			LessonID:         lesson.ID,
			Progress:         e.Progress,
			Status:           e.Status,
			AlreadyCompleted: true,
		}, nil
	}

	c, err := s.lookupCourse(ctx, lesson.CourseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var out *completion
	err = s.store.Transaction(ctx, func(tx Store) error {
		var err error
		out, err = s.completeLesson(ctx, tx, userID, lesson, c, now)
		return err
	})
	if err != nil {
		return nil, s.persistenceError("mark lesson complete", userID, err)
	}

	s.afterCompletion(ctx, userID, c, out, nil)
	return out.result, nil
}

// completeLesson runs inside tx. The enrollment row lock serializes concurrent
// completions for the same user and course.
func (s *Service) completeLesson(ctx context.Context, tx Store, userID uint, lesson *course.Lesson, c *course.Course, now time.Time) (*completion, error) {
	e, err := tx.LockEnrollment(ctx, userID, lesson.CourseID)
	if err != nil {
		return nil, err
	}

	res := &CompletionResult{
		CourseID: lesson.CourseID,
		LessonID: lesson.ID,
		Progress: e.Progress,
		Status:   e.Status,
	}
	out := &completion{result: res}

	created, err := tx.RecordLessonCompletion(ctx, userID, lesson, now)
	if err != nil {
		return nil, fmt.Errorf("record lesson completion: %w", err)
	}
	if !created {
		res.AlreadyCompleted = true
		return out, nil
	}

	completed, err := tx.CountCompletedLessons(ctx, userID, lesson.CourseID)
	if err != nil {
		return nil, fmt.Errorf("count completed lessons: %w", err)
	}
	total, err := tx.CountTotalLessons(ctx, lesson.CourseID)
	if err != nil {
		return nil, fmt.Errorf("count lessons: %w", err)
	}

	pct := ComputeProgress(completed, total)
	status := DeriveStatus(pct, e.Status)
	if e.Status == course.StatusCompleted {
		status = course.StatusCompleted
	}
	becameComplete := status == course.StatusCompleted && e.Status != course.StatusCompleted
	completedAt := e.CompletedAt
	if becameComplete {
		completedAt = &now
	}

	if err := tx.UpdateEnrollmentProgress(ctx, userID, lesson.CourseID, ProgressUpdate{
		Progress:    pct,
		Status:      status,
		CompletedAt: completedAt,
		AccessedAt:  now,
	}); err != nil {
		return nil, fmt.Errorf("update enrollment: %w", err)
	}
	res.Progress = pct
	res.Status = status

	subj := Subject{
		CourseID:    c.ID,
		CourseTitle: c.Title,
		CourseSlug:  c.Slug,
		LessonID:    lesson.ID,
		LessonTitle: lesson.Title,
	}

	var types []course.NotificationType
	if s.notifyEachLesson {
		types = append(types, course.NotificationLessonCompleted)
	}
	// a completed enrollment has already announced every milestone
	if e.Status != course.StatusCompleted {
		for _, m := range MilestonesCrossed(e.Progress, pct) {
			t, _ := MilestoneNotification(m)
			if t == course.NotificationCourseCompleted && !becameComplete {
				continue
			}
			types = append(types, t)
		}
	}
	for _, t := range types {
		n, err := createNotification(ctx, tx, userID, t, subj, now)
		if err != nil {
			return nil, err
		}
		out.notes = append(out.notes, *n)
		res.Notifications = append(res.Notifications, t)
	}

	if becameComplete {
		cert, issued, err := tx.CreateCertificate(ctx, userID, lesson.CourseID, NewCertificateNumber(now), now)
		if err != nil {
			return nil, fmt.Errorf("issue certificate: %w", err)
		}
		res.Certificate = cert
		if issued {
			out.certificate = cert
		}
	}

	return out, nil
}

func (s *Service) afterCompletion(ctx context.Context, userID uint, c *course.Course, out *completion, extra []course.Notification) {
	res := out.result
	if !res.AlreadyCompleted {
		log.Printf("[PROGRESS] User %d completed lesson %d, course %d at %.2f%% (%s)", userID, res.LessonID, res.CourseID, res.Progress, res.Status)
	}
	if out.certificate != nil {
		log.Printf("[PROGRESS] Issued certificate %s to user %d for course %d", out.certificate.CertificateNumber, userID, res.CourseID)
	}

	notes := append(out.notes, extra...)
	s.dispatch(ctx, Delivery{
		UserID:        userID,
		Course:        c,
		Notifications: notes,
		Certificate:   out.certificate,
	})
}
