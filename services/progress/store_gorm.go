package progress

import (
	"context"
	"errors"
	"time"

	"lms/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&course.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) FindEnrollment(ctx context.Context, userID, courseID uint) (*course.Enrollment, error) {
	return s.findEnrollment(s.db.WithContext(ctx), userID, courseID)
}

func (s *GormStore) LockEnrollment(ctx context.Context, userID, courseID uint) (*course.Enrollment, error) {
	return s.findEnrollment(s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID, courseID)
}

func (s *GormStore) findEnrollment(db *gorm.DB, userID, courseID uint) (*course.Enrollment, error) {
	var e course.Enrollment
	err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *GormStore) Enroll(ctx context.Context, userID, courseID uint, now time.Time) (*course.Enrollment, bool, error) {
	db := s.db.WithContext(ctx)

	e := course.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		Status:         course.StatusEnrolled,
		EnrolledAt:     now,
		LastAccessedAt: now,
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&e)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return &e, true, nil
	}

	if err := db.Model(&course.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Update("last_accessed_at", now).Error; err != nil {
		return nil, false, err
	}
	existing, err := s.findEnrollment(db, userID, courseID)
	return existing, false, err
}

func (s *GormStore) UpdateEnrollmentProgress(ctx context.Context, userID, courseID uint, u ProgressUpdate) error {
	res := s.db.WithContext(ctx).Model(&course.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Updates(map[string]interface{}{
			"progress":         u.Progress,
			"status":           u.Status,
			"completed_at":     u.CompletedAt,
			"last_accessed_at": u.AccessedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotEnrolled
	}
	return nil
}

func (s *GormStore) IsLessonCompleted(ctx context.Context, userID, lessonID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&course.LessonCompletion{}).
		Where("user_id = ? AND lesson_id = ? AND status = ?", userID, lessonID, course.LessonCompleted).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) RecordLessonCompletion(ctx context.Context, userID uint, lesson *course.Lesson, now time.Time) (bool, error) {
	completion := course.LessonCompletion{
		UserID:      userID,
		LessonID:    lesson.ID,
		CourseID:    lesson.CourseID,
		Status:      course.LessonCompleted,
		StartedAt:   now,
		CompletedAt: &now,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoNothing: true,
	}).Create(&completion)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) CountCompletedLessons(ctx context.Context, userID, courseID uint) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&course.LessonCompletion{}).
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id").
		Where("lesson_completions.user_id = ? AND lessons.course_id = ? AND lesson_completions.status = ?", userID, courseID, course.LessonCompleted).
		Where("lessons.is_deleted = ? AND lessons.deleted_at IS NULL", false).
		Count(&count).Error
	return int(count), err
}

func (s *GormStore) CountTotalLessons(ctx context.Context, courseID uint) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&course.Lesson{}).
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Count(&count).Error
	return int(count), err
}

func (s *GormStore) ModuleLessons(ctx context.Context, userID, moduleID uint) ([]LessonState, error) {
	db := s.db.WithContext(ctx)

	var lessons []course.Lesson
	if err := db.Where("module_id = ? AND is_deleted = ?", moduleID, false).
		Order("order_index ASC, id ASC").
		Find(&lessons).Error; err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		return []LessonState{}, nil
	}

	ids := make([]uint, len(lessons))
	for i, l := range lessons {
		ids[i] = l.ID
	}

	var completions []course.LessonCompletion
	if err := db.Where("user_id = ? AND lesson_id IN ? AND status = ?", userID, ids, course.LessonCompleted).
		Find(&completions).Error; err != nil {
		return nil, err
	}
	done := make(map[uint]*time.Time, len(completions))
	for _, c := range completions {
		done[c.LessonID] = c.CompletedAt
	}

	states := make([]LessonState, len(lessons))
	for i, l := range lessons {
		completedAt, ok := done[l.ID]
		states[i] = LessonState{
			LessonID:    l.ID,
			Title:       l.Title,
			OrderIndex:  l.OrderIndex,
			Completed:   ok,
			CompletedAt: completedAt,
		}
	}
	return states, nil
}

func (s *GormStore) CreateNotification(ctx context.Context, n *course.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *GormStore) ListNotifications(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]course.Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var list []course.Notification
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (s *GormStore) MarkNotificationRead(ctx context.Context, userID, notificationID uint) error {
	db := s.db.WithContext(ctx)

	var n course.Notification
	err := db.Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	return db.Model(&n).Update("is_read", true).Error
}

func (s *GormStore) PruneReadNotifications(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, before).
		Delete(&course.Notification{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) CreateCertificate(ctx context.Context, userID, courseID uint, number string, now time.Time) (*course.Certificate, bool, error) {
	db := s.db.WithContext(ctx)

	cert := course.Certificate{
		UserID:            userID,
		CourseID:          courseID,
		CertificateNumber: number,
		IssuedAt:          now,
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&cert)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return &cert, true, nil
	}

	var existing course.Certificate
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func (s *GormStore) ListCertificates(ctx context.Context, userID uint) ([]course.Certificate, error) {
	var list []course.Certificate
	err := s.db.WithContext(ctx).Preload("Course").
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&list).Error
	return list, err
}

func (s *GormStore) FindQuizByLesson(ctx context.Context, lessonID uint) (*course.Quiz, error) {
	ordered := func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC, id ASC") }

	var quiz course.Quiz
	err := s.db.WithContext(ctx).
		Preload("Questions", ordered).
		Preload("Questions.Options", ordered).
		Where("lesson_id = ?", lessonID).
		First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (s *GormStore) CountQuizAttempts(ctx context.Context, userID, quizID uint) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&course.QuizResult{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&count).Error
	return int(count), err
}

func (s *GormStore) CreateQuizResult(ctx context.Context, r *course.QuizResult) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *GormStore) LatestQuizResult(ctx context.Context, userID, quizID uint) (*course.QuizResult, error) {
	var r course.QuizResult
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("attempt_number DESC, id DESC").
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoQuizAttempt
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) InProgressEnrollments(ctx context.Context, userID uint, limit int) ([]course.Enrollment, error) {
	var list []course.Enrollment
	err := s.db.WithContext(ctx).Preload("Course").
		Where("user_id = ? AND status = ?", userID, course.StatusInProgress).
		Order("last_accessed_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (s *GormStore) RecentCompletions(ctx context.Context, userID uint, limit int) ([]course.LessonCompletion, error) {
	var list []course.LessonCompletion
	err := s.db.WithContext(ctx).Preload("Lesson").
		Where("user_id = ? AND status = ?", userID, course.LessonCompleted).
		Order("completed_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (s *GormStore) RecentEnrollments(ctx context.Context, userID uint, limit int) ([]course.Enrollment, error) {
	var list []course.Enrollment
	err := s.db.WithContext(ctx).Preload("Course").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (s *GormStore) RecentQuizResults(ctx context.Context, userID uint, limit int) ([]course.QuizResult, error) {
	var list []course.QuizResult
	err := s.db.WithContext(ctx).Preload("Lesson").
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
