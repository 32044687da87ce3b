package progress

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"lms/config"
	"lms/database"
	"lms/models"
	"lms/models/course"
	"lms/services/catalog"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

type recordingDispatcher struct {
	mu         sync.Mutex
	deliveries []Delivery
}

func (d *recordingDispatcher) Dispatch(_ context.Context, del Delivery) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deliveries = append(d.deliveries, del)
}

func (d *recordingDispatcher) all() []Delivery {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Delivery(nil), d.deliveries...)
}

type fixture struct {
	db         *gorm.DB
	svc        *Service
	store      *GormStore
	clock      *stepClock
	dispatcher *recordingDispatcher
	user       models.User
	course     course.Course
	module     course.Module
	lessons    []course.Lesson
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(&config.Config{
		DBDriver:   "sqlite",
		DBName:     filepath.Join(t.TempDir(), "progress.db"),
		DBLogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newFixture(t *testing.T, lessonCount int, opts ...Option) *fixture {
	t.Helper()

	db := openTestDB(t)
	f := &fixture{
		db:         db,
		store:      NewGormStore(db),
		clock:      &stepClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		dispatcher: &recordingDispatcher{},
	}

	f.user = models.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, db.Create(&f.user).Error)

	f.course = course.Course{Title: "Go Basics", Slug: "go-basics", IsPublished: true}
	require.NoError(t, db.Create(&f.course).Error)

	f.module = course.Module{CourseID: f.course.ID, Title: "Getting Started"}
	require.NoError(t, db.Create(&f.module).Error)

	for i := 0; i < lessonCount; i++ {
		l := course.Lesson{
			CourseID:   f.course.ID,
			ModuleID:   f.module.ID,
			Title:      fmt.Sprintf("Lesson %d", i+1),
			OrderIndex: i,
		}
		require.NoError(t, db.Create(&l).Error)
		f.lessons = append(f.lessons, l)
	}

	all := append([]Option{WithClock(f.clock.Now), WithDispatcher(f.dispatcher)}, opts...)
	f.svc = NewService(f.store, catalog.NewRepository(db), all...)
	return f
}

// addQuiz attaches a quiz of multiple-choice questions worth points each and
// returns the correct option id of every question.
func (f *fixture) addQuiz(t *testing.T, lesson course.Lesson, passing float64, points ...int) (course.Quiz, []string) {
	t.Helper()

	quiz := course.Quiz{LessonID: lesson.ID, Title: "Check", PassingScore: passing}
	for i, p := range points {
		quiz.Questions = append(quiz.Questions, course.QuizQuestion{
			QuestionText: fmt.Sprintf("Question %d", i+1),
			QuestionType: course.QuestionMultipleChoice,
			Points:       p,
			OrderIndex:   i,
			Options: []course.QuizQuestionOption{
				{OptionText: "right", IsCorrect: true, OrderIndex: 0},
				{OptionText: "wrong", OrderIndex: 1},
			},
		})
	}
	require.NoError(t, f.db.Create(&quiz).Error)

	correct := make([]string, len(quiz.Questions))
	for i, q := range quiz.Questions {
		correct[i] = fmt.Sprint(q.Options[0].ID)
	}
	return quiz, correct
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) notificationTypes(t *testing.T) []course.NotificationType {
	t.Helper()
	var list []course.Notification
	require.NoError(t, f.db.Where("user_id = ?", f.user.ID).Order("id ASC").Find(&list).Error)
	types := make([]course.NotificationType, len(list))
	for i, n := range list {
		types[i] = n.Type
	}
	return types
}

func (f *fixture) enrollment(t *testing.T) course.Enrollment {
	t.Helper()
	var e course.Enrollment
	require.NoError(t, f.db.Where("user_id = ? AND course_id = ?", f.user.ID, f.course.ID).First(&e).Error)
	return e
}
