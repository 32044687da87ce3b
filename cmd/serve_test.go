package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/models/course"
	"lms/services/catalog"
	"lms/services/progress"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiFixture struct {
	app    *fiber.App
	db     *gorm.DB
	user   *models.User
	course *course.Course
	token  string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	cfg := &config.Config{
		DBDriver:        "sqlite",
		DBName:          filepath.Join(t.TempDir(), "api.db"),
		DBLogLevel:      "silent",
		JWTKey:          testSecret,
		QuizSubmitLimit: 3,
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() { closeDatabase(db) })

	user, c, err := seedDemo(db)
	require.NoError(t, err)

	svc := progress.NewService(progress.NewGormStore(db), catalog.NewRepository(db))
	token, err := middleware.GenerateJWT(testSecret, user.ID, user.Name, user.Role, user.Email, time.Hour)
	require.NoError(t, err)

	return &apiFixture{
		app:    newApp(db, svc, cfg),
		db:     db,
		user:   user,
		course: c,
		token:  token,
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (f *apiFixture) lessons(t *testing.T) []course.Lesson {
	t.Helper()
	var list []course.Lesson
	require.NoError(t, f.db.Where("course_id = ?", f.course.ID).Order("order_index ASC").Find(&list).Error)
	return list
}

func (f *apiFixture) quiz(t *testing.T, lessonID uint) course.Quiz {
	t.Helper()
	var q course.Quiz
	require.NoError(t, f.db.Preload("Questions.Options").Where("lesson_id = ?", lessonID).First(&q).Error)
	return q
}

func correctAnswers(q course.Quiz) map[string]interface{} {
	answers := make(map[string]interface{})
	for _, question := range q.Questions {
		var correct []string
		for _, opt := range question.Options {
			if !opt.IsCorrect {
				continue
			}
			if question.QuestionType == course.QuestionShortAnswer {
				correct = append(correct, opt.OptionText)
			} else {
				correct = append(correct, strconv.FormatUint(uint64(opt.ID), 10))
			}
		}
		key := fmt.Sprintf("question_%d", question.ID)
		if question.QuestionType == course.QuestionMultipleAnswer {
			answers[key] = correct
		} else {
			answers[key] = correct[0]
		}
	}
	return answers
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	f := newAPIFixture(t)

	user, c, err := seedDemo(f.db)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, user.ID)
	assert.Equal(t, f.course.ID, c.ID)

	var courses int64
	require.NoError(t, f.db.Model(&course.Course{}).Count(&courses).Error)
	assert.Equal(t, int64(1), courses)
	assert.Len(t, f.lessons(t), 4)
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	status, env := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Status)
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)
	path := fmt.Sprintf("/course/%d/enroll", f.course.ID)

	f.token = ""
	status, env := f.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Status)

	f.token = "not-a-jwt"
	status, _ = f.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	other, err := middleware.GenerateJWT("another-secret", f.user.ID, "", "", "", time.Hour)
	require.NoError(t, err)
	f.token = other
	status, _ = f.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLearnerFlow(t *testing.T) {
	f := newAPIFixture(t)
	lessons := f.lessons(t)
	quizLesson := lessons[3]
	quiz := f.quiz(t, quizLesson.ID)

	// progress before enrolling
	status, env := f.do(t, http.MethodGet, fmt.Sprintf("/course/%d/progress", f.course.ID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, fmt.Sprintf(`{"enrolled":false,"course_id":%d}`, f.course.ID), string(env.Data))

	// completing before enrolling is refused
	status, _ = f.do(t, http.MethodPost, fmt.Sprintf("/lesson/%d/complete", lessons[0].ID), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = f.do(t, http.MethodPost, fmt.Sprintf("/course/%d/enroll", f.course.ID), nil)
	assert.Equal(t, http.StatusCreated, status)
	status, env = f.do(t, http.MethodPost, fmt.Sprintf("/course/%d/enroll", f.course.ID), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Already enrolled in this course!", env.Message)

	status, env = f.do(t, http.MethodPost, fmt.Sprintf("/lesson/%d/complete", lessons[0].ID), nil)
	require.Equal(t, http.StatusOK, status)
	var completion progress.CompletionResult
	require.NoError(t, json.Unmarshal(env.Data, &completion))
	assert.Equal(t, float64(25), completion.Progress)
	assert.Equal(t, course.StatusInProgress, completion.Status)
	assert.Equal(t, []course.NotificationType{course.NotificationProgress25}, completion.Notifications)

	status, env = f.do(t, http.MethodPost, fmt.Sprintf("/lesson/%d/complete", lessons[0].ID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Lesson already completed!", env.Message)

	status, env = f.do(t, http.MethodGet, fmt.Sprintf("/lesson/%d/completed", lessons[0].ID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, fmt.Sprintf(`{"lesson_id":%d,"completed":true}`, lessons[0].ID), string(env.Data))

	// failing attempt: one wrong choice, the rest unanswered
	wrong := map[string]interface{}{}
	for _, opt := range quiz.Questions[0].Options {
		if !opt.IsCorrect {
			wrong[strconv.FormatUint(uint64(quiz.Questions[0].ID), 10)] = strconv.FormatUint(uint64(opt.ID), 10)
		}
	}
	status, env = f.do(t, http.MethodPost, fmt.Sprintf("/lesson/%d/quiz/submit", quizLesson.ID), fiber.Map{
		"answers":    wrong,
		"time_taken": 42,
	})
	require.Equal(t, http.StatusOK, status)
	var outcome progress.QuizOutcome
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.False(t, outcome.Passed)
	assert.Equal(t, float64(0), outcome.Score)
	assert.Equal(t, 1, outcome.AttemptNumber)
	assert.Nil(t, outcome.Completion)

	status, env = f.do(t, http.MethodPost, fmt.Sprintf("/lesson/%d/quiz/submit", quizLesson.ID), fiber.Map{
		"answers": correctAnswers(quiz),
	})
	require.Equal(t, http.StatusOK, status)
	outcome = progress.QuizOutcome{}
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.True(t, outcome.Passed)
	assert.Equal(t, float64(100), outcome.Score)
	assert.Equal(t, 2, outcome.AttemptNumber)
	require.NotNil(t, outcome.Completion)
	assert.Equal(t, float64(50), outcome.Completion.Progress)

	status, env = f.do(t, http.MethodGet, fmt.Sprintf("/lesson/%d/quiz/result", quizLesson.ID), nil)
	require.Equal(t, http.StatusOK, status)
	var attempt progress.QuizAttempt
	require.NoError(t, json.Unmarshal(env.Data, &attempt))
	assert.Equal(t, 2, attempt.AttemptNumber)
	assert.True(t, attempt.Passed)
	assert.Equal(t, float64(100), attempt.Score)
	assert.Len(t, attempt.Feedback, len(quiz.Questions))

	// lesson without a quiz
	status, _ = f.do(t, http.MethodPost, fmt.Sprintf("/lesson/%d/quiz/submit", lessons[0].ID), fiber.Map{
		"answers": map[string]interface{}{},
	})
	assert.Equal(t, http.StatusNotFound, status)

	// the per-user submission limit is 3 per minute
	status, _ = f.do(t, http.MethodPost, fmt.Sprintf("/lesson/%d/quiz/submit", quizLesson.ID), fiber.Map{
		"answers": correctAnswers(quiz),
	})
	assert.Equal(t, http.StatusTooManyRequests, status)

	var module course.Module
	require.NoError(t, f.db.Where("course_id = ?", f.course.ID).First(&module).Error)
	status, env = f.do(t, http.MethodGet, fmt.Sprintf("/course/%d/module/%d/progress", f.course.ID, module.ID), nil)
	require.Equal(t, http.StatusOK, status)
	var mp progress.ModuleProgress
	require.NoError(t, json.Unmarshal(env.Data, &mp))
	assert.Equal(t, float64(50), mp.Progress)
	assert.Equal(t, 2, mp.CompletedLessons)

	status, env = f.do(t, http.MethodGet, "/course/in-progress", nil)
	require.Equal(t, http.StatusOK, status)
	var inProgress []course.Enrollment
	require.NoError(t, json.Unmarshal(env.Data, &inProgress))
	require.Len(t, inProgress, 1)
	assert.Equal(t, f.course.ID, inProgress[0].CourseID)

	status, env = f.do(t, http.MethodGet, "/user/activity?limit=5", nil)
	require.Equal(t, http.StatusOK, status)
	var feed []progress.Activity
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	assert.Len(t, feed, 5)

	status, env = f.do(t, http.MethodGet, "/user/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, status)
	var notes []course.Notification
	require.NoError(t, json.Unmarshal(env.Data, &notes))
	// course_enrolled, progress_25, quiz_failed, quiz_passed, progress_50
	require.Len(t, notes, 5)

	status, _ = f.do(t, http.MethodPost, fmt.Sprintf("/user/notifications/%d/read", notes[0].ID), nil)
	assert.Equal(t, http.StatusOK, status)
	status, env = f.do(t, http.MethodGet, "/user/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, status)
	notes = nil
	require.NoError(t, json.Unmarshal(env.Data, &notes))
	assert.Len(t, notes, 4)

	status, env = f.do(t, http.MethodGet, "/user/certificates", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestRequestValidation(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"non numeric lesson", http.MethodGet, "/lesson/abc/completed", nil, http.StatusBadRequest},
		{"zero course", http.MethodPost, "/course/0/enroll", nil, http.StatusBadRequest},
		{"unknown course", http.MethodPost, "/course/9999/enroll", nil, http.StatusNotFound},
		{"unknown lesson", http.MethodPost, "/lesson/9999/complete", nil, http.StatusNotFound},
		{"limit too large", http.MethodGet, "/user/activity?limit=100", nil, http.StatusUnprocessableEntity},
		{"quiz never attempted", http.MethodGet, fmt.Sprintf("/lesson/%d/quiz/result", f.lessons(t)[3].ID), nil, http.StatusNotFound},
		{"result for lesson without quiz", http.MethodGet, fmt.Sprintf("/lesson/%d/quiz/result", f.lessons(t)[0].ID), nil, http.StatusNotFound},
		{"unknown notification", http.MethodPost, "/user/notifications/9999/read", nil, http.StatusNotFound},
		{"wrong module for course", http.MethodGet, fmt.Sprintf("/course/%d/module/9999/progress", f.course.ID), nil, http.StatusNotFound},
		{"missing answers", http.MethodPost, "/lesson/1/quiz/submit", fiber.Map{"time_taken": 3}, http.StatusUnprocessableEntity},
		{"negative time", http.MethodPost, "/lesson/1/quiz/submit", fiber.Map{"answers": fiber.Map{}, "time_taken": -1}, http.StatusUnprocessableEntity},
		{"bad answer key", http.MethodPost, "/lesson/1/quiz/submit", fiber.Map{"answers": fiber.Map{"q1": "a"}}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Status)
		})
	}
}
