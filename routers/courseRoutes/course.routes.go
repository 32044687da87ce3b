package courseRoutes

import (
	"time"

	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// Options configures route registration.
type Options struct {
	JWTSecret string
	// QuizSubmitLimit is the number of quiz submissions a user may make per minute.
	QuizSubmitLimit int
}

// SetupCourseRoutes sets up all user-facing progress routes
func SetupCourseRoutes(app *fiber.App, h *controllers.Handler, opts Options) {
	auth := middleware.JWTMiddleware(opts.JWTSecret)

	courseGroup := app.Group("/course")
	courseGroup.Get("/in-progress", auth, validators.ListParams(), h.GetInProgressCourses)
	courseGroup.Post("/:id/enroll", auth, validators.EnrollCourse(), h.EnrollInCourse)
	courseGroup.Get("/:course_id/progress", auth, validators.GetCourseProgress(), h.GetUserProgress)
	courseGroup.Get("/:course_id/module/:module_id/progress", auth, validators.GetModuleProgress(), h.GetModuleProgress)

	lessonGroup := app.Group("/lesson")
	lessonGroup.Get("/:id/completed", auth, validators.LessonID(), h.IsLessonCompleted)
	lessonGroup.Post("/:id/complete", auth, validators.LessonID(), h.MarkLessonComplete)

	quizLimit := opts.QuizSubmitLimit
	if quizLimit < 1 {
		quizLimit = 10
	}
	lessonGroup.Get("/:id/quiz/result", auth, validators.LessonID(), h.GetQuizResult)
	lessonGroup.Post("/:id/quiz/submit", auth, middleware.PerUserLimiter(quizLimit, time.Minute), validators.SubmitQuiz(), h.SubmitQuiz)

	userGroup := app.Group("/user")
	userGroup.Get("/activity", auth, validators.ListParams(), h.GetUserActivity)
	userGroup.Get("/notifications", auth, validators.ListParams(), h.GetNotifications)
	userGroup.Post("/notifications/:id/read", auth, validators.NotificationID(), h.MarkNotificationRead)
	userGroup.Get("/certificates", auth, h.GetUserCertificates)
}
