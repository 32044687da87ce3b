package controllers

import (
	"context"
	"errors"
	"log"
	"time"

	"lms/middleware"
	"lms/services/progress"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

const requestTimeout = 5 * time.Second

// Handler exposes progress.Service over HTTP.
type Handler struct {
	svc *progress.Service
}

func NewHandler(svc *progress.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) EnrollInCourse(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(uint)

	ctx, cancel := requestContext(c)
	defer cancel()

	enrollment, created, err := h.svc.EnrollUser(ctx, userID, courseID)
	if err != nil {
		return errorResponse(c, err)
	}
	if !created {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Already enrolled in this course!", enrollment)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in course successfully!", enrollment)
}

func (h *Handler) GetUserProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(uint)

	ctx, cancel := requestContext(c)
	defer cancel()

	p, enrolled, err := h.svc.GetUserCourseProgress(ctx, userID, courseID)
	if err != nil {
		return errorResponse(c, err)
	}
	if !enrolled {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Not enrolled in this course!", fiber.Map{
			"enrolled":  false,
			"course_id": courseID,
		})
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"enrolled": true,
		"progress": p,
	})
}

func (h *Handler) GetModuleProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(uint)
	moduleID := c.Locals("moduleID").(uint)

	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.svc.GetModuleProgress(ctx, userID, courseID, moduleID)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module progress fetched successfully!", p)
}

func (h *Handler) GetInProgressCourses(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	query := listQuery(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.svc.GetInProgressCourses(ctx, userID, query.Limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", list)
}

func (h *Handler) IsLessonCompleted(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	lessonID := c.Locals("lessonID").(uint)

	ctx, cancel := requestContext(c)
	defer cancel()

	done, err := h.svc.IsLessonCompleted(ctx, userID, lessonID)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson status fetched successfully!", fiber.Map{
		"lesson_id": lessonID,
		"completed": done,
	})
}

func (h *Handler) MarkLessonComplete(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	lessonID := c.Locals("lessonID").(uint)

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.svc.MarkLessonComplete(ctx, userID, lessonID)
	if err != nil {
		return errorResponse(c, err)
	}
	if result.AlreadyCompleted {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson already completed!", result)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson marked as completed!", result)
}

func (h *Handler) SubmitQuiz(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	lessonID := c.Locals("lessonID").(uint)
	sub := c.Locals("quizSubmission").(progress.Submission)

	ctx, cancel := requestContext(c)
	defer cancel()

	outcome, err := h.svc.SubmitQuiz(ctx, userID, lessonID, sub)
	if err != nil {
		return errorResponse(c, err)
	}
	if outcome.Passed {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz passed!", outcome)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz submitted, passing score not reached!", outcome)
}

func (h *Handler) GetQuizResult(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	lessonID := c.Locals("lessonID").(uint)

	ctx, cancel := requestContext(c)
	defer cancel()

	attempt, err := h.svc.GetLatestQuizResult(ctx, userID, lessonID)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz result fetched successfully!", attempt)
}

func (h *Handler) GetUserActivity(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	query := listQuery(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	feed, err := h.svc.GetUserActivity(ctx, userID, query.Limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Activity fetched successfully!", feed)
}

func (h *Handler) GetNotifications(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	query := listQuery(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.svc.ListNotifications(ctx, userID, query.Unread, query.Limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notifications fetched successfully!", list)
}

func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	notificationID := c.Locals("notificationID").(uint)

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.MarkNotificationRead(ctx, userID, notificationID); err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notification marked as read!", nil)
}

func (h *Handler) GetUserCertificates(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	certs, err := h.svc.ListCertificates(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", certs)
}

func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

func listQuery(c *fiber.Ctx) *courseValidator.ListQuery {
	if q, ok := c.Locals("listQuery").(*courseValidator.ListQuery); ok {
		return q
	}
	return &courseValidator.ListQuery{}
}

func errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, progress.ErrNotEnrolled):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
	case errors.Is(err, progress.ErrCourseNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	case errors.Is(err, progress.ErrModuleNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Module not found!", nil)
	case errors.Is(err, progress.ErrLessonNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	case errors.Is(err, progress.ErrQuizNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No quiz found for this lesson!", nil)
	case errors.Is(err, progress.ErrNoQuizAttempt):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "You have not attempted this quiz yet!", nil)
	case errors.Is(err, progress.ErrNotificationNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Notification not found!", nil)
	}
	log.Printf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Something went wrong, please try again!", nil)
}
