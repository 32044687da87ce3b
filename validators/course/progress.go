package courseValidator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lms/middleware"
	"lms/services/progress"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ListQuery carries the optional paging and filter parameters of list endpoints.
type ListQuery struct {
	Limit  int  `query:"limit" validate:"omitempty,min=1,max=50"`
	Unread bool `query:"unread"`
}

type quizSubmissionRequest struct {
	Answers   map[string]interface{} `json:"answers" validate:"required"`
	TimeTaken *int                   `json:"time_taken" validate:"omitempty,min=0,max=86400"`
}

// parseID reads a positive integer path parameter.
func parseID(c *fiber.Ctx, param, label string) (uint, error) {
	raw := strings.TrimSpace(c.Params(param))
	if raw == "" {
		return 0, fmt.Errorf("%s is required!", label)
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("Invalid %s!", label)
	}
	return uint(id), nil
}

func idParam(param, label, local string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, param, label)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
		}
		c.Locals(local, id)
		return c.Next()
	}
}

func EnrollCourse() fiber.Handler {
	return idParam("id", "Course ID", "courseID")
}

func GetCourseProgress() fiber.Handler {
	return idParam("course_id", "Course ID", "courseID")
}

func GetModuleProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		errs := make(map[string]string)

		courseID, err := parseID(c, "course_id", "Course ID")
		if err != nil {
			errs["course_id"] = err.Error()
		}
		moduleID, err := parseID(c, "module_id", "Module ID")
		if err != nil {
			errs["module_id"] = err.Error()
		}
		if len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}

		c.Locals("courseID", courseID)
		c.Locals("moduleID", moduleID)
		return c.Next()
	}
}

func LessonID() fiber.Handler {
	return idParam("id", "Lesson ID", "lessonID")
}

func NotificationID() fiber.Handler {
	return idParam("id", "Notification ID", "notificationID")
}

// ListParams validates ?limit= and ?unread= and stores a *ListQuery.
func ListParams() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := new(ListQuery)
		if err := c.QueryParser(query); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		if err := validate.Struct(query); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("listQuery", query)
		return c.Next()
	}
}

// SubmitQuiz validates the lesson id and the answer payload and stores a
// progress.Submission in c.Locals("quizSubmission").
func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lessonID, err := parseID(c, "id", "Lesson ID")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
		}

		req := new(quizSubmissionRequest)
		if err := c.BodyParser(req); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(req); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		answers, err := ParseAnswerKeys(req.Answers)
		if err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"answers": err.Error()})
		}

		c.Locals("lessonID", lessonID)
		c.Locals("quizSubmission", progress.Submission{
			Answers:          answers,
			TimeTakenSeconds: req.TimeTaken,
		})
		return c.Next()
	}
}

// ParseAnswerKeys accepts both "12" and "question_12" as the key for question 12.
func ParseAnswerKeys(raw map[string]interface{}) (map[uint]any, error) {
	answers := make(map[uint]any, len(raw))
	for key, value := range raw {
		id, err := strconv.ParseUint(strings.TrimPrefix(key, "question_"), 10, 32)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("Invalid question key %q!", key)
		}
		answers[uint(id)] = value
	}
	return answers, nil
}

func fieldErrors(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"request": "Invalid request!"}
	}

	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			out[strings.ToLower(fe.Field())] = fe.Field() + " is required!"
		case "min":
			out[strings.ToLower(fe.Field())] = fmt.Sprintf("%s must be at least %s!", fe.Field(), fe.Param())
		case "max":
			out[strings.ToLower(fe.Field())] = fmt.Sprintf("%s must be at most %s!", fe.Field(), fe.Param())
		default:
			out[strings.ToLower(fe.Field())] = fe.Field() + " is invalid!"
		}
	}
	return out
}
