package progress

import (
	"fmt"
	"strconv"

	"lms/models/course"
)

// Subject carries whatever a notification template may mention.
type Subject struct {
	CourseID    uint
	CourseTitle string
	CourseSlug  string
	LessonID    uint
	LessonTitle string
}

// Content is the rendered title/message/link of a notification.
type Content struct {
	Title   string
	Message string
	Link    string
}

// RenderNotification builds the user-facing text for a notification type.
func RenderNotification(t course.NotificationType, s Subject) Content {
	courseTitle := fallback(s.CourseTitle, "a course")
	lessonTitle := fallback(s.LessonTitle, "a lesson")
	courseLink := "/courses/" + fallback(s.CourseSlug, strconv.FormatUint(uint64(s.CourseID), 10))
	lessonLink := fmt.Sprintf("/lessons/%d", s.LessonID)

	switch t {
	case course.NotificationCourseEnrolled:
		return Content{
			Title:   "Course Enrollment",
			Message: "You have successfully enrolled in " + courseTitle,
			Link:    courseLink,
		}
	case course.NotificationLessonCompleted:
		return Content{
			Title:   "Lesson Completed",
			Message: "You have completed the lesson: " + lessonTitle,
			Link:    lessonLink,
		}
	case course.NotificationQuizPassed:
		return Content{
			Title:   "Quiz Passed",
			Message: "Congratulations! You passed the quiz for " + lessonTitle,
			Link:    lessonLink + "/quiz-result",
		}
	case course.NotificationQuizFailed:
		return Content{
			Title:   "Quiz Attempted",
			Message: "You can try the quiz again for " + lessonTitle,
			Link:    lessonLink + "/quiz",
		}
	case course.NotificationCourseCompleted:
		return Content{
			Title:   "Course Completed",
			Message: "Congratulations! You have completed " + courseTitle,
			Link:    "/certificates",
		}
	case course.NotificationProgress25, course.NotificationProgress50, course.NotificationProgress75:
		pct := progressPercent(t)
		return Content{
			Title:   fmt.Sprintf("Course Progress: %d%%", pct),
			Message: fmt.Sprintf("You are %d%% through %s", pct, fallback(s.CourseTitle, "your course")),
			Link:    courseLink,
		}
	default:
		return Content{Title: "Notification", Link: "/dashboard"}
	}
}

// MilestoneNotification maps a milestone percentage to its notification type.
func MilestoneNotification(m float64) (course.NotificationType, bool) {
	switch m {
	case 25:
		return course.NotificationProgress25, true
	case 50:
		return course.NotificationProgress50, true
	case 75:
		return course.NotificationProgress75, true
	case 100:
		return course.NotificationCourseCompleted, true
	}
	return "", false
}

func progressPercent(t course.NotificationType) int {
	switch t {
	case course.NotificationProgress25:
		return 25
	case course.NotificationProgress50:
		return 50
	default:
		return 75
	}
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
