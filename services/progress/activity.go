package progress

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// Activity is one entry of the user's recent activity feed.
type Activity struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Link        string    `json:"link"`
	TimeAgo     string    `json:"time_ago"`
}

// GetUserActivity merges lesson completions, enrollments and quiz attempts, newest first.
func (s *Service) GetUserActivity(ctx context.Context, userID uint, limit int) ([]Activity, error) {
	limit = clampLimit(limit)

	completions, err := s.store.RecentCompletions(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.store.RecentEnrollments(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	results, err := s.store.RecentQuizResults(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	feed := make([]Activity, 0, len(completions)+len(enrollments)+len(results))
	for _, c := range completions {
		if c.CompletedAt == nil {
			continue
		}
		title := ""
		if c.Lesson != nil {
			title = c.Lesson.Title
		}
		feed = append(feed, Activity{
			Type:        "lesson_completed",
			Title:       title,
			Description: "Completed lesson: " + title,
			Timestamp:   *c.CompletedAt,
			Link:        fmt.Sprintf("/lessons/%d", c.LessonID),
		})
	}
	for _, e := range enrollments {
		title, slug := "", fmt.Sprint(e.CourseID)
		if e.Course != nil {
			title = e.Course.Title
			if e.Course.Slug != "" {
				slug = e.Course.Slug
			}
		}
		feed = append(feed, Activity{
			Type:        "course_enrolled",
			Title:       title,
			Description: "Enrolled in course: " + title,
			Timestamp:   e.EnrolledAt,
			Link:        "/courses/" + slug,
		})
	}
	for _, r := range results {
		lessonTitle := ""
		if r.Lesson != nil {
			lessonTitle = r.Lesson.Title
		}
		a := Activity{
			Type:        "quiz_completed",
			Title:       "Quiz for " + lessonTitle,
			Description: fmt.Sprintf("Passed quiz with score of %.0f%%", math.Round(r.Score)),
			Timestamp:   r.CompletedAt,
			Link:        fmt.Sprintf("/lessons/%d/quiz-result", r.LessonID),
		}
		if !r.Passed {
			a.Type = "quiz_failed"
			a.Description = fmt.Sprintf("Attempted quiz with score of %.0f%%", math.Round(r.Score))
		}
		feed = append(feed, a)
	}

	sort.SliceStable(feed, func(i, j int) bool { return feed[i].Timestamp.After(feed[j].Timestamp) })
	if len(feed) > limit {
		feed = feed[:limit]
	}

	now := s.now()
	for i := range feed {
		feed[i].TimeAgo = TimeAgo(now, feed[i].Timestamp)
	}
	return feed, nil
}

// TimeAgo renders the distance between then and now in coarse English units.
func TimeAgo(now, then time.Time) string {
	secs := int64(now.Sub(then).Seconds())
	switch {
	case secs < 60:
		return "just now"
	case secs < 3600:
		return plural(secs/60, "minute")
	case secs < 86400:
		return plural(secs/3600, "hour")
	case secs < 604800:
		return plural(secs/86400, "day")
	case secs < 2592000:
		return plural(secs/604800, "week")
	case secs < 31536000:
		return plural(secs/2592000, "month")
	default:
		return plural(secs/31536000, "year")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
