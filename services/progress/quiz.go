package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"lms/models/course"
	"lms/services/grading"

	"gorm.io/datatypes"
)

// Submission is a user's answers keyed by question id.
type Submission struct {
	Answers          map[uint]any
	TimeTakenSeconds *int
}

type QuizOutcome struct {
	QuizID        uint                      `json:"quiz_id"`
	Score         float64                   `json:"score"`
	Passed        bool                      `json:"passed"`
	PassingScore  float64                   `json:"passing_score"`
	EarnedPoints  int                       `json:"earned_points"`
	TotalPoints   int                       `json:"total_points"`
	AttemptNumber int                       `json:"attempt_number"`
	Feedback      map[uint]grading.Feedback `json:"feedback"`
	Completion    *CompletionResult         `json:"completion,omitempty"`
}

type answerRecord struct {
	Answers  map[uint]any              `json:"answers"`
	Feedback map[uint]grading.Feedback `json:"feedback"`
}

// SubmitQuiz grades a submission for the lesson's quiz and records the attempt.
// A passing attempt also completes the lesson in the same transaction.
func (s *Service) SubmitQuiz(ctx context.Context, userID, lessonID uint, sub Submission) (*QuizOutcome, error) {
	lesson, err := s.lookupLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.store.FindQuizByLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.store.IsEnrolled(ctx, userID, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}
	c, err := s.lookupCourse(ctx, lesson.CourseID)
	if err != nil {
		return nil, err
	}

	graded := grading.Grade(GradingQuestions(quiz), sub.Answers, quiz.PassingScore)

	payload, err := json.Marshal(answerRecord{Answers: sub.Answers, Feedback: graded.Feedback})
	if err != nil {
		// answers came from a JSON body; keep the feedback even if they cannot be re-encoded
		payload, _ = json.Marshal(answerRecord{Feedback: graded.Feedback})
	}

	outcome := &QuizOutcome{
		QuizID:       quiz.ID,
		Score:        graded.Score,
		Passed:       graded.Passed,
		PassingScore: quiz.PassingScore,
		EarnedPoints: graded.EarnedPoints,
		TotalPoints:  graded.TotalPoints,
		Feedback:     graded.Feedback,
	}

	now := s.now()
	subj := Subject{CourseID: c.ID, CourseTitle: c.Title, CourseSlug: c.Slug, LessonID: lesson.ID, LessonTitle: lesson.Title}
	var (
		comp     *completion
		quizNote *course.Notification
	)
	err = s.store.Transaction(ctx, func(tx Store) error {
		attempts, err := tx.CountQuizAttempts(ctx, userID, quiz.ID)
		if err != nil {
			return fmt.Errorf("count attempts: %w", err)
		}
		result := &course.QuizResult{
			UserID:           userID,
			QuizID:           quiz.ID,
			LessonID:         lesson.ID,
			Score:            graded.Score,
			Passed:           graded.Passed,
			AttemptNumber:    attempts + 1,
			TimeTakenSeconds: sub.TimeTakenSeconds,
			AnswersData:      datatypes.JSON(payload),
			CompletedAt:      now,
		}
		if err := tx.CreateQuizResult(ctx, result); err != nil {
			return fmt.Errorf("save quiz result: %w", err)
		}
		outcome.AttemptNumber = result.AttemptNumber

		if !graded.Passed {
			quizNote, err = createNotification(ctx, tx, userID, course.NotificationQuizFailed, subj, now)
			return err
		}

		comp, err = s.completeLesson(ctx, tx, userID, lesson, c, now)
		if err != nil {
			return err
		}
		quizNote, err = createNotification(ctx, tx, userID, course.NotificationQuizPassed, subj, now)
		return err
	})
	if err != nil {
		return nil, s.persistenceError("submit quiz", userID, err)
	}

	log.Printf("[QUIZ] User %d attempt %d on quiz %d: score %.2f, passed=%t", userID, outcome.AttemptNumber, quiz.ID, outcome.Score, outcome.Passed)

	if comp != nil {
		outcome.Completion = comp.result
		s.afterCompletion(ctx, userID, c, comp, []course.Notification{*quizNote})
	} else {
		s.dispatch(ctx, Delivery{UserID: userID, Course: c, Notifications: []course.Notification{*quizNote}})
	}
	return outcome, nil
}

// GradingQuestions converts stored questions to the grader's view. Option ids
// are the accepted answers for choice questions, option text for short answers.
func GradingQuestions(quiz *course.Quiz) []grading.Question {
	questions := make([]grading.Question, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		gq := grading.Question{ID: q.ID, Type: q.QuestionType, Points: q.Points}
		for _, opt := range q.Options {
			if !opt.IsCorrect {
				continue
			}
			if q.QuestionType == course.QuestionShortAnswer {
				gq.Correct = append(gq.Correct, opt.OptionText)
			} else {
				gq.Correct = append(gq.Correct, strconv.FormatUint(uint64(opt.ID), 10))
			}
		}
		questions = append(questions, gq)
	}
	return questions
}

// QuizAttempt is a stored attempt with its answers and feedback decoded.
type QuizAttempt struct {
	QuizID           uint                      `json:"quiz_id"`
	LessonID         uint                      `json:"lesson_id"`
	AttemptNumber    int                       `json:"attempt_number"`
	Score            float64                   `json:"score"`
	Passed           bool                      `json:"passed"`
	PassingScore     float64                   `json:"passing_score"`
	TimeTakenSeconds *int                      `json:"time_taken_seconds"`
	CompletedAt      time.Time                 `json:"completed_at"`
	Answers          map[uint]any              `json:"answers"`
	Feedback         map[uint]grading.Feedback `json:"feedback"`
}

// GetLatestQuizResult returns the user's most recent attempt at the lesson's quiz.
func (s *Service) GetLatestQuizResult(ctx context.Context, userID, lessonID uint) (*QuizAttempt, error) {
	if _, err := s.lookupLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	quiz, err := s.store.FindQuizByLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	r, err := s.store.LatestQuizResult(ctx, userID, quiz.ID)
	if err != nil {
		return nil, err
	}

	attempt := &QuizAttempt{
		QuizID:           r.QuizID,
		LessonID:         r.LessonID,
		AttemptNumber:    r.AttemptNumber,
		Score:            r.Score,
		Passed:           r.Passed,
		PassingScore:     quiz.PassingScore,
		TimeTakenSeconds: r.TimeTakenSeconds,
		CompletedAt:      r.CompletedAt,
	}
	var record answerRecord
	if len(r.AnswersData) > 0 {
		if err := json.Unmarshal(r.AnswersData, &record); err != nil {
			log.Printf("[QUIZ] Could not decode answers of result %d: %v", r.ID, err)
		}
	}
	attempt.Answers = record.Answers
	attempt.Feedback = record.Feedback
	return attempt, nil
}
