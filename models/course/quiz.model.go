package course

import (
	"time"

	"lms/services/grading"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionType values understood by the grader
const (
	QuestionMultipleChoice = grading.MultipleChoice
	QuestionMultipleAnswer = grading.MultipleAnswer
	QuestionTrueFalse      = grading.TrueFalse
	QuestionShortAnswer    = grading.ShortAnswer
)

// Quiz is attached to at most one lesson
type Quiz struct {
	gorm.Model
	LessonID     uint           `json:"lesson_id" gorm:"uniqueIndex;not null"`
	Title        string         `json:"title"`
	PassingScore float64        `json:"passing_score" gorm:"default:70"` // percent
	Questions    []QuizQuestion `json:"questions,omitempty" gorm:"foreignKey:QuizID"`

	Lesson *Lesson `json:"lesson,omitempty" gorm:"foreignKey:LessonID"`
}

type QuizQuestion struct {
	gorm.Model
	QuizID       uint                 `json:"quiz_id" gorm:"index;not null"`
	QuestionText string               `json:"question_text" gorm:"type:text"`
	QuestionType string               `json:"question_type" gorm:"size:32"`
	Points       int                  `json:"points" gorm:"default:1"`
	OrderIndex   int                  `json:"order_index" gorm:"default:0"`
	Options      []QuizQuestionOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

// QuizQuestionOption is a choice for option-based questions, or an accepted answer text for short_answer
type QuizQuestionOption struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
}

// QuizResult is one graded attempt; rows are never updated.
type QuizResult struct {
	ID               uint           `json:"id" gorm:"primarykey"`
	UserID           uint           `json:"user_id" gorm:"index;not null"`
	QuizID           uint           `json:"quiz_id" gorm:"index;not null"`
	LessonID         uint           `json:"lesson_id" gorm:"index;not null"`
	Score            float64        `json:"score"`
	Passed           bool           `json:"passed"`
	AttemptNumber    int            `json:"attempt_number" gorm:"default:1"`
	TimeTakenSeconds *int           `json:"time_taken_seconds"`
	AnswersData      datatypes.JSON `json:"answers_data"`
	CompletedAt      time.Time      `json:"completed_at" gorm:"index"`

	Lesson *Lesson `json:"lesson,omitempty" gorm:"foreignKey:LessonID"`
}
