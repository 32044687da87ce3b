package course

import (
	"time"

	"gorm.io/gorm"
)

// LessonCompleted is the only status a LessonCompletion row is written with.
const LessonCompleted = "completed"

// Lesson is the unit of completion inside a module
type Lesson struct {
	gorm.Model
	CourseID   uint   `json:"course_id" gorm:"index;not null"`
	ModuleID   uint   `json:"module_id" gorm:"index;not null"`
	Title      string `json:"title"`
	Content    string `json:"content" gorm:"type:text"`
	OrderIndex int    `json:"order_index" gorm:"default:0"` // Order within module
	IsDeleted  bool   `json:"-" gorm:"default:false"`
}

// LessonCompletion records that a user finished a lesson. One row per (user, lesson).
type LessonCompletion struct {
	ID          uint       `json:"id" gorm:"primarykey"`
	UserID      uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_lesson_completion_user_lesson"`
	LessonID    uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_lesson_completion_user_lesson"`
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	Status      string     `json:"status" gorm:"size:20;default:'completed'"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	Lesson *Lesson `json:"lesson,omitempty" gorm:"foreignKey:LessonID"`
}
