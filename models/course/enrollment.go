package course

import "time"

// EnrollmentStatus moves forward only: enrolled -> in_progress -> completed.
type EnrollmentStatus string

const (
	StatusEnrolled   EnrollmentStatus = "enrolled"
	StatusInProgress EnrollmentStatus = "in_progress"
	StatusCompleted  EnrollmentStatus = "completed"
)

// Enrollment tracks a user's enrollment in a course with progress
type Enrollment struct {
	ID             uint             `json:"id" gorm:"primarykey"`
	UserID         uint             `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID       uint             `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	Status         EnrollmentStatus `json:"status" gorm:"size:20;default:'enrolled'"`
	Progress       float64          `json:"progress" gorm:"default:0"` // Completion percentage (0-100)
	EnrolledAt     time.Time        `json:"enrolled_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	CompletedAt    *time.Time       `json:"completed_at"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}
