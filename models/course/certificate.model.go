package course

import "time"

// Certificate represents an issued certificate for course completion
type Certificate struct {
	ID                uint      `json:"id" gorm:"primarykey"`
	UserID            uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_certificate_user_course"`
	CourseID          uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_certificate_user_course"`
	CertificateNumber string    `json:"certificate_number" gorm:"size:64;uniqueIndex"`
	IssuedAt          time.Time `json:"issued_at"`
	CreatedAt         time.Time `json:"created_at"`

	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}
