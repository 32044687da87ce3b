package models

import "gorm.io/gorm"

// User is the learner account. Accounts are managed elsewhere; this service only reads them.
type User struct {
	gorm.Model
	Name      string `json:"name" gorm:"default:''"`
	Email     string `json:"email" gorm:"uniqueIndex;size:191;not null"`
	Role      string `json:"role" gorm:"default:'USER'"` // USER, ADMIN
	IsDeleted bool   `json:"-" gorm:"default:false"`
}
