// Package catalog reads course structure and users. Nothing here writes.
package catalog

import (
	"context"
	"errors"

	"lms/models"
	"lms/models/course"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("catalog: record not found")

// Repository looks up live (not deleted) catalog rows through gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindCourseByID(ctx context.Context, id uint) (*course.Course, error) {
	var c course.Course
	if err := r.first(ctx, &c, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) FindModuleByID(ctx context.Context, id uint) (*course.Module, error) {
	var m course.Module
	if err := r.first(ctx, &m, id); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repository) FindLessonByID(ctx context.Context, id uint) (*course.Lesson, error) {
	var l course.Lesson
	if err := r.first(ctx, &l, id); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.first(ctx, &u, id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) first(ctx context.Context, dest interface{}, id uint) error {
	err := r.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", id, false).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
