package cmd

import (
	"errors"
	"fmt"
	"log"

	"lms/models"
	"lms/models/course"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const demoCourseSlug = "go-fundamentals"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert a demo learner, course and quiz",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		user, c, err := seedDemo(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Demo user %d (%s), course %d (%s)\n", user.ID, user.Email, c.ID, c.Slug)
		return nil
	},
}

// seedDemo is idempotent: an existing demo course is returned as is.
func seedDemo(db *gorm.DB) (*models.User, *course.Course, error) {
	user := models.User{Name: "Demo Learner", Email: "demo@lms.local", Role: "USER"}
	if err := db.Where("email = ?", user.Email).FirstOrCreate(&user).Error; err != nil {
		return nil, nil, err
	}

	var existing course.Course
	err := db.Where("slug = ?", demoCourseSlug).First(&existing).Error
	if err == nil {
		log.Printf("[SEED] Course %q already present", demoCourseSlug)
		return &user, &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	c := course.Course{
		Title:       "Go Fundamentals",
		Slug:        demoCourseSlug,
		Description: "Types, functions, packages and errors.",
		IsPublished: true,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&c).Error; err != nil {
			return err
		}
		m := course.Module{CourseID: c.ID, Title: "The Basics"}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}

		titles := []string{"Hello, World", "Variables and Types", "Functions", "Errors"}
		var last course.Lesson
		for i, title := range titles {
			last = course.Lesson{CourseID: c.ID, ModuleID: m.ID, Title: title, OrderIndex: i}
			if err := tx.Create(&last).Error; err != nil {
				return err
			}
		}

		quiz := course.Quiz{
			LessonID:     last.ID,
			Title:        "Errors check",
			PassingScore: 70,
			Questions: []course.QuizQuestion{
				{
					QuestionText: "Which type do functions return to signal failure?",
					QuestionType: course.QuestionMultipleChoice,
					Points:       2,
					Options: []course.QuizQuestionOption{
						{OptionText: "error", IsCorrect: true},
						{OptionText: "exception", OrderIndex: 1},
					},
				},
				{
					QuestionText: "Which verbs wrap an error with fmt.Errorf?",
					QuestionType: course.QuestionMultipleAnswer,
					Points:       2,
					OrderIndex:   1,
					Options: []course.QuizQuestionOption{
						{OptionText: "%w", IsCorrect: true},
						{OptionText: "%v", OrderIndex: 1},
						{OptionText: "%s", OrderIndex: 2},
					},
				},
				{
					QuestionText: "errors.Is follows wrapped errors.",
					QuestionType: course.QuestionTrueFalse,
					Points:       1,
					OrderIndex:   2,
					Options: []course.QuizQuestionOption{
						{OptionText: "True", IsCorrect: true},
						{OptionText: "False", OrderIndex: 1},
					},
				},
				{
					QuestionText: "Name the value that means no error.",
					QuestionType: course.QuestionShortAnswer,
					Points:       1,
					OrderIndex:   3,
					Options: []course.QuizQuestionOption{
						{OptionText: "nil", IsCorrect: true},
					},
				},
			},
		}
		return tx.Create(&quiz).Error
	})
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[SEED] Created course %q with quiz", demoCourseSlug)
	return &user, &c, nil
}
