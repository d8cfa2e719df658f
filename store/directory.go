package store

import (
	"errors"

	"gorm.io/gorm"

	"lms/models"
)

// LessonDirectory is the read-only lesson lookup the enrollment engine needs:
// instructor ownership and the optional deadline.
type LessonDirectory struct {
	db *gorm.DB
}

func NewLessonDirectory(db *gorm.DB) *LessonDirectory {
	return &LessonDirectory{db: db}
}

func (d *LessonDirectory) GetLesson(id uint) (*models.Lesson, error) {
	var l models.Lesson
	if err := d.db.Where("id = ? AND is_deleted = ?", id, false).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (d *LessonDirectory) ListByInstructor(instructorID uint) ([]models.Lesson, error) {
	var out []models.Lesson
	err := d.db.Where("instructor_id = ? AND is_deleted = ?", instructorID, false).Find(&out).Error
	return out, err
}

// UserDirectory resolves contact details for notification payloads.
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) GetUser(id uint) (*models.User, error) {
	var u models.User
	if err := d.db.Where("id = ? AND is_deleted = ?", id, false).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
