// Package attendance writes presence records when an enrollment completes.
package attendance

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"lms/models"
)

// Recorder creates at most one record per (student, lesson, calendar day).
// Safe to call again for the same key: replays and races both collapse onto
// the unique index.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// RecordPresent returns true if a record was created, false if one already
// existed for the key.
func (r *Recorder) RecordPresent(studentID, lessonID uint, day time.Time, markedBy uint) (bool, error) {
	date := datatypes.Date(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC))

	var existing models.AttendanceRecord
	err := r.db.Where("student_id = ? AND lesson_id = ? AND date = ?", studentID, lessonID, date).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	record := models.AttendanceRecord{
		StudentID: studentID,
		LessonID:  lessonID,
		Date:      date,
		Status:    models.AttendancePresent,
		MarkedBy:  markedBy,
	}
	if err := r.db.Create(&record).Error; err != nil {
		// A concurrent writer beat us to the key.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
