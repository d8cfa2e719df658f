package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
)

// AttendanceRecord is written at most once per (student, lesson, date); the
// unique index is the idempotency key.
type AttendanceRecord struct {
	gorm.Model
	StudentID uint           `json:"student_id" gorm:"not null;uniqueIndex:idx_attendance_student_lesson_date"`
	LessonID  uint           `json:"lesson_id" gorm:"not null;uniqueIndex:idx_attendance_student_lesson_date"`
	Date      datatypes.Date `json:"date" gorm:"not null;uniqueIndex:idx_attendance_student_lesson_date"`
	Status    string         `json:"status" gorm:"default:'present'"`
	MarkedBy  uint           `json:"marked_by"`
}
