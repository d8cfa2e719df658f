package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentMissed    = "missed"
)

type Enrollment struct {
	gorm.Model
	LessonID         uint      `json:"lesson_id" gorm:"not null;uniqueIndex:idx_enrollment_lesson_user"`
	UserID           uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_enrollment_lesson_user"`
	Status           string    `json:"status" gorm:"default:'active'"`
	Progress         int       `json:"progress" gorm:"default:0"`
	TimeSpentSeconds int64     `json:"time_spent_seconds" gorm:"default:0"`
	EnrolledAt       time.Time `json:"enrolled_at"`
	LastAccessDate   time.Time `json:"last_access_date"`
	RedoRequested    bool      `json:"redo_requested" gorm:"default:false"`
	RedoGranted      bool      `json:"redo_granted" gorm:"default:false"`

	// Version guards every update: writes carry the version they read and
	// bump it on commit, so a stale snapshot can never clobber a newer one.
	Version int64 `json:"-" gorm:"default:1"`

	User   User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Lesson Lesson `json:"-" gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE"`
}
