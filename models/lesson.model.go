package models

import (
	"time"

	"gorm.io/gorm"
)

type Lesson struct {
	gorm.Model
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	InstructorID uint       `json:"instructor_id" gorm:"index;not null"`
	Deadline     *time.Time `json:"deadline"` // nil means the lesson never locks
	IsPublished  bool       `json:"is_published" gorm:"default:true"`
	IsDeleted    bool       `json:"-" gorm:"default:false"`

	Instructor User `json:"-" gorm:"foreignKey:InstructorID"`
}
