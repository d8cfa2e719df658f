package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName string `json:"first_name" gorm:"default:''"`
	LastName  string `json:"last_name" gorm:"default:''"`
	Email     string `json:"email" gorm:"unique;not null"`
	Mobile    string `json:"mobile" gorm:"default:''"`
	Role      string `json:"role" gorm:"default:'STUDENT'"` // STUDENT, INSTRUCTOR, ADMIN
	IsDeleted bool   `json:"-" gorm:"default:false"`
}

// FullName returns the display name used in notification bodies.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
