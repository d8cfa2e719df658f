package models

import (
	"gorm.io/gorm"
)

const (
	OutboxPending = "PENDING"
	OutboxDone    = "DONE"
	OutboxFailed  = "FAILED"
)

// OutboxTask is a deferred side effect (attendance write, notification)
// enqueued in the same flow that commits the primary mutation and delivered
// at-least-once by the dispatcher.
type OutboxTask struct {
	gorm.Model
	TaskID    string `json:"task_id" gorm:"uniqueIndex;not null"`
	Kind      string `json:"kind" gorm:"index;not null"`
	Payload   string `json:"payload"`
	Status    string `json:"status" gorm:"index;default:'PENDING'"`
	Attempts  int    `json:"attempts" gorm:"default:0"`
	LastError string `json:"last_error"`
}
