// Package outbox defers side effects (attendance writes, notifications) into
// a table polled by a dispatcher. Enqueueing happens in the same flow that
// commits the primary mutation; delivery is at-least-once with bounded
// retries, so every handler must tolerate replays.
package outbox

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"lms/models"
)

const (
	KindAttendancePresent = "attendance.present"
	KindStudentMissed     = "notify.student_missed"
	KindInstructorMissed  = "notify.instructor_missed"
)

// AttendancePayload asks for a presence record. Date is a calendar day in
// 2006-01-02 form.
type AttendancePayload struct {
	StudentID uint   `json:"student_id"`
	LessonID  uint   `json:"lesson_id"`
	Date      string `json:"date"`
	MarkedBy  uint   `json:"marked_by"`
}

type StudentMissedPayload struct {
	Email       string `json:"email"`
	Mobile      string `json:"mobile"`
	StudentName string `json:"student_name"`
	LessonTitle string `json:"lesson_title"`
	DaysOverdue int    `json:"days_overdue"`
}

type InstructorMissedPayload struct {
	Email          string `json:"email"`
	Mobile         string `json:"mobile"`
	InstructorName string `json:"instructor_name"`
	StudentName    string `json:"student_name"`
	StudentEmail   string `json:"student_email"`
	LessonTitle    string `json:"lesson_title"`
	DaysOverdue    int    `json:"days_overdue"`
}

// Queue enqueues tasks for the dispatcher.
type Queue struct {
	db *gorm.DB
}

func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db}
}

func (q *Queue) Enqueue(kind string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	task := models.OutboxTask{
		TaskID:  uuid.NewString(),
		Kind:    kind,
		Payload: string(body),
		Status:  models.OutboxPending,
	}
	return q.db.Create(&task).Error
}

// Handler executes one task. A nil return marks the task done; an error
// leaves it pending for another attempt.
type Handler func(payload []byte) error

// Dispatcher polls pending tasks and runs their registered handlers.
type Dispatcher struct {
	db          *gorm.DB
	handlers    map[string]Handler
	maxAttempts int
}

func NewDispatcher(db *gorm.DB, maxAttempts int) *Dispatcher {
	return &Dispatcher{
		db:          db,
		handlers:    make(map[string]Handler),
		maxAttempts: maxAttempts,
	}
}

func (d *Dispatcher) Register(kind string, h Handler) {
	d.handlers[kind] = h
}

// Poll runs one delivery pass. Per-task failures are recorded and never abort
// the pass.
func (d *Dispatcher) Poll() {
	var tasks []models.OutboxTask
	if err := d.db.
		Where("status = ?", models.OutboxPending).
		Order("id asc").
		Limit(100).
		Find(&tasks).Error; err != nil {
		log.Printf("[OUTBOX] Error fetching pending tasks: %v", err)
		return
	}

	for _, task := range tasks {
		handler, ok := d.handlers[task.Kind]
		if !ok {
			log.Printf("[OUTBOX] No handler for kind %s (task %s), marking failed", task.Kind, task.TaskID)
			d.db.Model(&task).Updates(map[string]interface{}{
				"status":     models.OutboxFailed,
				"last_error": "no handler registered",
			})
			continue
		}

		err := handler([]byte(task.Payload))
		if err == nil {
			d.db.Model(&task).Updates(map[string]interface{}{
				"status":   models.OutboxDone,
				"attempts": task.Attempts + 1,
			})
			continue
		}

		log.Printf("[OUTBOX] Task %s (%s) attempt %d failed: %v", task.TaskID, task.Kind, task.Attempts+1, err)
		updates := map[string]interface{}{
			"attempts":   task.Attempts + 1,
			"last_error": err.Error(),
		}
		if task.Attempts+1 >= d.maxAttempts {
			updates["status"] = models.OutboxFailed
		}
		d.db.Model(&task).Updates(updates)
	}
}

// Schedule registers the poll loop on the given cron runner.
func (d *Dispatcher) Schedule(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, d.Poll)
	return err
}
