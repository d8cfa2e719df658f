package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lms/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OutboxTask{}))
	return db
}

func TestEnqueueAndDeliver(t *testing.T) {
	db := newTestDB(t)
	q := NewQueue(db)
	d := NewDispatcher(db, 3)

	var got []StudentMissedPayload
	d.Register(KindStudentMissed, func(payload []byte) error {
		var p StudentMissedPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		got = append(got, p)
		return nil
	})

	require.NoError(t, q.Enqueue(KindStudentMissed, StudentMissedPayload{
		Email:       "s@example.com",
		LessonTitle: "Algebra I",
		DaysOverdue: 4,
	}))

	d.Poll()

	require.Len(t, got, 1)
	assert.Equal(t, "s@example.com", got[0].Email)
	assert.Equal(t, 4, got[0].DaysOverdue)

	var task models.OutboxTask
	require.NoError(t, db.First(&task).Error)
	assert.Equal(t, models.OutboxDone, task.Status)
	assert.Equal(t, 1, task.Attempts)
	assert.NotEmpty(t, task.TaskID)

	// A done task is not delivered again.
	d.Poll()
	assert.Len(t, got, 1)
}

func TestFailingTaskRetriesThenFails(t *testing.T) {
	db := newTestDB(t)
	q := NewQueue(db)
	d := NewDispatcher(db, 3)

	calls := 0
	d.Register(KindAttendancePresent, func(payload []byte) error {
		calls++
		return errors.New("sink unavailable")
	})

	require.NoError(t, q.Enqueue(KindAttendancePresent, AttendancePayload{StudentID: 1, LessonID: 2, Date: "2026-08-28"}))

	for i := 0; i < 5; i++ {
		d.Poll()
	}

	// Three attempts, then parked as failed.
	assert.Equal(t, 3, calls)

	var task models.OutboxTask
	require.NoError(t, db.First(&task).Error)
	assert.Equal(t, models.OutboxFailed, task.Status)
	assert.Equal(t, 3, task.Attempts)
	assert.Equal(t, "sink unavailable", task.LastError)
}

func TestRecoveryAfterTransientFailure(t *testing.T) {
	db := newTestDB(t)
	q := NewQueue(db)
	d := NewDispatcher(db, 5)

	calls := 0
	d.Register(KindInstructorMissed, func(payload []byte) error {
		calls++
		if calls < 3 {
			return errors.New("timeout")
		}
		return nil
	})

	require.NoError(t, q.Enqueue(KindInstructorMissed, InstructorMissedPayload{Email: "t@example.com"}))

	for i := 0; i < 4; i++ {
		d.Poll()
	}

	assert.Equal(t, 3, calls)
	var task models.OutboxTask
	require.NoError(t, db.First(&task).Error)
	assert.Equal(t, models.OutboxDone, task.Status)
}

func TestUnknownKindIsParked(t *testing.T) {
	db := newTestDB(t)
	q := NewQueue(db)
	d := NewDispatcher(db, 3)

	require.NoError(t, q.Enqueue("no.such.kind", map[string]string{"x": "y"}))
	d.Poll()

	var task models.OutboxTask
	require.NoError(t, db.First(&task).Error)
	assert.Equal(t, models.OutboxFailed, task.Status)
}
