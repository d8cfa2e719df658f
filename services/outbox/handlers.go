package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"lms/services/attendance"
	"lms/services/notify"
)

// RegisterHandlers binds every task kind to its executor. Handlers run
// at-least-once; the attendance recorder is idempotent and a re-sent
// notification is an accepted cost of never losing one.
func RegisterHandlers(d *Dispatcher, recorder *attendance.Recorder, notifier *notify.Notifier) {
	d.Register(KindAttendancePresent, func(payload []byte) error {
		var p AttendancePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("decode attendance payload: %w", err)
		}
		day, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return fmt.Errorf("parse attendance date %q: %w", p.Date, err)
		}
		_, err = recorder.RecordPresent(p.StudentID, p.LessonID, day, p.MarkedBy)
		return err
	})

	d.Register(KindStudentMissed, func(payload []byte) error {
		var p StudentMissedPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("decode student missed payload: %w", err)
		}
		return notifier.NotifyStudentMissed(p.StudentName, p.Email, p.Mobile, p.LessonTitle, p.DaysOverdue)
	})

	d.Register(KindInstructorMissed, func(payload []byte) error {
		var p InstructorMissedPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("decode instructor missed payload: %w", err)
		}
		return notifier.NotifyInstructorMissed(p.InstructorName, p.Email, p.Mobile, p.StudentName, p.StudentEmail, p.LessonTitle, p.DaysOverdue)
	})
}
