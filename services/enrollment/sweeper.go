package enrollment

import (
	"errors"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"lms/models"
	"lms/services/outbox"
	"lms/store"
)

// UserDirectory resolves contact details for sweep notifications.
type UserDirectory interface {
	GetUser(id uint) (*models.User, error)
}

// Sweeper marks stale enrollments as missed. An enrollment is stale when it
// is still active, has zero progress, and was created longer ago than the
// threshold. Any progress at all exempts an enrollment permanently.
type Sweeper struct {
	store      *store.EnrollmentStore
	lessons    LessonDirectory
	users      UserDirectory
	queue      TaskQueue
	staleAfter time.Duration
	now        func() time.Time
}

func NewSweeper(st *store.EnrollmentStore, lessons LessonDirectory, users UserDirectory, queue TaskQueue, staleAfterDays int) *Sweeper {
	return &Sweeper{
		store:      st,
		lessons:    lessons,
		users:      users,
		queue:      queue,
		staleAfter: time.Duration(staleAfterDays) * 24 * time.Hour,
		now:        time.Now,
	}
}

// RunOnce performs one sweep over all enrollments. Per-record failures are
// logged and skipped; one bad record never aborts the run. The missed
// transition is authoritative even when nobody could be notified.
func (s *Sweeper) RunOnce() {
	log.Println("[DEADLINE-SWEEP] Running deadline sweep...")

	all, err := s.store.ListAll()
	if err != nil {
		log.Printf("[DEADLINE-SWEEP] Error listing enrollments: %v", err)
		return
	}

	now := s.now()
	swept := 0
	for _, e := range all {
		if e.Status != models.EnrollmentActive || e.Progress != 0 {
			continue
		}
		elapsed := now.Sub(e.EnrolledAt)
		if elapsed <= s.staleAfter {
			continue
		}

		_, err := s.store.Update(e.ID, e.Version, map[string]interface{}{
			"status":           models.EnrollmentMissed,
			"last_access_date": now,
		})
		if err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				// A live request got there first; the next run re-evaluates.
				log.Printf("[DEADLINE-SWEEP] Enrollment %d changed mid-sweep, skipping", e.ID)
			} else {
				log.Printf("[DEADLINE-SWEEP] Error updating enrollment %d: %v", e.ID, err)
			}
			continue
		}
		swept++

		s.enqueueMissedNotifications(e, int(elapsed.Hours()/24))
	}

	log.Printf("[DEADLINE-SWEEP] Sweep complete, %d enrollment(s) marked missed", swept)
}

func (s *Sweeper) enqueueMissedNotifications(e models.Enrollment, daysOverdue int) {
	student, err := s.users.GetUser(e.UserID)
	if err != nil {
		log.Printf("[DEADLINE-SWEEP] Error fetching student %d for enrollment %d: %v", e.UserID, e.ID, err)
		return
	}
	lesson, err := s.lessons.GetLesson(e.LessonID)
	if err != nil {
		log.Printf("[DEADLINE-SWEEP] Error fetching lesson %d for enrollment %d: %v", e.LessonID, e.ID, err)
		return
	}

	err = s.queue.Enqueue(outbox.KindStudentMissed, outbox.StudentMissedPayload{
		Email:       student.Email,
		Mobile:      student.Mobile,
		StudentName: student.FullName(),
		LessonTitle: lesson.Title,
		DaysOverdue: daysOverdue,
	})
	if err != nil {
		log.Printf("[DEADLINE-SWEEP] Error enqueueing student notification for enrollment %d: %v", e.ID, err)
	}

	instructor, err := s.users.GetUser(lesson.InstructorID)
	if err != nil {
		log.Printf("[DEADLINE-SWEEP] Error fetching instructor %d for lesson %d: %v", lesson.InstructorID, lesson.ID, err)
		return
	}
	err = s.queue.Enqueue(outbox.KindInstructorMissed, outbox.InstructorMissedPayload{
		Email:          instructor.Email,
		Mobile:         instructor.Mobile,
		InstructorName: instructor.FullName(),
		StudentName:    student.FullName(),
		StudentEmail:   student.Email,
		LessonTitle:    lesson.Title,
		DaysOverdue:    daysOverdue,
	})
	if err != nil {
		log.Printf("[DEADLINE-SWEEP] Error enqueueing instructor notification for enrollment %d: %v", e.ID, err)
	}
}

// Schedule registers the sweep on the given cron runner.
func (s *Sweeper) Schedule(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, s.RunOnce)
	if err != nil {
		return err
	}
	log.Printf("[DEADLINE-SWEEP] Deadline sweep scheduled (%s)", spec)
	return nil
}
