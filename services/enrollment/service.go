// Package enrollment implements the enrollment lifecycle: enroll/unenroll,
// progress updates with their chained side effects, the lesson-deadline lock
// gate, the redo workflow, and the deadline sweep.
package enrollment

import (
	"errors"
	"fmt"
	"log"
	"time"

	"lms/models"
	"lms/services/outbox"
	"lms/store"
)

const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
)

// Caller is the authenticated identity attached upstream. The service trusts
// it and never verifies credentials itself.
type Caller struct {
	ID   uint
	Role string
}

// LessonDirectory resolves lessons for ownership checks and the lock gate.
type LessonDirectory interface {
	GetLesson(id uint) (*models.Lesson, error)
	ListByInstructor(instructorID uint) ([]models.Lesson, error)
}

// TaskQueue receives deferred side effects (attendance, notifications).
type TaskQueue interface {
	Enqueue(kind string, payload interface{}) error
}

// How many times a write is retried after losing a version race before the
// request is failed outright.
const maxUpdateRetries = 3

type Service struct {
	store   *store.EnrollmentStore
	lessons LessonDirectory
	queue   TaskQueue
	now     func() time.Time
}

func NewService(st *store.EnrollmentStore, lessons LessonDirectory, queue TaskQueue) *Service {
	return &Service{
		store:   st,
		lessons: lessons,
		queue:   queue,
		now:     time.Now,
	}
}

// Enroll creates an active enrollment for the caller in the given lesson.
func (s *Service) Enroll(caller Caller, lessonID uint) (*models.Enrollment, error) {
	if _, err := s.lessons.GetLesson(lessonID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: lesson %d", ErrNotFound, lessonID)
		}
		return nil, err
	}

	now := s.now()
	e := &models.Enrollment{
		LessonID:       lessonID,
		UserID:         caller.ID,
		Status:         models.EnrollmentActive,
		Progress:       0,
		EnrolledAt:     now,
		LastAccessDate: now,
		Version:        1,
	}
	if err := s.store.Create(e); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return e, nil
}

// Unenroll deletes the caller's own enrollment.
func (s *Service) Unenroll(caller Caller, id uint) error {
	e, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if e.UserID != caller.ID {
		return fmt.Errorf("%w: only the enrolled student may unenroll", ErrForbidden)
	}
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListForUser returns the caller's own enrollments.
func (s *Service) ListForUser(caller Caller) ([]models.Enrollment, error) {
	return s.store.ListByUser(caller.ID)
}

// ListForLesson returns a lesson's roster for its instructor or an admin.
func (s *Service) ListForLesson(caller Caller, lessonID uint) ([]models.Enrollment, error) {
	lesson, err := s.lessons.GetLesson(lessonID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: lesson %d", ErrNotFound, lessonID)
		}
		return nil, err
	}
	if caller.Role != RoleAdmin && lesson.InstructorID != caller.ID {
		return nil, fmt.Errorf("%w: not this lesson's instructor", ErrForbidden)
	}
	return s.store.ListByLesson(lessonID)
}

// UpdateProgress validates and applies one progress/status/time mutation for
// the caller's enrollment, then runs the completion side effects. The primary
// update is authoritative: hook failures are logged, never surfaced.
func (s *Service) UpdateProgress(caller Caller, id uint, ops []UpdateOp) (*models.Enrollment, error) {
	if err := validateOps(ops); err != nil {
		return nil, err
	}

	pre, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if pre.UserID != caller.ID {
		return nil, fmt.Errorf("%w: not your enrollment", ErrForbidden)
	}
	if err := s.checkLockGate(caller, pre); err != nil {
		return nil, err
	}

	updated, err := s.applyWithRetry(id, func(current *models.Enrollment) map[string]interface{} {
		return applyOps(current, ops)
	})
	if err != nil {
		return nil, err
	}

	s.runCompletionHook(pre, updated, ops)
	return updated, nil
}

// checkLockGate blocks a student-owned interaction once the lesson deadline
// has passed, unless a redo has been granted. Instructors and admins pass
// through, as do lessons without a deadline.
func (s *Service) checkLockGate(caller Caller, e *models.Enrollment) error {
	if caller.ID != e.UserID || caller.Role == RoleInstructor || caller.Role == RoleAdmin {
		return nil
	}
	if e.RedoGranted {
		return nil
	}
	lesson, err := s.lessons.GetLesson(e.LessonID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// No lesson means no deadline to enforce.
			log.Printf("[ENROLLMENT] Lock gate: lesson %d not found for enrollment %d, passing through", e.LessonID, e.ID)
			return nil
		}
		return err
	}
	if lesson.Deadline != nil && s.now().After(*lesson.Deadline) {
		return ErrLocked
	}
	return nil
}

// runCompletionHook fires when this call drove progress to 100 with a
// resulting completed status: it enqueues the attendance record and consumes
// a granted redo. Best-effort on top of an already-committed update.
func (s *Service) runCompletionHook(pre, updated *models.Enrollment, ops []UpdateOp) {
	staged100 := false
	for _, op := range ops {
		if p, ok := op.(ProgressSet); ok && p.Value == 100 {
			staged100 = true
		}
	}
	if !staged100 || updated.Status != models.EnrollmentCompleted {
		return
	}

	err := s.queue.Enqueue(outbox.KindAttendancePresent, outbox.AttendancePayload{
		StudentID: updated.UserID,
		LessonID:  updated.LessonID,
		Date:      s.now().Format("2006-01-02"),
		MarkedBy:  updated.UserID,
	})
	if err != nil {
		log.Printf("[ENROLLMENT] Failed to enqueue attendance for enrollment %d: %v", updated.ID, err)
	}

	if pre.RedoGranted {
		// Auto-relock: a granted redo authorizes exactly one completion.
		_, err := s.applyWithRetry(updated.ID, func(current *models.Enrollment) map[string]interface{} {
			return map[string]interface{}{"redo_granted": false}
		})
		if err != nil {
			log.Printf("[ENROLLMENT] Failed to consume redo grant on enrollment %d: %v", updated.ID, err)
		}
	}
}

// RequestRedo marks the caller's own enrollment as wanting a redo. It never
// touches the grant flag; that is the instructor's side.
func (s *Service) RequestRedo(caller Caller, id uint) (*models.Enrollment, error) {
	e, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if e.UserID != caller.ID {
		return nil, fmt.Errorf("%w: not your enrollment", ErrForbidden)
	}
	return s.applyWithRetry(id, func(current *models.Enrollment) map[string]interface{} {
		return map[string]interface{}{"redo_requested": true}
	})
}

// GrantRedo lets the lesson's instructor (or an admin) grant a one-time
// deadline bypass. Grant and request-clear commit as one update.
func (s *Service) GrantRedo(caller Caller, id uint) (*models.Enrollment, error) {
	e, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	lesson, err := s.lessons.GetLesson(e.LessonID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: lesson %d", ErrNotFound, e.LessonID)
		}
		return nil, err
	}
	if caller.Role != RoleAdmin && lesson.InstructorID != caller.ID {
		return nil, fmt.Errorf("%w: not this lesson's instructor", ErrForbidden)
	}
	return s.applyWithRetry(id, func(current *models.Enrollment) map[string]interface{} {
		return map[string]interface{}{
			"redo_granted":   true,
			"redo_requested": false,
		}
	})
}

// ListRedoRequests returns pending redo requests for lessons the caller
// instructs; admins see all of them.
func (s *Service) ListRedoRequests(caller Caller) ([]models.Enrollment, error) {
	if caller.Role == RoleAdmin {
		return s.store.ListRedoRequested(false, nil)
	}
	if caller.Role != RoleInstructor {
		return nil, fmt.Errorf("%w: instructor or admin only", ErrForbidden)
	}
	lessons, err := s.lessons.ListByInstructor(caller.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	return s.store.ListRedoRequested(true, ids)
}

// applyWithRetry re-reads the row and re-derives the column updates each time
// a write loses the version race, so the committed update is always computed
// from the snapshot it replaced.
func (s *Service) applyWithRetry(id uint, build func(*models.Enrollment) map[string]interface{}) (*models.Enrollment, error) {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		current, err := s.store.GetByID(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		updated, err := s.store.Update(id, current.Version, build(current))
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("enrollment %d: too much write contention", id)
}
