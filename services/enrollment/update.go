package enrollment

import (
	"fmt"
	"time"

	"lms/models"
)

// UpdateOp is one staged mutation of an enrollment. A progress update request
// is parsed into a list of ops up front, then applied deterministically:
// ProgressSet(100) forces completed and wins over any StatusOverride;
// ProgressSet below 100 reverts to active unless a StatusOverride is staged;
// TimeIncrement always adds to the stored total, never replaces it.
type UpdateOp interface {
	isUpdateOp()
}

// ProgressSet stages an absolute progress value in [0,100].
type ProgressSet struct {
	Value int
}

// StatusOverride stages a manual status. Only active and completed are
// accepted; missed is reserved for the deadline sweep.
type StatusOverride struct {
	Value string
}

// TimeIncrement stages a non-negative delta added to TimeSpentSeconds.
type TimeIncrement struct {
	Delta int64
}

// AccessTouch stages an explicit last-access timestamp.
type AccessTouch struct {
	At time.Time
}

func (ProgressSet) isUpdateOp()    {}
func (StatusOverride) isUpdateOp() {}
func (TimeIncrement) isUpdateOp()  {}
func (AccessTouch) isUpdateOp()    {}

// validateOps rejects empty or out-of-range op lists before anything is read
// from the store.
func validateOps(ops []UpdateOp) error {
	if len(ops) == 0 {
		return fmt.Errorf("%w: no update fields supplied", ErrInvalidInput)
	}
	for _, op := range ops {
		switch v := op.(type) {
		case ProgressSet:
			if v.Value < 0 || v.Value > 100 {
				return fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidInput)
			}
		case StatusOverride:
			if v.Value != models.EnrollmentActive && v.Value != models.EnrollmentCompleted {
				return fmt.Errorf("%w: status must be active or completed", ErrInvalidInput)
			}
		case TimeIncrement:
			if v.Delta < 0 {
				return fmt.Errorf("%w: time_spent_seconds delta must not be negative", ErrInvalidInput)
			}
		}
	}
	return nil
}

// applyOps computes the column updates for one enrollment snapshot.
func applyOps(current *models.Enrollment, ops []UpdateOp) map[string]interface{} {
	fields := make(map[string]interface{})

	var progress *int
	var override *string
	for _, op := range ops {
		switch v := op.(type) {
		case ProgressSet:
			p := v.Value
			progress = &p
		case StatusOverride:
			s := v.Value
			override = &s
		case TimeIncrement:
			fields["time_spent_seconds"] = current.TimeSpentSeconds + v.Delta
		case AccessTouch:
			fields["last_access_date"] = v.At
		}
	}

	if progress != nil {
		fields["progress"] = *progress
		switch {
		case *progress == 100:
			// Completion is derived, not client-chosen.
			fields["status"] = models.EnrollmentCompleted
		case override != nil:
			fields["status"] = *override
		default:
			fields["status"] = models.EnrollmentActive
		}
	} else if override != nil {
		fields["status"] = *override
	}

	return fields
}
