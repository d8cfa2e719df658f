package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"lms/models"
)

var (
	// ErrNotFound means no enrollment exists for the given key.
	ErrNotFound = errors.New("enrollment not found")
	// ErrDuplicate means an enrollment already exists for the (lesson, user) pair.
	ErrDuplicate = errors.New("enrollment already exists for this lesson and user")
	// ErrVersionConflict means the update carried a stale version; the caller
	// must re-read and retry.
	ErrVersionConflict = errors.New("enrollment was modified concurrently")
)

// EnrollmentStore is the only write path to enrollment rows. Every update is
// version-checked so concurrent writers cannot silently overwrite each other.
type EnrollmentStore struct {
	db *gorm.DB
}

func NewEnrollmentStore(db *gorm.DB) *EnrollmentStore {
	return &EnrollmentStore{db: db}
}

func (s *EnrollmentStore) Create(e *models.Enrollment) error {
	if err := s.db.Create(e).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *EnrollmentStore) GetByID(id uint) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := s.db.Where("id = ?", id).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *EnrollmentStore) GetByLessonAndUser(lessonID, userID uint) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := s.db.Where("lesson_id = ? AND user_id = ?", lessonID, userID).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *EnrollmentStore) ListByLesson(lessonID uint) ([]models.Enrollment, error) {
	var out []models.Enrollment
	err := s.db.Where("lesson_id = ?", lessonID).Order("created_at desc").Find(&out).Error
	return out, err
}

func (s *EnrollmentStore) ListByUser(userID uint) ([]models.Enrollment, error) {
	var out []models.Enrollment
	err := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&out).Error
	return out, err
}

func (s *EnrollmentStore) ListAll() ([]models.Enrollment, error) {
	var out []models.Enrollment
	err := s.db.Order("id asc").Find(&out).Error
	return out, err
}

// ListRedoRequested returns pending redo requests, optionally limited to a
// set of lessons. An empty lessonIDs slice with scoped=true yields nothing.
func (s *EnrollmentStore) ListRedoRequested(scoped bool, lessonIDs []uint) ([]models.Enrollment, error) {
	q := s.db.Where("redo_requested = ?", true)
	if scoped {
		if len(lessonIDs) == 0 {
			return []models.Enrollment{}, nil
		}
		q = q.Where("lesson_id IN ?", lessonIDs)
	}
	var out []models.Enrollment
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

// Update merges fields into the enrollment identified by id, provided the row
// still carries the given version. The version is bumped and last_access_date
// refreshed on every commit unless the caller staged its own value. ID and
// EnrolledAt are never touched.
func (s *EnrollmentStore) Update(id uint, version int64, fields map[string]interface{}) (*models.Enrollment, error) {
	merged := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		merged[k] = v
	}
	if _, ok := merged["last_access_date"]; !ok {
		merged["last_access_date"] = time.Now()
	}
	merged["version"] = version + 1

	res := s.db.Model(&models.Enrollment{}).
		Where("id = ? AND version = ?", id, version).
		Updates(merged)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Either the row is gone or someone committed in between.
		if _, err := s.GetByID(id); err != nil {
			return nil, err
		}
		return nil, ErrVersionConflict
	}
	return s.GetByID(id)
}

// Delete removes the row outright so the (lesson, user) pair frees up for a
// future re-enrollment.
func (s *EnrollmentStore) Delete(id uint) error {
	res := s.db.Unscoped().Delete(&models.Enrollment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
