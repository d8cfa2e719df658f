package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lms/config"
	controllers "lms/controllers/enrollment"
	"lms/middleware"
	"lms/models"
	"lms/routers/enrollmentRoutes"
	"lms/services/enrollment"
	"lms/services/outbox"
	"lms/store"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Lesson{},
		&models.Enrollment{},
		&models.AttendanceRecord{},
		&models.OutboxTask{},
	))

	cfg := &config.Config{JWTKey: "test-secret"}
	svc := enrollment.NewService(
		store.NewEnrollmentStore(db),
		store.NewLessonDirectory(db),
		outbox.NewQueue(db),
	)

	app := fiber.New()
	enrollmentRoutes.SetupEnrollmentRoutes(app, cfg, controllers.NewController(svc))
	return &testEnv{app: app, db: db, cfg: cfg}
}

func (env *testEnv) seedUser(t *testing.T, email, role string) (models.User, string) {
	u := models.User{FirstName: "Test", Email: email, Role: role}
	require.NoError(t, env.db.Create(&u).Error)
	token, err := middleware.GenerateJWT(env.cfg, u.ID, u.FirstName, u.Role, u.Email)
	require.NoError(t, err)
	return u, "Bearer " + token
}

func (env *testEnv) seedLesson(t *testing.T, instructorID uint, deadline *time.Time) models.Lesson {
	l := models.Lesson{Title: "Algebra I", InstructorID: instructorID, Deadline: deadline}
	require.NoError(t, env.db.Create(&l).Error)
	return l
}

func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := env.app.Test(req)
	require.NoError(t, err)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func TestEnrollEndpoint(t *testing.T) {
	env := newTestEnv(t)
	teacher, _ := env.seedUser(t, "t@example.com", "INSTRUCTOR")
	_, studentToken := env.seedUser(t, "s@example.com", "STUDENT")
	lesson := env.seedLesson(t, teacher.ID, nil)

	code, result := env.do(t, "POST", fmt.Sprintf("/lesson/%d/enroll", lesson.ID), studentToken, nil)
	assert.Equal(t, fiber.StatusCreated, code)
	data := result["data"].(map[string]interface{})
	assert.Equal(t, "active", data["status"])
	assert.Equal(t, float64(0), data["progress"])

	// Enrolling twice conflicts.
	code, _ = env.do(t, "POST", fmt.Sprintf("/lesson/%d/enroll", lesson.ID), studentToken, nil)
	assert.Equal(t, fiber.StatusConflict, code)

	// Unknown lesson, bad id, and missing token.
	code, _ = env.do(t, "POST", "/lesson/999/enroll", studentToken, nil)
	assert.Equal(t, fiber.StatusNotFound, code)
	code, _ = env.do(t, "POST", "/lesson/abc/enroll", studentToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = env.do(t, "POST", fmt.Sprintf("/lesson/%d/enroll", lesson.ID), "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestProgressEndpoint(t *testing.T) {
	env := newTestEnv(t)
	teacher, _ := env.seedUser(t, "t@example.com", "INSTRUCTOR")
	_, studentToken := env.seedUser(t, "s@example.com", "STUDENT")
	_, otherToken := env.seedUser(t, "o@example.com", "STUDENT")
	lesson := env.seedLesson(t, teacher.ID, nil)

	code, result := env.do(t, "POST", fmt.Sprintf("/lesson/%d/enroll", lesson.ID), studentToken, nil)
	require.Equal(t, fiber.StatusCreated, code)
	id := uint(result["data"].(map[string]interface{})["ID"].(float64))

	patchURL := fmt.Sprintf("/enrollment/%d/progress", id)

	code, result = env.do(t, "PATCH", patchURL, studentToken, map[string]interface{}{"progress": 50})
	assert.Equal(t, fiber.StatusOK, code)
	data := result["data"].(map[string]interface{})
	assert.Equal(t, float64(50), data["progress"])
	assert.Equal(t, "active", data["status"])

	code, result = env.do(t, "PATCH", patchURL, studentToken, map[string]interface{}{"progress": 100})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "completed", result["data"].(map[string]interface{})["status"])

	// Validation failures.
	code, _ = env.do(t, "PATCH", patchURL, studentToken, map[string]interface{}{"progress": 150})
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = env.do(t, "PATCH", patchURL, studentToken, map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, code)

	// Ownership and existence.
	code, _ = env.do(t, "PATCH", patchURL, otherToken, map[string]interface{}{"progress": 10})
	assert.Equal(t, fiber.StatusForbidden, code)
	code, _ = env.do(t, "PATCH", "/enrollment/999/progress", studentToken, map[string]interface{}{"progress": 10})
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestTimeSpentAccumulatesOverPatches(t *testing.T) {
	env := newTestEnv(t)
	teacher, _ := env.seedUser(t, "t@example.com", "INSTRUCTOR")
	_, studentToken := env.seedUser(t, "s@example.com", "STUDENT")
	lesson := env.seedLesson(t, teacher.ID, nil)

	code, result := env.do(t, "POST", fmt.Sprintf("/lesson/%d/enroll", lesson.ID), studentToken, nil)
	require.Equal(t, fiber.StatusCreated, code)
	id := uint(result["data"].(map[string]interface{})["ID"].(float64))
	patchURL := fmt.Sprintf("/enrollment/%d/progress", id)

	code, _ = env.do(t, "PATCH", patchURL, studentToken, map[string]interface{}{"time_spent_seconds": 10})
	require.Equal(t, fiber.StatusOK, code)
	code, result = env.do(t, "PATCH", patchURL, studentToken, map[string]interface{}{"time_spent_seconds": 10})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, float64(20), result["data"].(map[string]interface{})["time_spent_seconds"])
}

func TestRedoEndpoints(t *testing.T) {
	env := newTestEnv(t)
	teacher, teacherToken := env.seedUser(t, "t@example.com", "INSTRUCTOR")
	_, studentToken := env.seedUser(t, "s@example.com", "STUDENT")
	past := time.Now().Add(-time.Hour)
	lesson := env.seedLesson(t, teacher.ID, &past)

	code, result := env.do(t, "POST", fmt.Sprintf("/lesson/%d/enroll", lesson.ID), studentToken, nil)
	require.Equal(t, fiber.StatusCreated, code)
	id := uint(result["data"].(map[string]interface{})["ID"].(float64))
	patchURL := fmt.Sprintf("/enrollment/%d/progress", id)

	// Deadline has passed: locked.
	code, _ = env.do(t, "PATCH", patchURL, studentToken, map[string]interface{}{"progress": 10})
	assert.Equal(t, fiber.StatusLocked, code)

	code, result = env.do(t, "POST", fmt.Sprintf("/enrollment/%d/redo/request", id), studentToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, result["data"].(map[string]interface{})["redo_requested"])

	// Students cannot reach the grant route at all.
	code, _ = env.do(t, "POST", fmt.Sprintf("/enrollment/%d/redo/grant", id), studentToken, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	// The pending request shows up for the lesson's instructor.
	code, result = env.do(t, "GET", "/redo/requests", teacherToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, result["data"].([]interface{}), 1)

	code, result = env.do(t, "POST", fmt.Sprintf("/enrollment/%d/redo/grant", id), teacherToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	data := result["data"].(map[string]interface{})
	assert.Equal(t, true, data["redo_granted"])
	assert.Equal(t, false, data["redo_requested"])

	// Granted redo reopens the enrollment; completing it consumes the grant.
	code, _ = env.do(t, "PATCH", patchURL, studentToken, map[string]interface{}{"progress": 100})
	assert.Equal(t, fiber.StatusOK, code)

	var fresh models.Enrollment
	require.NoError(t, env.db.First(&fresh, id).Error)
	assert.False(t, fresh.RedoGranted)

	code, _ = env.do(t, "PATCH", patchURL, studentToken, map[string]interface{}{"progress": 10})
	assert.Equal(t, fiber.StatusLocked, code)
}

func TestUnenrollEndpoint(t *testing.T) {
	env := newTestEnv(t)
	teacher, _ := env.seedUser(t, "t@example.com", "INSTRUCTOR")
	_, studentToken := env.seedUser(t, "s@example.com", "STUDENT")
	_, otherToken := env.seedUser(t, "o@example.com", "STUDENT")
	lesson := env.seedLesson(t, teacher.ID, nil)

	code, result := env.do(t, "POST", fmt.Sprintf("/lesson/%d/enroll", lesson.ID), studentToken, nil)
	require.Equal(t, fiber.StatusCreated, code)
	id := uint(result["data"].(map[string]interface{})["ID"].(float64))

	code, _ = env.do(t, "DELETE", fmt.Sprintf("/enrollment/%d", id), otherToken, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = env.do(t, "DELETE", fmt.Sprintf("/enrollment/%d", id), studentToken, nil)
	assert.Equal(t, fiber.StatusNoContent, code)

	code, _ = env.do(t, "DELETE", fmt.Sprintf("/enrollment/%d", id), studentToken, nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestRosterEndpoint(t *testing.T) {
	env := newTestEnv(t)
	teacher, teacherToken := env.seedUser(t, "t@example.com", "INSTRUCTOR")
	_, outsiderToken := env.seedUser(t, "x@example.com", "INSTRUCTOR")
	_, studentToken := env.seedUser(t, "s@example.com", "STUDENT")
	lesson := env.seedLesson(t, teacher.ID, nil)

	code, _ := env.do(t, "POST", fmt.Sprintf("/lesson/%d/enroll", lesson.ID), studentToken, nil)
	require.Equal(t, fiber.StatusCreated, code)

	rosterURL := fmt.Sprintf("/lesson/%d/enrollments", lesson.ID)

	code, result := env.do(t, "GET", rosterURL, teacherToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, result["data"].([]interface{}), 1)

	// Students are cut off by the role gate; foreign instructors by ownership.
	code, _ = env.do(t, "GET", rosterURL, studentToken, nil)
	assert.Equal(t, fiber.StatusForbidden, code)
	code, _ = env.do(t, "GET", rosterURL, outsiderToken, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, result = env.do(t, "GET", "/user/enrollments", studentToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, result["data"].([]interface{}), 1)
}
