package enrollmentRoutes

import (
	"github.com/gofiber/fiber/v2"

	"lms/config"
	controllers "lms/controllers/enrollment"
	"lms/middleware"
	"lms/services/enrollment"
	validators "lms/validators/enrollment"
)

// SetupEnrollmentRoutes wires all enrollment lifecycle routes
func SetupEnrollmentRoutes(app *fiber.App, cfg *config.Config, ctrl *controllers.Controller) {
	auth := middleware.JWTMiddleware(cfg)

	lessonGroup := app.Group("/lesson")
	lessonGroup.Post("/:id/enroll", auth, validators.EnrollLesson(), ctrl.Enroll)
	lessonGroup.Get("/:id/enrollments", auth,
		middleware.RequireRole(enrollment.RoleInstructor, enrollment.RoleAdmin),
		validators.EnrollLesson(), ctrl.ListLessonRoster)

	enrollmentGroup := app.Group("/enrollment")
	enrollmentGroup.Delete("/:id", auth, validators.EnrollmentID(), ctrl.Unenroll)
	enrollmentGroup.Patch("/:id/progress", auth, validators.EnrollmentID(), validators.UpdateProgress(), ctrl.UpdateProgress)
	enrollmentGroup.Post("/:id/redo/request", auth, validators.EnrollmentID(), ctrl.RequestRedo)
	enrollmentGroup.Post("/:id/redo/grant", auth,
		middleware.RequireRole(enrollment.RoleInstructor, enrollment.RoleAdmin),
		validators.EnrollmentID(), ctrl.GrantRedo)

	app.Get("/redo/requests", auth,
		middleware.RequireRole(enrollment.RoleInstructor, enrollment.RoleAdmin),
		ctrl.ListRedoRequests)

	app.Get("/user/enrollments", auth, ctrl.ListMyEnrollments)
}
