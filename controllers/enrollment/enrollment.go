package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"lms/middleware"
	"lms/services/enrollment"
)

type Controller struct {
	svc *enrollment.Service
}

func NewController(svc *enrollment.Service) *Controller {
	return &Controller{svc: svc}
}

func callerFrom(c *fiber.Ctx) (enrollment.Caller, bool) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return enrollment.Caller{}, false
	}
	role, _ := c.Locals("role").(string)
	return enrollment.Caller{ID: userID, Role: role}, true
}

// respondServiceError maps the service error taxonomy onto HTTP codes.
// Locked gets its own status so clients can offer a redo request.
func respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, enrollment.ErrInvalidInput):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
	case errors.Is(err, enrollment.ErrForbidden):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, err.Error(), nil)
	case errors.Is(err, enrollment.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, err.Error(), nil)
	case errors.Is(err, enrollment.ErrConflict):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this lesson!", nil)
	case errors.Is(err, enrollment.ErrLocked):
		return middleware.JsonResponse(c, fiber.StatusLocked, false, "Lesson deadline has passed. Request a redo to continue.", nil)
	default:
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Something went wrong!", nil)
	}
}

// Enroll creates an enrollment for the caller in the lesson.
func (ctrl *Controller) Enroll(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	lessonID := c.Locals("lessonID").(uint)

	e, err := ctrl.svc.Enroll(caller, lessonID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in lesson successfully!", e)
}

// Unenroll deletes the caller's own enrollment.
func (ctrl *Controller) Unenroll(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	id := c.Locals("enrollmentID").(uint)

	if err := ctrl.svc.Unenroll(caller, id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateProgress applies the staged update ops to the caller's enrollment.
func (ctrl *Controller) UpdateProgress(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	id := c.Locals("enrollmentID").(uint)
	ops := c.Locals("progressOps").([]enrollment.UpdateOp)

	e, err := ctrl.svc.UpdateProgress(caller, id, ops)
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", e)
}

// ListMyEnrollments returns the caller's enrollments.
func (ctrl *Controller) ListMyEnrollments(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	list, err := ctrl.svc.ListForUser(caller)
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", list)
}

// ListLessonRoster returns a lesson's enrollments for its instructor/admin.
func (ctrl *Controller) ListLessonRoster(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	lessonID := c.Locals("lessonID").(uint)

	list, err := ctrl.svc.ListForLesson(caller, lessonID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson roster fetched successfully!", list)
}
