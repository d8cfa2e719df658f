package controllers

import (
	"github.com/gofiber/fiber/v2"

	"lms/middleware"
)

// RequestRedo lets a student flag their locked enrollment for a redo.
func (ctrl *Controller) RequestRedo(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	id := c.Locals("enrollmentID").(uint)

	e, err := ctrl.svc.RequestRedo(caller, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Redo requested successfully!", e)
}

// GrantRedo lets the lesson's instructor or an admin grant a one-time redo.
func (ctrl *Controller) GrantRedo(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	id := c.Locals("enrollmentID").(uint)

	e, err := ctrl.svc.GrantRedo(caller, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Redo granted successfully!", e)
}

// ListRedoRequests returns pending redo requests scoped to the caller's lessons.
func (ctrl *Controller) ListRedoRequests(c *fiber.Ctx) error {
	caller, ok := callerFrom(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	list, err := ctrl.svc.ListRedoRequests(caller)
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Redo requests fetched successfully!", list)
}
