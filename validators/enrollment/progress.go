package enrollmentValidator

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"lms/middleware"
	"lms/services/enrollment"
)

var validate = validator.New()

type progressUpdateRequest struct {
	Progress         *int       `json:"progress" validate:"omitempty,min=0,max=100"`
	Status           *string    `json:"status" validate:"omitempty,oneof=active completed"`
	TimeSpentSeconds *int64     `json:"time_spent_seconds" validate:"omitempty,min=0"`
	LastAccessDate   *time.Time `json:"last_access_date"`
}

// UpdateProgress parses the patch body into explicit update ops so field
// precedence is fixed before the service ever sees the request.
func UpdateProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(progressUpdateRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Progress == nil && reqData.Status == nil &&
			reqData.TimeSpentSeconds == nil && reqData.LastAccessDate == nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "At least one update field is required!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "Progress":
					errors["progress"] = "Progress must be between 0 and 100!"
				case "Status":
					errors["status"] = "Status must be active or completed!"
				case "TimeSpentSeconds":
					errors["time_spent_seconds"] = "Time spent delta must not be negative!"
				}
			}
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Validation failed!", errors)
		}

		var ops []enrollment.UpdateOp
		if reqData.Progress != nil {
			ops = append(ops, enrollment.ProgressSet{Value: *reqData.Progress})
		}
		if reqData.Status != nil {
			ops = append(ops, enrollment.StatusOverride{Value: *reqData.Status})
		}
		if reqData.TimeSpentSeconds != nil {
			ops = append(ops, enrollment.TimeIncrement{Delta: *reqData.TimeSpentSeconds})
		}
		if reqData.LastAccessDate != nil {
			ops = append(ops, enrollment.AccessTouch{At: *reqData.LastAccessDate})
		}

		c.Locals("progressOps", ops)
		return c.Next()
	}
}
