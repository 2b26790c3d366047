package middleware

import (
	"log"

	"lms/apperr"
	"lms/config"

	"github.com/gofiber/fiber/v2"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}

// ErrorResponse maps a service error to an HTTP response. Internal
// detail is only exposed outside production.
func ErrorResponse(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	status := statusForKind(kind)

	message := err.Error()
	if kind == apperr.KindInternal {
		log.Printf("internal error on %s %s: %v", c.Method(), c.Path(), err)
		if config.AppConfig == nil || config.AppConfig.Env == "production" {
			message = "Internal server error"
		}
	}

	return JsonResponse(c, status, false, message, nil)
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindAccessDenied, apperr.KindPermissionDenied:
		return fiber.StatusForbidden
	case apperr.KindNotEnrolled, apperr.KindInvalidArgument:
		return fiber.StatusBadRequest
	case apperr.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
