package clientValidator

import (
	"lms/middleware"
	"lms/services/tenant"
	"lms/validators"

	"github.com/gofiber/fiber/v2"
)

// CreateClient validator middleware
func CreateClient() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(tenant.CreateClientInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.CheckStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedClient", reqData)
		return c.Next()
	}
}

// UpdateClient validator middleware
func UpdateClient() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(tenant.UpdateClientInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.CheckStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedClientUpdate", reqData)
		return c.Next()
	}
}

// CreateDepartment validator middleware
func CreateDepartment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(tenant.CreateDepartmentInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.CheckStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedDepartment", reqData)
		return c.Next()
	}
}

// CreateGroup validator middleware
func CreateGroup() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(tenant.CreateGroupInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.CheckStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedGroup", reqData)
		return c.Next()
	}
}

// RoleRequest is the parsed body for role assignment and removal.
type RoleRequest struct {
	UserID     uint   `json:"user_id" validate:"required"`
	EntityType string `json:"entity_type" validate:"required"`
	EntityID   uint   `json:"entity_id" validate:"required"`
	Role       string `json:"role" validate:"required"`
}

// AssignRole validator middleware; also used for removal.
func AssignRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(RoleRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.CheckStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRole", reqData)
		return c.Next()
	}
}
