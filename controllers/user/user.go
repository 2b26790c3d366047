package userController

import (
	"lms/middleware"
	"lms/services/access"
	"lms/services/auth"
	"lms/services/tenant"
	"lms/validators"

	"github.com/gofiber/fiber/v2"
)

// Controller serves profile and role lookups for the signed-in user.
type Controller struct {
	users  *auth.Service
	tenant *tenant.Service
	access *access.Evaluator
}

func New(users *auth.Service, tenantSvc *tenant.Service, eval *access.Evaluator) *Controller {
	return &Controller{users: users, tenant: tenantSvc, access: eval}
}

func (ctl *Controller) Profile(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)

	user, err := ctl.users.GetUser(userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully!", user)
}

func (ctl *Controller) UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	input := c.Locals("validatedProfile").(*auth.UpdateProfileInput)

	user, err := ctl.users.UpdateProfile(userID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully!", user)
}

func (ctl *Controller) MyRoles(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)

	roles, err := ctl.tenant.UserRoles(userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Roles fetched successfully!", roles)
}

// SearchUsers is restricted to system administrators.
func (ctl *Controller) SearchUsers(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)

	isAdmin, err := ctl.access.IsSystemAdmin(userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if !isAdmin {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Admin access required!", nil)
	}

	term := c.Query("q")
	if term == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Search term is required!", nil)
	}

	_, limit := validators.ParsePagination(c)
	users, err := ctl.users.SearchUsers(term, limit)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully!", users)
}
