package clientController

import (
	"lms/middleware"
	"lms/services/access"
	"lms/services/tenant"
	"lms/validators"
	clientValidator "lms/validators/client"

	"github.com/gofiber/fiber/v2"
)

// Controller serves client, department, group, and role administration.
type Controller struct {
	tenant *tenant.Service
	access *access.Evaluator
}

func New(tenantSvc *tenant.Service, eval *access.Evaluator) *Controller {
	return &Controller{tenant: tenantSvc, access: eval}
}

func (ctl *Controller) requireSystemAdmin(c *fiber.Ctx) (uint, bool, error) {
	userID := c.Locals("userId").(uint)
	isAdmin, err := ctl.access.IsSystemAdmin(userID)
	return userID, isAdmin, err
}

func (ctl *Controller) requireManager(c *fiber.Ctx, entityType string, entityID uint) error {
	userID := c.Locals("userId").(uint)
	ok, err := ctl.access.CanManageEntity(entityType, entityID, userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false,
			"You do not have permission to manage this entity!", nil)
	}
	return nil
}

func (ctl *Controller) CreateClient(c *fiber.Ctx) error {
	_, isAdmin, err := ctl.requireSystemAdmin(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if !isAdmin {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Admin access required!", nil)
	}

	input := c.Locals("validatedClient").(*tenant.CreateClientInput)
	client, err := ctl.tenant.CreateClient(*input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Client created successfully!", client)
}

func (ctl *Controller) GetClient(c *fiber.Ctx) error {
	clientID, ok := validators.ParseID(c, "clientId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid client id!", nil)
	}
	if resp := ctl.requireManager(c, "client", clientID); resp != nil {
		return resp
	}

	detail, err := ctl.tenant.GetClient(clientID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Client fetched successfully!", detail)
}

func (ctl *Controller) ListClients(c *fiber.Ctx) error {
	_, isAdmin, err := ctl.requireSystemAdmin(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if !isAdmin {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Admin access required!", nil)
	}

	activeOnly := c.Query("active") == "true"
	clients, err := ctl.tenant.ListClients(activeOnly)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Clients fetched successfully!", clients)
}

func (ctl *Controller) UpdateClient(c *fiber.Ctx) error {
	clientID, ok := validators.ParseID(c, "clientId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid client id!", nil)
	}
	if resp := ctl.requireManager(c, "client", clientID); resp != nil {
		return resp
	}

	input := c.Locals("validatedClientUpdate").(*tenant.UpdateClientInput)
	client, err := ctl.tenant.UpdateClient(clientID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Client updated successfully!", client)
}

// SetClientActive toggles a client without touching its children.
func (ctl *Controller) SetClientActive(c *fiber.Ctx) error {
	_, isAdmin, err := ctl.requireSystemAdmin(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if !isAdmin {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Admin access required!", nil)
	}

	clientID, ok := validators.ParseID(c, "clientId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid client id!", nil)
	}

	reqData := new(struct {
		Active *bool `json:"active" validate:"required"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.Active == nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	client, err := ctl.tenant.SetClientActive(clientID, *reqData.Active)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Client updated successfully!", client)
}

func (ctl *Controller) CreateDepartment(c *fiber.Ctx) error {
	clientID, ok := validators.ParseID(c, "clientId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid client id!", nil)
	}
	if resp := ctl.requireManager(c, "client", clientID); resp != nil {
		return resp
	}

	input := c.Locals("validatedDepartment").(*tenant.CreateDepartmentInput)
	department, err := ctl.tenant.CreateDepartment(clientID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Department created successfully!", department)
}

func (ctl *Controller) GetDepartment(c *fiber.Ctx) error {
	departmentID, ok := validators.ParseID(c, "departmentId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid department id!", nil)
	}
	if resp := ctl.requireManager(c, "department", departmentID); resp != nil {
		return resp
	}

	detail, err := ctl.tenant.GetDepartment(departmentID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Department fetched successfully!", detail)
}

func (ctl *Controller) CreateGroup(c *fiber.Ctx) error {
	departmentID, ok := validators.ParseID(c, "departmentId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid department id!", nil)
	}
	if resp := ctl.requireManager(c, "department", departmentID); resp != nil {
		return resp
	}

	input := c.Locals("validatedGroup").(*tenant.CreateGroupInput)
	group, err := ctl.tenant.CreateGroup(departmentID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Group created successfully!", group)
}

func (ctl *Controller) GetGroup(c *fiber.Ctx) error {
	groupID, ok := validators.ParseID(c, "groupId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid group id!", nil)
	}
	if resp := ctl.requireManager(c, "group", groupID); resp != nil {
		return resp
	}

	detail, err := ctl.tenant.GetGroup(groupID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Group fetched successfully!", detail)
}

func (ctl *Controller) AssignRole(c *fiber.Ctx) error {
	req := c.Locals("validatedRole").(*clientValidator.RoleRequest)
	if resp := ctl.requireManager(c, req.EntityType, req.EntityID); resp != nil {
		return resp
	}

	grant, err := ctl.tenant.AssignRole(req.UserID, req.EntityType, req.EntityID, req.Role)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Role assigned successfully!", grant)
}

func (ctl *Controller) RemoveRole(c *fiber.Ctx) error {
	req := c.Locals("validatedRole").(*clientValidator.RoleRequest)
	if resp := ctl.requireManager(c, req.EntityType, req.EntityID); resp != nil {
		return resp
	}

	if err := ctl.tenant.RemoveRole(req.UserID, req.EntityType, req.EntityID, req.Role); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Role removed successfully!", nil)
}

func (ctl *Controller) UsersByEntity(c *fiber.Ctx) error {
	entityType := c.Params("entityType")
	entityID, ok := validators.ParseID(c, "entityId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid entity id!", nil)
	}
	if resp := ctl.requireManager(c, entityType, entityID); resp != nil {
		return resp
	}

	users, err := ctl.tenant.UsersByEntity(entityType, entityID, c.Query("role"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully!", users)
}
