package clientRoutes

import (
	clientController "lms/controllers/client"
	"lms/middleware"
	clientValidator "lms/validators/client"

	"github.com/gofiber/fiber/v2"
)

func SetupClientRoutes(app *fiber.App, ctl *clientController.Controller) {
	clientGroup := app.Group("/client", middleware.JWTMiddleware)

	clientGroup.Post("/", clientValidator.CreateClient(), ctl.CreateClient)
	clientGroup.Get("/", ctl.ListClients)

	clientGroup.Post("/role", clientValidator.AssignRole(), ctl.AssignRole)
	clientGroup.Delete("/role", clientValidator.AssignRole(), ctl.RemoveRole)

	clientGroup.Get("/department/:departmentId", ctl.GetDepartment)
	clientGroup.Post("/department/:departmentId/group", clientValidator.CreateGroup(), ctl.CreateGroup)
	clientGroup.Get("/group/:groupId", ctl.GetGroup)

	clientGroup.Get("/:clientId", ctl.GetClient)
	clientGroup.Patch("/:clientId", clientValidator.UpdateClient(), ctl.UpdateClient)
	clientGroup.Patch("/:clientId/active", ctl.SetClientActive)
	clientGroup.Post("/:clientId/department", clientValidator.CreateDepartment(), ctl.CreateDepartment)

	clientGroup.Get("/:entityType/:entityId/users", ctl.UsersByEntity)
}
