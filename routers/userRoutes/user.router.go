package userRoutes

import (
	userController "lms/controllers/user"
	"lms/middleware"
	authValidator "lms/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, ctl *userController.Controller) {
	userGroup := app.Group("/user")

	userGroup.Get("/profile", middleware.JWTMiddleware, ctl.Profile)
	userGroup.Patch("/profile", authValidator.UpdateProfile(), middleware.JWTMiddleware, ctl.UpdateProfile)
	userGroup.Get("/roles", middleware.JWTMiddleware, ctl.MyRoles)
	userGroup.Get("/search", middleware.JWTMiddleware, ctl.SearchUsers)
}
