package courseRoutes

import (
	courseController "lms/controllers/course"
	"lms/middleware"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

func SetupCourseRoutes(app *fiber.App, ctl *courseController.Controller) {
	courseGroup := app.Group("/course")

	// Reads work anonymously; visibility narrows to public courses.
	courseGroup.Get("/", middleware.OptionalJWTMiddleware, ctl.ListCourses)
	courseGroup.Get("/popular", ctl.PopularCourses)
	courseGroup.Get("/recent", ctl.RecentCourses)
	courseGroup.Get("/owner/:ownerType/:ownerId?", middleware.OptionalJWTMiddleware, ctl.CoursesByOwner)

	courseGroup.Post("/", courseValidator.CreateCourse(), middleware.JWTMiddleware, ctl.CreateCourse)
	courseGroup.Get("/:courseId", middleware.OptionalJWTMiddleware, ctl.GetCourse)
	courseGroup.Patch("/:courseId", courseValidator.UpdateCourse(), middleware.JWTMiddleware, ctl.UpdateCourse)
	courseGroup.Delete("/:courseId", middleware.JWTMiddleware, ctl.DeleteCourse)

	courseGroup.Get("/:courseId/modules", middleware.OptionalJWTMiddleware, ctl.ListModules)
	courseGroup.Post("/:courseId/module", courseValidator.AddModule(), middleware.JWTMiddleware, ctl.AddModule)
	courseGroup.Patch("/:courseId/modules/reorder", courseValidator.Reorder(), middleware.JWTMiddleware, ctl.ReorderModules)

	moduleGroup := app.Group("/module", middleware.JWTMiddleware)
	moduleGroup.Patch("/:moduleId", courseValidator.UpdateModule(), ctl.UpdateModule)
	moduleGroup.Delete("/:moduleId", ctl.DeleteModule)
}
