package contentRoutes

import (
	contentController "lms/controllers/content"
	"lms/middleware"
	courseValidator "lms/validators/course"
	enrollmentValidator "lms/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

func SetupContentRoutes(app *fiber.App, ctl *contentController.Controller) {
	contentGroup := app.Group("/content")

	contentGroup.Get("/module/:moduleId", middleware.OptionalJWTMiddleware, ctl.ListContent)
	contentGroup.Post("/module/:moduleId", courseValidator.AddContent(), middleware.JWTMiddleware, ctl.AddContent)
	contentGroup.Patch("/module/:moduleId/reorder", courseValidator.Reorder(), middleware.JWTMiddleware, ctl.ReorderContent)

	contentGroup.Get("/course/:courseId/stats", middleware.JWTMiddleware, ctl.CourseStats)
	contentGroup.Post("/course/:courseId/item/:contentId/quiz", enrollmentValidator.SubmitQuiz(), middleware.JWTMiddleware, ctl.SubmitQuiz)
	contentGroup.Post("/course/:courseId/item/:contentId/assignment", enrollmentValidator.SubmitAssignment(), middleware.JWTMiddleware, ctl.SubmitAssignment)
	contentGroup.Post("/course/:courseId/item/:contentId/grade", enrollmentValidator.GradeAssignment(), middleware.JWTMiddleware, ctl.GradeAssignment)

	contentGroup.Get("/:contentId", middleware.OptionalJWTMiddleware, ctl.GetContent)
	contentGroup.Patch("/:contentId", courseValidator.UpdateContent(), middleware.JWTMiddleware, ctl.UpdateContent)
	contentGroup.Delete("/:contentId", middleware.JWTMiddleware, ctl.DeleteContent)
}
