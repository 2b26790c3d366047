package enrollmentRoutes

import (
	enrollmentController "lms/controllers/enrollment"
	"lms/middleware"
	enrollmentValidator "lms/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

func SetupEnrollmentRoutes(app *fiber.App, ctl *enrollmentController.Controller) {
	enrollmentGroup := app.Group("/enrollment", middleware.JWTMiddleware)

	enrollmentGroup.Get("/me", ctl.MyEnrollments)
	enrollmentGroup.Post("/course/:courseId", ctl.Enroll)
	enrollmentGroup.Delete("/course/:courseId", ctl.Drop)
	enrollmentGroup.Get("/course/:courseId", ctl.CourseEnrollments)

	enrollmentGroup.Get("/course/:courseId/progress", ctl.MyProgress)
	enrollmentGroup.Post("/course/:courseId/item/:contentId/progress",
		enrollmentValidator.RecordProgress(), ctl.RecordProgress)
}
