package dashboardRoutes

import (
	dashboardController "lms/controllers/dashboard"
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupDashboardRoutes(app *fiber.App, ctl *dashboardController.Controller) {
	dashboardGroup := app.Group("/dashboard", middleware.JWTMiddleware)

	dashboardGroup.Get("/", ctl.Dashboard)
	dashboardGroup.Get("/tasks", ctl.UpcomingTasks)
	dashboardGroup.Get("/activity", ctl.RecentActivity)
	dashboardGroup.Get("/performance", ctl.PerformanceMetrics)
	dashboardGroup.Get("/completion", ctl.CompletionStats)
	dashboardGroup.Get("/time", ctl.TimeSpentStats)
}
