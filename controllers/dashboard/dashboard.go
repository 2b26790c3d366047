package dashboardController

import (
	"lms/middleware"
	"lms/services/enroll"

	"github.com/gofiber/fiber/v2"
)

// Controller serves the learner dashboard and its analytics pieces.
type Controller struct {
	enroll *enroll.Service
}

func New(enrollSvc *enroll.Service) *Controller {
	return &Controller{enroll: enrollSvc}
}

func (ctl *Controller) Dashboard(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)

	dashboard, err := ctl.enroll.GetDashboard(userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", dashboard)
}

func (ctl *Controller) UpcomingTasks(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)

	tasks, err := ctl.enroll.UpcomingTasks(userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Upcoming tasks fetched successfully!", tasks)
}

func (ctl *Controller) RecentActivity(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)

	activity, err := ctl.enroll.RecentActivity(userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Recent activity fetched successfully!", activity)
}

func (ctl *Controller) PerformanceMetrics(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)

	metrics, err := ctl.enroll.GetPerformanceMetrics(userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Performance metrics fetched successfully!", metrics)
}

func (ctl *Controller) CompletionStats(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)

	stats, err := ctl.enroll.GetCompletionStats(userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Completion stats fetched successfully!", stats)
}

func (ctl *Controller) TimeSpentStats(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)

	stats, err := ctl.enroll.GetTimeSpentStats(userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Time spent stats fetched successfully!", stats)
}
