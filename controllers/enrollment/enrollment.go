package enrollmentController

import (
	"lms/middleware"
	"lms/services/enroll"
	"lms/validators"

	"github.com/gofiber/fiber/v2"
)

// Controller serves enrollment and progress endpoints.
type Controller struct {
	enroll *enroll.Service
}

func New(enrollSvc *enroll.Service) *Controller {
	return &Controller{enroll: enrollSvc}
}

func (ctl *Controller) Enroll(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	enrollment, err := ctl.enroll.Enroll(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled successfully!", enrollment)
}

func (ctl *Controller) Drop(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	enrollment, err := ctl.enroll.Drop(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment dropped successfully!", enrollment)
}

func (ctl *Controller) MyEnrollments(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)

	enrollments, err := ctl.enroll.UserEnrollments(userID, c.Query("status"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", enrollments)
}

// CourseEnrollments lists a course roster; restricted to editors.
func (ctl *Controller) CourseEnrollments(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	enrollments, err := ctl.enroll.CourseEnrollments(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", enrollments)
}

func (ctl *Controller) RecordProgress(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}
	contentID, ok := validators.ParseID(c, "contentId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid content id!", nil)
	}
	input := c.Locals("validatedProgress").(*enroll.ProgressInput)

	record, enrollment, err := ctl.enroll.RecordProgress(userID, courseID, contentID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress recorded successfully!", fiber.Map{
		"record":     record,
		"enrollment": enrollment,
	})
}

func (ctl *Controller) MyProgress(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	progress, err := ctl.enroll.GetUserProgress(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", progress)
}
