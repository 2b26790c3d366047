package contentController

import (
	"lms/middleware"
	"lms/services/catalog"
	"lms/services/enroll"
	"lms/validators"

	"github.com/gofiber/fiber/v2"
)

// Controller serves content items plus quiz and assignment submission.
type Controller struct {
	catalog *catalog.Service
	enroll  *enroll.Service
}

func New(catalogSvc *catalog.Service, enrollSvc *enroll.Service) *Controller {
	return &Controller{catalog: catalogSvc, enroll: enrollSvc}
}

func (ctl *Controller) AddContent(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	moduleID, ok := validators.ParseID(c, "moduleId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid module id!", nil)
	}
	input := c.Locals("validatedContent").(*catalog.AddContentInput)

	item, err := ctl.catalog.AddContent(userID, moduleID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Content added successfully!", item)
}

func (ctl *Controller) GetContent(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	contentID, ok := validators.ParseID(c, "contentId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid content id!", nil)
	}

	item, err := ctl.catalog.GetContent(userID, contentID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content fetched successfully!", item)
}

func (ctl *Controller) UpdateContent(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	contentID, ok := validators.ParseID(c, "contentId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid content id!", nil)
	}
	input := c.Locals("validatedContentUpdate").(*catalog.UpdateContentInput)

	item, err := ctl.catalog.UpdateContent(userID, contentID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content updated successfully!", item)
}

func (ctl *Controller) DeleteContent(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	contentID, ok := validators.ParseID(c, "contentId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid content id!", nil)
	}

	if err := ctl.catalog.DeleteContent(userID, contentID); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content deleted successfully!", nil)
}

func (ctl *Controller) ListContent(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	moduleID, ok := validators.ParseID(c, "moduleId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid module id!", nil)
	}

	items, err := ctl.catalog.ListContent(userID, moduleID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content fetched successfully!", items)
}

func (ctl *Controller) ReorderContent(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	moduleID, ok := validators.ParseID(c, "moduleId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid module id!", nil)
	}
	orderedIDs := c.Locals("validatedOrder").([]uint)

	if err := ctl.catalog.ReorderContent(userID, moduleID, orderedIDs); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content reordered successfully!", nil)
}

func (ctl *Controller) SubmitQuiz(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}
	contentID, ok := validators.ParseID(c, "contentId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid content id!", nil)
	}

	answers := c.Locals("validatedAnswers").([]enroll.QuizAnswer)
	timeSpent := c.Locals("validatedTimeSpent").(int)

	result, err := ctl.enroll.SubmitQuiz(userID, courseID, contentID, answers, timeSpent)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz submitted successfully!", result)
}

func (ctl *Controller) SubmitAssignment(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}
	contentID, ok := validators.ParseID(c, "contentId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid content id!", nil)
	}
	input := c.Locals("validatedSubmission").(*enroll.SubmitAssignmentInput)

	result, err := ctl.enroll.SubmitAssignment(userID, courseID, contentID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assignment submitted successfully!", result)
}

func (ctl *Controller) GradeAssignment(c *fiber.Ctx) error {
	graderID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}
	contentID, ok := validators.ParseID(c, "contentId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid content id!", nil)
	}

	studentID := c.Locals("validatedStudentID").(uint)
	input := c.Locals("validatedGrade").(*enroll.GradeInput)

	record, err := ctl.enroll.GradeAssignment(graderID, courseID, contentID, studentID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assignment graded successfully!", record)
}

func (ctl *Controller) CourseStats(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	stats, err := ctl.enroll.GetCourseStats(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course stats fetched successfully!", stats)
}
