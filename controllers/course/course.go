package courseController

import (
	"strconv"

	"lms/middleware"
	"lms/services/catalog"
	"lms/validators"

	"github.com/gofiber/fiber/v2"
)

// Controller serves course and module management.
type Controller struct {
	catalog *catalog.Service
}

func New(catalogSvc *catalog.Service) *Controller {
	return &Controller{catalog: catalogSvc}
}

func (ctl *Controller) CreateCourse(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	input := c.Locals("validatedCourse").(*catalog.CreateCourseInput)

	course, err := ctl.catalog.CreateCourse(userID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

func (ctl *Controller) GetCourse(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	detail, err := ctl.catalog.GetCourseDetail(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", detail)
}

func (ctl *Controller) UpdateCourse(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}
	input := c.Locals("validatedCourseUpdate").(*catalog.UpdateCourseInput)

	course, err := ctl.catalog.UpdateCourse(userID, courseID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

func (ctl *Controller) DeleteCourse(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	if err := ctl.catalog.DeleteCourse(userID, courseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

func (ctl *Controller) ListCourses(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	page, limit := validators.ParsePagination(c)

	var (
		courses interface{}
		total   int64
		err     error
	)
	if term := c.Query("q"); term != "" {
		courses, total, err = ctl.catalog.SearchCourses(userID, term, page, limit)
	} else {
		courses, total, err = ctl.catalog.ListCourses(userID, page, limit)
	}
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// CoursesByOwner lists courses for one owner. The system owner carries
// no ID, so the parameter is parsed leniently.
func (ctl *Controller) CoursesByOwner(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	ownerType := c.Params("ownerType")

	ownerID64, _ := strconv.ParseUint(c.Params("ownerId", "0"), 10, 32)
	ownerID := uint(ownerID64)
	if ownerType != "system" && ownerID == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid owner id!", nil)
	}

	courses, err := ctl.catalog.CoursesByOwner(ownerType, ownerID, userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", courses)
}

func (ctl *Controller) PopularCourses(c *fiber.Ctx) error {
	_, limit := validators.ParsePagination(c)

	courses, err := ctl.catalog.MostEnrolled(limit)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Popular courses fetched successfully!", courses)
}

func (ctl *Controller) RecentCourses(c *fiber.Ctx) error {
	_, limit := validators.ParsePagination(c)

	courses, err := ctl.catalog.Recent(limit)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Recent courses fetched successfully!", courses)
}

func (ctl *Controller) AddModule(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}
	input := c.Locals("validatedModule").(*catalog.AddModuleInput)

	module, err := ctl.catalog.AddModule(userID, courseID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module added successfully!", module)
}

func (ctl *Controller) ListModules(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	modules, err := ctl.catalog.ListModules(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Modules fetched successfully!", modules)
}

func (ctl *Controller) UpdateModule(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	moduleID, ok := validators.ParseID(c, "moduleId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid module id!", nil)
	}
	input := c.Locals("validatedModuleUpdate").(*catalog.UpdateModuleInput)

	module, err := ctl.catalog.UpdateModule(userID, moduleID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module updated successfully!", module)
}

func (ctl *Controller) DeleteModule(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	moduleID, ok := validators.ParseID(c, "moduleId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid module id!", nil)
	}

	if err := ctl.catalog.DeleteModule(userID, moduleID); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module deleted successfully!", nil)
}

func (ctl *Controller) ReorderModules(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID, ok := validators.ParseID(c, "courseId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}
	orderedIDs := c.Locals("validatedOrder").([]uint)

	if err := ctl.catalog.ReorderModules(userID, courseID, orderedIDs); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Modules reordered successfully!", nil)
}
