package enrollmentValidator

import (
	"lms/middleware"
	"lms/services/enroll"
	"lms/validators"

	"github.com/gofiber/fiber/v2"
)

// RecordProgress validator middleware
func RecordProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(enroll.ProgressInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.CheckStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedProgress", reqData)
		return c.Next()
	}
}

// SubmitQuiz validator middleware
func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Answers   []enroll.QuizAnswer `json:"answers" validate:"required,min=1,dive"`
			TimeSpent int                 `json:"time_spent" validate:"omitempty,min=0"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.CheckStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAnswers", reqData.Answers)
		c.Locals("validatedTimeSpent", reqData.TimeSpent)
		return c.Next()
	}
}

// SubmitAssignment validator middleware
func SubmitAssignment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(enroll.SubmitAssignmentInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.CheckStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSubmission", reqData)
		return c.Next()
	}
}

// GradeAssignment validator middleware
func GradeAssignment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			StudentID uint    `json:"student_id" validate:"required"`
			Score     float64 `json:"score" validate:"min=0,max=100"`
			Feedback  string  `json:"feedback"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.CheckStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedStudentID", reqData.StudentID)
		c.Locals("validatedGrade", &enroll.GradeInput{Score: reqData.Score, Feedback: reqData.Feedback})
		return c.Next()
	}
}
