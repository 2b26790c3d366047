package authController

import (
	"lms/apperr"
	"lms/middleware"
	"lms/services/auth"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// Controller serves registration, login, and the password-reset flow.
type Controller struct {
	svc *auth.Service
}

func New(svc *auth.Service) *Controller {
	return &Controller{svc: svc}
}

func (ctl *Controller) Register(c *fiber.Ctx) error {
	input := c.Locals("validatedRegister").(*auth.RegisterInput)

	user, err := ctl.svc.Register(*input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	go utils.SendWelcomeEmail(user.Email, user.FirstName)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully!", user)
}

func (ctl *Controller) Login(c *fiber.Ctx) error {
	input := c.Locals("validatedLogin").(*auth.LoginInput)

	user, token, err := ctl.svc.Login(*input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful!", fiber.Map{
		"token": token,
		"user":  user,
	})
}

// ForgotPassword always reports success so the endpoint cannot be used
// to probe which emails are registered.
func (ctl *Controller) ForgotPassword(c *fiber.Ctx) error {
	email := c.Locals("validatedEmail").(string)

	user, token, err := ctl.svc.IssueResetToken(email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return middleware.JsonResponse(c, fiber.StatusOK, true,
				"If that email is registered, a reset link has been sent.", nil)
		}
		return middleware.ErrorResponse(c, err)
	}

	go utils.SendPasswordResetEmail(user.Email, user.FirstName, token)

	return middleware.JsonResponse(c, fiber.StatusOK, true,
		"If that email is registered, a reset link has been sent.", nil)
}

func (ctl *Controller) ResetPassword(c *fiber.Ctx) error {
	input := c.Locals("validatedReset").(*auth.ResetPasswordInput)

	if err := ctl.svc.ResetPassword(*input); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password reset successfully!", nil)
}
