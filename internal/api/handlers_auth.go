package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/macrosnap/macrosnap/internal/services"
)

// SetupStatus tells the client whether the owner account has been created.
func (handler *Handler) SetupStatus(c *fiber.Ctx) error {
	complete, err := handler.auth.SetupComplete()
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "could not read setup status")
	}
	return c.JSON(fiber.Map{"setupComplete": complete})
}

// Register creates the single owner account and returns the one-time
// recovery code. The code is never shown again.
func (handler *Handler) Register(c *fiber.Ctx) error {
	var input credentialsInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid request body")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return apiError(c, fiber.StatusBadRequest, "email and password are required")
	}
	if len(input.Password) < 8 {
		return apiError(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	user, recoveryCode, err := handler.auth.Register(email, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrAccountExists) {
			return apiError(c, fiber.StatusConflict, "an account already exists on this device")
		}
		return apiError(c, fiber.StatusInternalServerError, "could not create account")
	}

	token, err := handler.buildToken(user)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "could not issue session")
	}
	handler.setAuthCookie(c, token)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"email":        user.Email,
		"recoveryCode": recoveryCode,
	})
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	var input credentialsInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := handler.auth.Login(input.Email, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return apiError(c, fiber.StatusUnauthorized, "invalid email or password")
		}
		return apiError(c, fiber.StatusInternalServerError, "could not sign in")
	}

	token, err := handler.buildToken(user)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "could not issue session")
	}
	handler.setAuthCookie(c, token)

	return c.JSON(fiber.Map{"email": user.Email})
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	handler.clearAuthCookie(c)
	return c.JSON(fiber.Map{"status": "signed out"})
}
