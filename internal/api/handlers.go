package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/macrosnap/macrosnap/internal/models"
	"github.com/macrosnap/macrosnap/internal/services"
)

const (
	authCookieName = "macrosnap_auth"
	contextUserKey = "current_user"
)

type Handler struct {
	auth         *services.AuthService
	session      *services.MealSession
	store        *services.MealStore
	secretKey    []byte
	cookieSecure bool
}

func NewHandler(auth *services.AuthService, session *services.MealSession, store *services.MealStore, secretKey string, cookieSecure bool) *Handler {
	return &Handler{
		auth:         auth,
		session:      session,
		store:        store,
		secretKey:    []byte(secretKey),
		cookieSecure: cookieSecure,
	}
}

type credentialsInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func currentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(contextUserKey).(models.User)
	return user, ok
}

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
