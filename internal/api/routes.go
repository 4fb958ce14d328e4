package api

import "github.com/gofiber/fiber/v2"

func (handler *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/healthz", handler.Health)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Get("/setup-status", handler.SetupStatus)
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.AuthRequired, handler.Logout)

	session := api.Group("/session", handler.AuthRequired)
	session.Get("/", handler.SessionState)
	session.Post("/analyze", handler.AnalyzeMeal)
	session.Post("/reset", handler.ResetSession)

	meals := api.Group("/meals", handler.AuthRequired)
	meals.Get("/", handler.MealHistory)
	meals.Post("/", handler.ConfirmSave)
	meals.Get("/weekly", handler.WeeklySummary)
	meals.Get("/:id/image", handler.MealImage)
	meals.Delete("/:id", handler.DeleteMeal)
}
