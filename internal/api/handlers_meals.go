package api

import (
	"errors"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/macrosnap/macrosnap/internal/services"
)

// AnalyzeMeal runs the vision pipeline on an uploaded photo and returns the
// resulting session state. Failures surface as an error-phase state with a
// user-facing message rather than an HTTP error.
func (handler *Handler) AnalyzeMeal(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "an image upload is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "could not read uploaded image")
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil || len(image) == 0 {
		return apiError(c, fiber.StatusBadRequest, "could not read uploaded image")
	}

	state := handler.session.RequestAnalysis(c.UserContext(), image)
	return c.JSON(state)
}

func (handler *Handler) SessionState(c *fiber.Ctx) error {
	return c.JSON(handler.session.State())
}

func (handler *Handler) ResetSession(c *fiber.Ctx) error {
	handler.session.Reset()
	return c.JSON(handler.session.State())
}

// ConfirmSave persists the estimate currently held by the session.
func (handler *Handler) ConfirmSave(c *fiber.Ctx) error {
	record, err := handler.session.ConfirmSave()
	if err != nil {
		if errors.Is(err, services.ErrNoPendingEstimate) {
			return apiError(c, fiber.StatusConflict, "no analyzed meal to save")
		}
		return apiError(c, fiber.StatusInternalServerError, "could not save meal")
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

// MealHistory returns every saved meal in the requested sort order. The
// chosen order sticks until changed.
func (handler *Handler) MealHistory(c *fiber.Ctx) error {
	order, ok := services.ParseSortOrder(c.Query("sort"))
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "unknown sort order")
	}
	handler.session.SetSortOrder(order)
	return c.JSON(fiber.Map{
		"sort":  order,
		"meals": handler.session.History(),
	})
}

func (handler *Handler) WeeklySummary(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"summary": handler.session.WeeklySummary(),
		"meals":   handler.session.WeeklyMeals(),
	})
}

func (handler *Handler) DeleteMeal(c *fiber.Ctx) error {
	mealID, err := parseMealID(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid meal id")
	}
	record, found, err := handler.store.FindByID(mealID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "could not look up meal")
	}
	if !found {
		return apiError(c, fiber.StatusNotFound, "meal not found")
	}
	if err := handler.session.DeleteMeal(record); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "could not delete meal")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

func (handler *Handler) MealImage(c *fiber.Ctx) error {
	mealID, err := parseMealID(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid meal id")
	}
	record, found, err := handler.store.FindByID(mealID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "could not look up meal")
	}
	if !found || record.ImagePath == "" {
		return apiError(c, fiber.StatusNotFound, "no image for this meal")
	}
	return c.SendFile(record.ImagePath)
}

func parseMealID(c *fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid meal id")
	}
	return uint(parsed), nil
}
