// Package nutrition turns untrusted model output into a typed estimate. The
// text may arrive wrapped in markdown fences or surrounded by conversational
// filler; everything that is not the first JSON object is discarded.
package nutrition

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/macrosnap/macrosnap/internal/models"
)

var ErrMalformedResponse = errors.New("analysis response is not a usable nutrition estimate")

// Parser satisfies the meal service's normalizer dependency.
type Parser struct{}

func (Parser) Normalize(raw string) (models.NutritionEstimate, error) {
	return Normalize(raw)
}

// Normalize decodes the raw analysis text into a NutritionEstimate. dishName
// and calories are required; the macro and advisory fields default when the
// model omits them. Unknown keys and trailing text are ignored.
func Normalize(raw string) (models.NutritionEstimate, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return models.NutritionEstimate{}, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	text = stripCodeFence(text)
	candidate, found := extractObject(text)
	if !found {
		return models.NutritionEstimate{}, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var payload struct {
		DishName      *string  `json:"dishName"`
		Calories      *float64 `json:"calories"`
		Protein       *float64 `json:"protein"`
		Carbs         *float64 `json:"carbs"`
		Fats          *float64 `json:"fats"`
		HealthierSwap *string  `json:"healthierSwap"`
		PortionTweak  *string  `json:"portionTweak"`
	}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return models.NutritionEstimate{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if payload.DishName == nil || strings.TrimSpace(*payload.DishName) == "" {
		return models.NutritionEstimate{}, fmt.Errorf("%w: missing dishName", ErrMalformedResponse)
	}
	if payload.Calories == nil {
		return models.NutritionEstimate{}, fmt.Errorf("%w: missing calories", ErrMalformedResponse)
	}
	if *payload.Calories < 0 {
		return models.NutritionEstimate{}, fmt.Errorf("%w: negative calories", ErrMalformedResponse)
	}

	estimate := models.NutritionEstimate{
		DishName: strings.TrimSpace(*payload.DishName),
		Calories: int(math.Round(*payload.Calories)),
		Protein:  gramsOrZero(payload.Protein),
		Carbs:    gramsOrZero(payload.Carbs),
		Fats:     gramsOrZero(payload.Fats),
	}
	if payload.HealthierSwap != nil {
		estimate.HealthierSwap = strings.TrimSpace(*payload.HealthierSwap)
	}
	if payload.PortionTweak != nil {
		estimate.PortionTweak = strings.TrimSpace(*payload.PortionTweak)
	}

	return estimate, nil
}

func gramsOrZero(value *float64) float64 {
	if value == nil || *value < 0 {
		return 0
	}
	return *value
}

// stripCodeFence removes a leading ``` line (with optional language tag) and a
// trailing ``` line. Text without a fence passes through untouched.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	body := text
	if newline := strings.IndexByte(body, '\n'); newline >= 0 {
		body = body[newline+1:]
	} else {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

// extractObject returns the span from the first '{' to the last '}', which
// tolerates conversational wrapping on either side of the JSON body.
func extractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
