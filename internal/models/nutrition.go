package models

// NutritionEstimate is the parsed result of one analysis call. It is not
// persisted; an accepted estimate is copied into a MealRecord on save.
// Macro amounts are grams.
type NutritionEstimate struct {
	DishName      string  `json:"dishName"`
	Calories      int     `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbs         float64 `json:"carbs"`
	Fats          float64 `json:"fats"`
	HealthierSwap string  `json:"healthierSwap,omitempty"`
	PortionTweak  string  `json:"portionTweak,omitempty"`
}
