package services

import (
	"sort"

	"github.com/macrosnap/macrosnap/internal/models"
)

// SortOrder selects one of the four total orders over the history view.
// Dish names compare case-sensitively; ties always break by id ascending so
// every order is deterministic.
type SortOrder string

const (
	SortDateDesc  SortOrder = "date_desc"
	SortDateAsc   SortOrder = "date_asc"
	SortAlphaAsc  SortOrder = "alpha_asc"
	SortAlphaDesc SortOrder = "alpha_desc"
)

func ParseSortOrder(value string) (SortOrder, bool) {
	switch SortOrder(value) {
	case SortDateDesc, SortDateAsc, SortAlphaAsc, SortAlphaDesc:
		return SortOrder(value), true
	case "":
		return SortDateDesc, true
	}
	return SortDateDesc, false
}

// SortMeals returns a sorted copy; the input slice is left untouched.
func SortMeals(records []models.MealRecord, order SortOrder) []models.MealRecord {
	sorted := make([]models.MealRecord, len(records))
	copy(sorted, records)

	sort.Slice(sorted, func(i, j int) bool {
		left, right := sorted[i], sorted[j]
		switch order {
		case SortDateAsc:
			if left.Timestamp != right.Timestamp {
				return left.Timestamp < right.Timestamp
			}
		case SortAlphaAsc:
			if left.DishName != right.DishName {
				return left.DishName < right.DishName
			}
		case SortAlphaDesc:
			if left.DishName != right.DishName {
				return left.DishName > right.DishName
			}
		default:
			if left.Timestamp != right.Timestamp {
				return left.Timestamp > right.Timestamp
			}
		}
		return left.ID < right.ID
	})

	return sorted
}

// WeeklySummary aggregates the rolling seven-day window. AvgDailyCalories is
// an average per meal logged in the window, not per calendar day; the
// dashboard has always presented it that way.
type WeeklySummary struct {
	TotalCalories    int `json:"totalCalories"`
	MealCount        int `json:"mealCount"`
	AvgDailyCalories int `json:"avgDailyCalories"`
}

func SummarizeWeek(records []models.MealRecord) WeeklySummary {
	summary := WeeklySummary{MealCount: len(records)}
	for _, record := range records {
		summary.TotalCalories += record.Calories
	}
	if summary.MealCount > 0 {
		summary.AvgDailyCalories = summary.TotalCalories / summary.MealCount
	}
	return summary
}
