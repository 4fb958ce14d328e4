package models

// MealRecord is a durably logged meal. Rows are created only by the meal
// service's save path and deleted only by its delete path; they are never
// updated in place. Timestamp is epoch milliseconds assigned at insert time.
// A non-empty ImagePath means the record owns that file's lifecycle.
type MealRecord struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	DishName  string  `gorm:"not null" json:"dishName"`
	Calories  int     `gorm:"not null" json:"calories"`
	Protein   float64 `gorm:"not null;default:0" json:"protein"`
	Carbs     float64 `gorm:"not null;default:0" json:"carbs"`
	Fats      float64 `gorm:"not null;default:0" json:"fats"`
	ImagePath string  `gorm:"not null;default:''" json:"imagePath,omitempty"`
	Timestamp int64   `gorm:"not null;index" json:"timestamp"`
}

func (MealRecord) TableName() string {
	return "meals"
}
