package db

import (
	"github.com/macrosnap/macrosnap/internal/models"
	"gorm.io/gorm"
)

type MealRepository struct {
	database *gorm.DB
}

func NewMealRepository(database *gorm.DB) *MealRepository {
	return &MealRepository{database: database}
}

func (repo *MealRepository) Insert(record *models.MealRecord) error {
	return repo.database.Create(record).Error
}

// DeleteByID removes a meal row. Deleting an id that no longer exists is not
// an error; the returned count tells the caller whether anything changed.
func (repo *MealRepository) DeleteByID(mealID uint) (int64, error) {
	result := repo.database.Delete(&models.MealRecord{}, mealID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (repo *MealRepository) FindByID(mealID uint) (models.MealRecord, bool, error) {
	record := models.MealRecord{}
	result := repo.database.Limit(1).Find(&record, mealID)
	if result.Error != nil {
		return models.MealRecord{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.MealRecord{}, false, nil
	}
	return record, true, nil
}

func (repo *MealRepository) ListAll() ([]models.MealRecord, error) {
	records := make([]models.MealRecord, 0)
	if err := repo.database.Order("timestamp DESC, id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (repo *MealRepository) ListSince(thresholdMillis int64) ([]models.MealRecord, error) {
	records := make([]models.MealRecord, 0)
	if err := repo.database.
		Where("timestamp >= ?", thresholdMillis).
		Order("timestamp DESC, id DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
