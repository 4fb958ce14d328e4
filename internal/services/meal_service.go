package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/macrosnap/macrosnap/internal/imagestore"
	"github.com/macrosnap/macrosnap/internal/models"
)

type AnalysisClient interface {
	Analyze(ctx context.Context, image []byte) (string, error)
}

type ResponseNormalizer interface {
	Normalize(raw string) (models.NutritionEstimate, error)
}

type ImageStore interface {
	Save(data []byte) (string, error)
	Delete(path string) error
}

type MealSink interface {
	Insert(input MealRecordInput) (models.MealRecord, error)
	Delete(mealID uint) error
}

// MealService composes the analysis client, normalizer, image store and meal
// store into the three user-facing operations: analyze, save, delete.
type MealService struct {
	vision AnalysisClient
	parser ResponseNormalizer
	images ImageStore
	store  MealSink
	log    *slog.Logger
}

func NewMealService(vision AnalysisClient, parser ResponseNormalizer, images ImageStore, store MealSink, log *slog.Logger) *MealService {
	return &MealService{
		vision: vision,
		parser: parser,
		images: images,
		store:  store,
		log:    log,
	}
}

// Analyze produces an estimate preview. Nothing is persisted; the first
// failure from the client or the normalizer propagates unchanged.
func (service *MealService) Analyze(ctx context.Context, image []byte) (models.NutritionEstimate, error) {
	raw, err := service.vision.Analyze(ctx, image)
	if err != nil {
		return models.NutritionEstimate{}, err
	}
	return service.parser.Normalize(raw)
}

// Save logs an accepted estimate. Image persistence is best-effort: a failed
// image write must never cost the user their nutrition entry, so the record
// is inserted with an empty image path instead of aborting.
func (service *MealService) Save(estimate models.NutritionEstimate, image []byte) (models.MealRecord, error) {
	imagePath := ""
	if len(image) > 0 {
		path, err := service.images.Save(image)
		if err != nil {
			service.log.Warn("meal image not persisted, saving record without it",
				slog.String("dish", estimate.DishName),
				slog.String("cause", err.Error()))
		} else {
			imagePath = path
		}
	}

	return service.store.Insert(MealRecordInput{
		DishName:  estimate.DishName,
		Calories:  estimate.Calories,
		Protein:   estimate.Protein,
		Carbs:     estimate.Carbs,
		Fats:      estimate.Fats,
		ImagePath: imagePath,
	})
}

// Delete removes the record and its image file. Both removals are attempted
// even if one fails; an already-missing file is a no-op.
func (service *MealService) Delete(record models.MealRecord) error {
	if record.ImagePath != "" {
		if err := service.images.Delete(record.ImagePath); err != nil && !errors.Is(err, imagestore.ErrNotFound) {
			service.log.Warn("meal image not deleted",
				slog.Uint64("meal_id", uint64(record.ID)),
				slog.String("cause", err.Error()))
		}
	}

	return service.store.Delete(record.ID)
}
