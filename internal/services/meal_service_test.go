package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/macrosnap/macrosnap/internal/imagestore"
	"github.com/macrosnap/macrosnap/internal/models"
)

type stubAnalysisClient struct {
	raw string
	err error
}

func (stub *stubAnalysisClient) Analyze(context.Context, []byte) (string, error) {
	if stub.err != nil {
		return "", stub.err
	}
	return stub.raw, nil
}

type stubNormalizer struct {
	estimate models.NutritionEstimate
	err      error
	lastRaw  string
}

func (stub *stubNormalizer) Normalize(raw string) (models.NutritionEstimate, error) {
	stub.lastRaw = raw
	if stub.err != nil {
		return models.NutritionEstimate{}, stub.err
	}
	return stub.estimate, nil
}

type stubImageStore struct {
	path       string
	saveErr    error
	deleteErr  error
	saved      [][]byte
	deleted    []string
	saveCalls  int
	deleteCall int
}

func (stub *stubImageStore) Save(data []byte) (string, error) {
	stub.saveCalls++
	if stub.saveErr != nil {
		return "", stub.saveErr
	}
	stub.saved = append(stub.saved, data)
	return stub.path, nil
}

func (stub *stubImageStore) Delete(path string) error {
	stub.deleteCall++
	stub.deleted = append(stub.deleted, path)
	return stub.deleteErr
}

type stubMealSink struct {
	inserted  []MealRecordInput
	deleted   []uint
	insertErr error
	deleteErr error
}

func (stub *stubMealSink) Insert(input MealRecordInput) (models.MealRecord, error) {
	if stub.insertErr != nil {
		return models.MealRecord{}, stub.insertErr
	}
	stub.inserted = append(stub.inserted, input)
	return models.MealRecord{ID: uint(len(stub.inserted)), DishName: input.DishName}, nil
}

func (stub *stubMealSink) Delete(mealID uint) error {
	stub.deleted = append(stub.deleted, mealID)
	return stub.deleteErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAnalyzeDelegatesToClientThenNormalizer(t *testing.T) {
	normalizer := &stubNormalizer{estimate: models.NutritionEstimate{DishName: "Dal", Calories: 250}}
	service := NewMealService(&stubAnalysisClient{raw: "raw-model-text"}, normalizer, &stubImageStore{}, &stubMealSink{}, discardLogger())

	estimate, err := service.Analyze(context.Background(), []byte("image"))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if normalizer.lastRaw != "raw-model-text" {
		t.Fatalf("expected raw text to be forwarded verbatim, got %q", normalizer.lastRaw)
	}
	if estimate.DishName != "Dal" {
		t.Fatalf("unexpected estimate %#v", estimate)
	}
}

func TestAnalyzePropagatesFirstFailure(t *testing.T) {
	clientErr := errors.New("service unavailable")
	parserErr := errors.New("unparseable")

	tests := []struct {
		name   string
		client *stubAnalysisClient
		parser *stubNormalizer
		want   error
	}{
		{
			name:   "client failure wins",
			client: &stubAnalysisClient{err: clientErr},
			parser: &stubNormalizer{err: parserErr},
			want:   clientErr,
		},
		{
			name:   "normalizer failure propagates",
			client: &stubAnalysisClient{raw: "text"},
			parser: &stubNormalizer{err: parserErr},
			want:   parserErr,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			service := NewMealService(testCase.client, testCase.parser, &stubImageStore{}, &stubMealSink{}, discardLogger())
			if _, err := service.Analyze(context.Background(), []byte("image")); !errors.Is(err, testCase.want) {
				t.Fatalf("expected %v, got %v", testCase.want, err)
			}
		})
	}
}

func TestSaveStoresImageThenRecord(t *testing.T) {
	images := &stubImageStore{path: "/data/images/abc.jpg"}
	sink := &stubMealSink{}
	service := NewMealService(&stubAnalysisClient{}, &stubNormalizer{}, images, sink, discardLogger())

	estimate := models.NutritionEstimate{DishName: "Dal", Calories: 250, Protein: 10, Carbs: 30, Fats: 5}
	if _, err := service.Save(estimate, []byte("image-bytes")); err != nil {
		t.Fatalf("save: %v", err)
	}

	if len(sink.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(sink.inserted))
	}
	input := sink.inserted[0]
	if input.ImagePath != "/data/images/abc.jpg" {
		t.Fatalf("expected image path on record, got %q", input.ImagePath)
	}
	if input.DishName != "Dal" || input.Calories != 250 || input.Protein != 10 || input.Carbs != 30 || input.Fats != 5 {
		t.Fatalf("estimate fields did not carry over: %#v", input)
	}
}

func TestSaveWithoutImageSkipsImageStore(t *testing.T) {
	images := &stubImageStore{path: "/unused"}
	sink := &stubMealSink{}
	service := NewMealService(&stubAnalysisClient{}, &stubNormalizer{}, images, sink, discardLogger())

	if _, err := service.Save(models.NutritionEstimate{DishName: "Dal", Calories: 250}, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if images.saveCalls != 0 {
		t.Fatalf("expected no image store call, got %d", images.saveCalls)
	}
	if sink.inserted[0].ImagePath != "" {
		t.Fatalf("expected empty image path, got %q", sink.inserted[0].ImagePath)
	}
}

func TestSaveKeepsRecordWhenImageWriteFails(t *testing.T) {
	images := &stubImageStore{saveErr: errors.New("disk full")}
	sink := &stubMealSink{}
	service := NewMealService(&stubAnalysisClient{}, &stubNormalizer{}, images, sink, discardLogger())

	record, err := service.Save(models.NutritionEstimate{DishName: "Dal", Calories: 250}, []byte("image"))
	if err != nil {
		t.Fatalf("expected save to survive image failure, got %v", err)
	}
	if record.ID == 0 {
		t.Fatal("expected record to be inserted")
	}
	if sink.inserted[0].ImagePath != "" {
		t.Fatalf("expected empty image path after failed write, got %q", sink.inserted[0].ImagePath)
	}
}

func TestDeleteRemovesFileAndRow(t *testing.T) {
	images := &stubImageStore{}
	sink := &stubMealSink{}
	service := NewMealService(&stubAnalysisClient{}, &stubNormalizer{}, images, sink, discardLogger())

	record := models.MealRecord{ID: 7, ImagePath: "/data/images/abc.jpg"}
	if err := service.Delete(record); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(images.deleted) != 1 || images.deleted[0] != "/data/images/abc.jpg" {
		t.Fatalf("expected image delete attempt, got %#v", images.deleted)
	}
	if len(sink.deleted) != 1 || sink.deleted[0] != 7 {
		t.Fatalf("expected row delete, got %#v", sink.deleted)
	}
}

func TestDeleteRowProceedsWhenFileDeleteFails(t *testing.T) {
	tests := []struct {
		name      string
		deleteErr error
	}{
		{name: "missing file is a no-op", deleteErr: imagestore.ErrNotFound},
		{name: "io failure does not block the row", deleteErr: errors.New("permission denied")},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			images := &stubImageStore{deleteErr: testCase.deleteErr}
			sink := &stubMealSink{}
			service := NewMealService(&stubAnalysisClient{}, &stubNormalizer{}, images, sink, discardLogger())

			record := models.MealRecord{ID: 3, ImagePath: "/gone.jpg"}
			if err := service.Delete(record); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if len(sink.deleted) != 1 {
				t.Fatal("expected row delete to be attempted")
			}
		})
	}
}

func TestDeleteWithoutImagePathSkipsImageStore(t *testing.T) {
	images := &stubImageStore{}
	sink := &stubMealSink{}
	service := NewMealService(&stubAnalysisClient{}, &stubNormalizer{}, images, sink, discardLogger())

	if err := service.Delete(models.MealRecord{ID: 9}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if images.deleteCall != 0 {
		t.Fatalf("expected no image delete call, got %d", images.deleteCall)
	}
}
