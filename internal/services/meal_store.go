package services

import (
	"sync"
	"time"

	"github.com/macrosnap/macrosnap/internal/models"
)

type MealStoreRepository interface {
	Insert(record *models.MealRecord) error
	DeleteByID(mealID uint) (int64, error)
	FindByID(mealID uint) (models.MealRecord, bool, error)
	ListAll() ([]models.MealRecord, error)
	ListSince(thresholdMillis int64) ([]models.MealRecord, error)
}

// MealRecordInput is everything a caller may choose about a new record. The
// store assigns the id and the insert timestamp.
type MealRecordInput struct {
	DishName  string
	Calories  int
	Protein   float64
	Carbs     float64
	Fats      float64
	ImagePath string
}

// MealStore owns the durable meal log and its live queries. Writes are
// serialized; every mutation pushes a fresh full snapshot to each live
// subscriber. A subscriber may skip intermediate snapshots under load but
// never observes an older snapshot after a newer one.
type MealStore struct {
	repo MealStoreRepository
	now  func() time.Time

	writeMu sync.Mutex

	subMu       sync.RWMutex
	nextSubID   uint64
	subscribers map[uint64]*mealSubscriber
}

type mealSubscriber struct {
	threshold int64
	filtered  bool

	mu     sync.Mutex
	ch     chan []models.MealRecord
	closed bool
}

// MealSubscription is a live snapshot feed. C delivers the latest snapshot;
// Cancel stops the feed and closes C.
type MealSubscription struct {
	C      <-chan []models.MealRecord
	cancel func()
}

func (sub *MealSubscription) Cancel() {
	sub.cancel()
}

func NewMealStore(repo MealStoreRepository) *MealStore {
	return &MealStore{
		repo:        repo,
		now:         time.Now,
		subscribers: make(map[uint64]*mealSubscriber),
	}
}

// Insert copies the input into a new record with a store-assigned timestamp,
// persists it, and fans the updated snapshot out to all watchers.
func (store *MealStore) Insert(input MealRecordInput) (models.MealRecord, error) {
	store.writeMu.Lock()
	defer store.writeMu.Unlock()

	record := models.MealRecord{
		DishName:  input.DishName,
		Calories:  input.Calories,
		Protein:   input.Protein,
		Carbs:     input.Carbs,
		Fats:      input.Fats,
		ImagePath: input.ImagePath,
		Timestamp: store.now().UnixMilli(),
	}
	if err := store.repo.Insert(&record); err != nil {
		return models.MealRecord{}, err
	}

	store.broadcast()
	return record, nil
}

// Delete removes the row. Deleting a missing id is a no-op and triggers no
// new emission.
func (store *MealStore) Delete(mealID uint) error {
	store.writeMu.Lock()
	defer store.writeMu.Unlock()

	affected, err := store.repo.DeleteByID(mealID)
	if err != nil {
		return err
	}
	if affected > 0 {
		store.broadcast()
	}
	return nil
}

func (store *MealStore) FindByID(mealID uint) (models.MealRecord, bool, error) {
	return store.repo.FindByID(mealID)
}

// WatchAll subscribes to the full history, newest-first. The initial snapshot
// is delivered immediately; a failed initial read fails the subscription.
func (store *MealStore) WatchAll() (*MealSubscription, error) {
	return store.watch(&mealSubscriber{})
}

// WatchSince subscribes to records with timestamp >= thresholdMillis. The
// threshold is fixed for the subscription's lifetime.
func (store *MealStore) WatchSince(thresholdMillis int64) (*MealSubscription, error) {
	return store.watch(&mealSubscriber{threshold: thresholdMillis, filtered: true})
}

func (store *MealStore) watch(sub *mealSubscriber) (*MealSubscription, error) {
	sub.ch = make(chan []models.MealRecord, 1)

	// The initial read, the registration and the first push all happen under
	// the write lock: a concurrent mutation lands either entirely before the
	// read (and is part of the initial snapshot) or entirely after the
	// registration (and triggers its own emission). Without this a write
	// committing between read and push would be overwritten by the stale
	// initial snapshot in the one-slot channel.
	store.writeMu.Lock()
	defer store.writeMu.Unlock()

	var initial []models.MealRecord
	var err error
	if sub.filtered {
		initial, err = store.repo.ListSince(sub.threshold)
	} else {
		initial, err = store.repo.ListAll()
	}
	if err != nil {
		return nil, err
	}

	store.subMu.Lock()
	subID := store.nextSubID
	store.nextSubID++
	store.subscribers[subID] = sub
	store.subMu.Unlock()

	sub.push(initial)

	return &MealSubscription{
		C: sub.ch,
		cancel: func() {
			store.subMu.Lock()
			delete(store.subscribers, subID)
			store.subMu.Unlock()
			sub.close()
		},
	}, nil
}

func (store *MealStore) broadcast() {
	snapshot, err := store.repo.ListAll()
	if err != nil {
		return
	}

	store.subMu.RLock()
	defer store.subMu.RUnlock()
	for _, sub := range store.subscribers {
		sub.push(snapshot)
	}
}

// push replaces an undelivered snapshot with the newer one so slow consumers
// coalesce instead of blocking writers.
func (sub *mealSubscriber) push(snapshot []models.MealRecord) {
	view := snapshot
	if sub.filtered {
		view = filterSince(snapshot, sub.threshold)
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- view
}

func (sub *mealSubscriber) close() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
}

func filterSince(records []models.MealRecord, thresholdMillis int64) []models.MealRecord {
	filtered := make([]models.MealRecord, 0, len(records))
	for _, record := range records {
		if record.Timestamp >= thresholdMillis {
			filtered = append(filtered, record)
		}
	}
	return filtered
}
