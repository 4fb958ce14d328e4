package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/macrosnap/macrosnap/internal/models"
)

// AnalysisPhase is the user-facing request state. Transitions happen only on
// explicit caller actions: RequestAnalysis moves to Loading and then to
// Success or Error; Reset returns to Idle from anywhere.
type AnalysisPhase string

const (
	PhaseIdle    AnalysisPhase = "idle"
	PhaseLoading AnalysisPhase = "loading"
	PhaseSuccess AnalysisPhase = "success"
	PhaseError   AnalysisPhase = "error"
)

type AnalysisState struct {
	Phase    AnalysisPhase             `json:"phase"`
	Estimate *models.NutritionEstimate `json:"estimate,omitempty"`
	Message  string                    `json:"message,omitempty"`
}

var ErrNoPendingEstimate = errors.New("no analyzed estimate to save")

const weeklyWindow = 7 * 24 * time.Hour

type SessionOrchestrator interface {
	Analyze(ctx context.Context, image []byte) (models.NutritionEstimate, error)
	Save(estimate models.NutritionEstimate, image []byte) (models.MealRecord, error)
	Delete(record models.MealRecord) error
}

type SessionWatchSource interface {
	WatchAll() (*MealSubscription, error)
	WatchSince(thresholdMillis int64) (*MealSubscription, error)
}

// MealSession holds the capture-to-save state machine and the derived views
// the presentation layer reads: sorted history and the weekly summary, both
// kept current by the store's live subscriptions.
type MealSession struct {
	meals SessionOrchestrator
	now   func() time.Time

	mu         sync.Mutex
	state      AnalysisState
	draftImage []byte
	requestSeq uint64
	sortOrder  SortOrder
	history    []models.MealRecord
	weekly     []models.MealRecord

	allSub    *MealSubscription
	weeklySub *MealSubscription
	done      chan struct{}
	consumed  sync.WaitGroup
}

func NewMealSession(meals SessionOrchestrator, store SessionWatchSource, now func() time.Time) (*MealSession, error) {
	if now == nil {
		now = time.Now
	}

	allSub, err := store.WatchAll()
	if err != nil {
		return nil, err
	}
	// The subscription threshold is only a coarse pre-filter; the window
	// itself is re-anchored on every weekly query.
	weeklySub, err := store.WatchSince(now().Add(-weeklyWindow).UnixMilli())
	if err != nil {
		allSub.Cancel()
		return nil, err
	}

	session := &MealSession{
		meals:     meals,
		now:       now,
		state:     AnalysisState{Phase: PhaseIdle},
		sortOrder: SortDateDesc,
		allSub:    allSub,
		weeklySub: weeklySub,
		done:      make(chan struct{}),
	}

	session.consumed.Add(1)
	go session.consumeSnapshots()
	return session, nil
}

func (session *MealSession) consumeSnapshots() {
	defer session.consumed.Done()
	for {
		select {
		case snapshot, ok := <-session.allSub.C:
			if !ok {
				return
			}
			session.mu.Lock()
			session.history = snapshot
			session.mu.Unlock()
		case snapshot, ok := <-session.weeklySub.C:
			if !ok {
				return
			}
			session.mu.Lock()
			session.weekly = snapshot
			session.mu.Unlock()
		case <-session.done:
			return
		}
	}
}

// RequestAnalysis runs one analysis round trip. The call blocks until the
// result lands in Success or Error; if Reset was called while the request was
// in flight, the stale result is discarded and the state stays wherever the
// reset left it.
func (session *MealSession) RequestAnalysis(ctx context.Context, image []byte) AnalysisState {
	session.mu.Lock()
	session.requestSeq++
	seq := session.requestSeq
	session.draftImage = image
	session.state = AnalysisState{Phase: PhaseLoading}
	session.mu.Unlock()

	estimate, err := session.meals.Analyze(ctx, image)

	session.mu.Lock()
	defer session.mu.Unlock()
	if seq != session.requestSeq {
		return session.state
	}

	if err != nil {
		session.state = AnalysisState{Phase: PhaseError, Message: err.Error()}
	} else {
		session.state = AnalysisState{Phase: PhaseSuccess, Estimate: &estimate}
	}
	return session.state
}

// ConfirmSave persists the current Success estimate together with the draft
// image captured for it.
func (session *MealSession) ConfirmSave() (models.MealRecord, error) {
	session.mu.Lock()
	if session.state.Phase != PhaseSuccess || session.state.Estimate == nil {
		session.mu.Unlock()
		return models.MealRecord{}, ErrNoPendingEstimate
	}
	estimate := *session.state.Estimate
	image := session.draftImage
	session.mu.Unlock()

	return session.meals.Save(estimate, image)
}

func (session *MealSession) DeleteMeal(record models.MealRecord) error {
	return session.meals.Delete(record)
}

// Reset returns to Idle, drops the draft image, and invalidates any in-flight
// analysis so a late response cannot resurface.
func (session *MealSession) Reset() {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.requestSeq++
	session.state = AnalysisState{Phase: PhaseIdle}
	session.draftImage = nil
}

func (session *MealSession) State() AnalysisState {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.state
}

func (session *MealSession) SetSortOrder(order SortOrder) {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.sortOrder = order
}

// History returns the latest snapshot under the selected sort order.
func (session *MealSession) History() []models.MealRecord {
	session.mu.Lock()
	snapshot := session.history
	order := session.sortOrder
	session.mu.Unlock()
	return SortMeals(snapshot, order)
}

// WeeklySummary aggregates the meals inside the rolling window as of now.
func (session *MealSession) WeeklySummary() WeeklySummary {
	return SummarizeWeek(session.WeeklyMeals())
}

// WeeklyMeals returns the meals inside the rolling window, newest-first. The
// window boundary is recomputed on every call; a long-lived session does not
// keep counting meals that have aged past seven days.
func (session *MealSession) WeeklyMeals() []models.MealRecord {
	session.mu.Lock()
	snapshot := session.weekly
	session.mu.Unlock()

	threshold := session.now().Add(-weeklyWindow).UnixMilli()
	filtered := make([]models.MealRecord, 0, len(snapshot))
	for _, record := range snapshot {
		if record.Timestamp >= threshold {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// Close cancels both store subscriptions and stops the snapshot consumer.
func (session *MealSession) Close() {
	close(session.done)
	session.allSub.Cancel()
	session.weeklySub.Cancel()
	session.consumed.Wait()
}
