package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kpiwatch/kpiwatch/internal/datastore/entities"
)

// TransitionResult describes what a transition did. Triggered is true only
// when a new breach episode began, the sole case worth notifying about.
type TransitionResult struct {
	Triggered bool
	Resolved  bool
	State     *entities.AlertState
}

// AlertStore applies the alert state machine on top of the persistence
// layer:
//
//	none → triggered → resolved → (triggered again on a new breach)
//
// A transition is a compare-and-update, not a blind overwrite: concurrent
// transitions for the same indicator are serialized by a per-indicator
// lock so a failed collection and a slow prior evaluation can never race
// to corrupt state.
type AlertStore struct {
	store AlertStateStore

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewAlertStore creates an AlertStore over the given persistence backend.
func NewAlertStore(store AlertStateStore) *AlertStore {
	return &AlertStore{
		store: store,
		locks: make(map[uint]*sync.Mutex),
	}
}

func (s *AlertStore) lockFor(indicatorID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[indicatorID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[indicatorID] = l
	}
	return l
}

// Transition applies an evaluation outcome to the indicator's current
// alert state at the given time.
//
//   - shouldAlert while not triggered: a new breach episode begins.
//   - shouldAlert while already triggered: deviation and severity are
//     refreshed in place, but no new alert is raised (suppresses duplicate
//     notifications on every poll while the breach persists).
//   - recovery while triggered: the alert resolves with a resolved time.
//   - anything else: no change.
func (s *AlertStore) Transition(ctx context.Context, ind *entities.Indicator, eval Evaluation, now time.Time) (TransitionResult, error) {
	lock := s.lockFor(ind.ID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.store.Get(ctx, ind.ID)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("failed to read alert state for indicator %d: %w", ind.ID, err)
	}

	switch {
	case eval.ShouldAlert && (state == nil || state.Status != entities.AlertStatusTriggered):
		if state == nil {
			state = &entities.AlertState{IndicatorID: ind.ID}
		}
		state.Status = entities.AlertStatusTriggered
		trigger := now
		state.LastTrigger = &trigger
		state.LastDeviation = eval.DeviationPercent
		state.Severity = string(eval.Severity)
		state.ResolvedAt = nil
		if err := s.store.Save(ctx, state); err != nil {
			return TransitionResult{}, fmt.Errorf("failed to save triggered alert for indicator %d: %w", ind.ID, err)
		}
		return TransitionResult{Triggered: true, State: state}, nil

	case eval.ShouldAlert: // already triggered: refresh, do not re-notify
		state.LastDeviation = eval.DeviationPercent
		state.Severity = string(eval.Severity)
		if err := s.store.Save(ctx, state); err != nil {
			return TransitionResult{}, fmt.Errorf("failed to refresh alert for indicator %d: %w", ind.ID, err)
		}
		return TransitionResult{State: state}, nil

	case state != nil && state.Status == entities.AlertStatusTriggered:
		state.Status = entities.AlertStatusResolved
		resolved := now
		state.ResolvedAt = &resolved
		if err := s.store.Save(ctx, state); err != nil {
			return TransitionResult{}, fmt.Errorf("failed to resolve alert for indicator %d: %w", ind.ID, err)
		}
		return TransitionResult{Resolved: true, State: state}, nil

	default: // not alerting, nothing triggered: no change
		return TransitionResult{State: state}, nil
	}
}
