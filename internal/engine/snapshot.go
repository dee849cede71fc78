package engine

import (
	"time"

	"github.com/mpataki/gym/internal/models"
)

// Snapshot is a detached copy of the engine state. Mutating it has no effect on
// the engine.
type Snapshot struct {
	Status      models.SessionStatus
	SessionID   string
	WorkoutID   int64
	WorkoutName string
	Exercises   []models.WorkoutExercise

	Cursor        models.Cursor
	CompletedSets int
	TotalSets     int

	Elapsed       time.Duration
	PausedFor     time.Duration
	RestRemaining time.Duration

	Changes []models.Change

	// ConfirmBeforeLeave is set while a session is active; the UI should ask
	// before navigating away.
	ConfirmBeforeLeave bool
	// AwaitingReview is set when every set is done but the edit log needs a
	// keep or discard decision before the session can finish.
	AwaitingReview bool

	// LastSummary is the result of the most recently finished session.
	LastSummary *Summary
}

func (s Snapshot) Active() bool {
	return s.Status == models.SessionRunning || s.Status == models.SessionPaused
}

func (s Snapshot) ElapsedSeconds() int {
	return int(s.Elapsed / time.Second)
}

func (s Snapshot) AllComplete() bool {
	return s.TotalSets > 0 && s.CompletedSets == s.TotalSets
}

// CurrentSet returns the set under the cursor, if there is a session.
func (s Snapshot) CurrentSet() (models.WorkoutExercise, models.Set, bool) {
	c := s.Cursor
	if c.ExerciseIndex < 0 || c.ExerciseIndex >= len(s.Exercises) {
		return models.WorkoutExercise{}, models.Set{}, false
	}
	ex := s.Exercises[c.ExerciseIndex]
	if c.SetIndex < 0 || c.SetIndex >= len(ex.Sets) {
		return models.WorkoutExercise{}, models.Set{}, false
	}
	return ex, ex.Sets[c.SetIndex], true
}

// Summary is what a finished session produced.
type Summary struct {
	Entry       models.HistoryEntry
	Elapsed     time.Duration
	Reward      int
	RewardTotal int
	Reconciled  int
	Discarded   int
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:      e.status,
		LastSummary: e.last,
	}

	s := e.session
	if s == nil {
		return snap
	}

	now := e.clock.Now()
	snap.SessionID = s.id
	snap.WorkoutID = s.workoutID
	snap.WorkoutName = s.workoutName
	snap.Exercises = models.CloneExercises(s.exercises)
	snap.Cursor = s.cursor
	snap.CompletedSets = s.completedSets
	snap.TotalSets = s.totalSets
	snap.Elapsed = s.elapsed(now)
	snap.PausedFor = s.pausedFor(now)
	snap.RestRemaining = s.restRemaining(now)
	snap.Changes = append([]models.Change(nil), s.changes...)
	snap.ConfirmBeforeLeave = true
	snap.AwaitingReview = s.awaitingReview
	return snap
}
