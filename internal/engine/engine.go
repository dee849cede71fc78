// Package engine drives one workout session at a time: the set cursor,
// completion flags, the session clock, the edit log and the finish sequence
// that writes history, rewards and edits back to storage.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mpataki/gym/internal/clock"
	"github.com/mpataki/gym/internal/models"
)

// RewardPerExercise is earned for every exercise with at least one completed set.
const RewardPerExercise = 5

type WorkoutStore interface {
	GetWorkout(id int64) (*models.Workout, error)
	UpdateWorkoutLastCompleted(id int64, t time.Time) error
	UpdateWorkoutSet(id int64, exerciseIndex, setIndex, reps int, weight float64) error
}

// RewardLedger persists a reward and returns the new total with a func that
// tells the ledger's subscribers. The engine calls that func once its own lock
// is released.
type RewardLedger interface {
	Credit(amount int, source string) (total int, notify func(), err error)
}

type HistoryLog interface {
	AppendHistory(entry *models.HistoryEntry) error
}

type ChangeDecision int

const (
	ChangesUndecided ChangeDecision = iota
	ChangesDiscard
	ChangesPersist
)

type FinishOptions struct {
	// ForceEarly marks a user-initiated early end. The caller is expected to
	// have confirmed it.
	ForceEarly bool
	Changes    ChangeDecision
}

type Option func(*Engine)

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tickInterval = d
		}
	}
}

// WithDefaultRest sets the rest countdown used for entries without their own.
func WithDefaultRest(seconds int) Option {
	return func(e *Engine) { e.defaultRest = seconds }
}

type Engine struct {
	store   WorkoutStore
	rewards RewardLedger
	history HistoryLog
	clock   clock.Clock
	log     *slog.Logger

	tickInterval time.Duration
	defaultRest  int

	mu         sync.Mutex
	status     models.SessionStatus
	session    *session
	ticker     clock.Ticker
	generation uint64
	last       *Summary

	// afterUnlock runs once e.mu is released, before observers.
	afterUnlock []func()

	obsMu     sync.Mutex
	observers map[int]func(Snapshot)
	nextObs   int
}

func New(store WorkoutStore, rewards RewardLedger, history HistoryLog, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		rewards:      rewards,
		history:      history,
		clock:        clock.Real{},
		tickInterval: time.Second,
		status:       models.SessionIdle,
		observers:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Start loads the workout and begins a session on a private copy of its
// exercises.
func (e *Engine) Start(workoutID int64) (Snapshot, error) {
	e.mu.Lock()
	if e.session != nil {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, ErrSessionActive
	}

	w, err := e.store.GetWorkout(workoutID)
	if err != nil {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, fmt.Errorf("failed to load workout %d: %w", workoutID, err)
	}
	if err := validateWorkout(w); err != nil {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, err
	}

	now := e.clock.Now()
	e.session = newSession(uuid.NewString(), w, now)
	e.session.defaultRest = e.defaultRest
	e.status = models.SessionRunning
	e.startTickerLocked()

	e.log.Info("session started",
		"session", e.session.id,
		"workout", w.Name,
		"workout_id", w.ID,
		"sets", e.session.totalSets,
	)

	return e.commit()
}

func validateWorkout(w *models.Workout) error {
	if len(w.Exercises) == 0 {
		return &InvalidWorkoutError{WorkoutID: w.ID, Reason: "workout has no exercises"}
	}
	for _, ex := range w.Exercises {
		if len(ex.Sets) == 0 {
			return &InvalidWorkoutError{WorkoutID: w.ID, Reason: fmt.Sprintf("exercise %q has no sets", ex.Name)}
		}
	}
	return nil
}

// CompleteCurrentSet marks the set under the cursor done and advances the
// cursor. When nothing is left the session finishes, unless the edit log still
// needs a decision, in which case the snapshot reports AwaitingReview.
func (e *Engine) CompleteCurrentSet() (Snapshot, error) {
	e.mu.Lock()
	s := e.session
	if s == nil {
		return e.unlockNoSession()
	}

	now := e.clock.Now()
	s.markComplete(s.cursor, now)

	next, ok := s.nextIncomplete()
	if ok {
		s.cursor = next
		return e.commit()
	}

	if len(s.changes) > 0 {
		s.awaitingReview = true
		return e.commit()
	}

	_, err := e.finishLocked(FinishOptions{})
	snap, _ := e.commit()
	return snap, err
}

// ToggleSetComplete flips one set without moving the cursor.
func (e *Engine) ToggleSetComplete(exerciseIndex, setIndex int) (Snapshot, error) {
	e.mu.Lock()
	s := e.session
	if s == nil {
		return e.unlockNoSession()
	}
	if !s.validIndex(exerciseIndex, setIndex) {
		return e.unlockWith(fmt.Errorf("%w: exercise %d set %d", ErrSetOutOfRange, exerciseIndex, setIndex))
	}

	c := models.Cursor{ExerciseIndex: exerciseIndex, SetIndex: setIndex}
	if s.set(c).Completed {
		s.markIncomplete(c)
	} else {
		s.markComplete(c, e.clock.Now())
	}
	return e.commit()
}

// EditSet records the performed reps and weight of a set. Values that differ
// from the set's targets are appended to the edit log.
func (e *Engine) EditSet(exerciseIndex, setIndex, reps int, weight float64) (Snapshot, error) {
	e.mu.Lock()
	s := e.session
	if s == nil {
		return e.unlockNoSession()
	}
	if !s.validIndex(exerciseIndex, setIndex) {
		return e.unlockWith(fmt.Errorf("%w: exercise %d set %d", ErrSetOutOfRange, exerciseIndex, setIndex))
	}
	if reps < 1 || weight < 0 {
		return e.unlockWith(fmt.Errorf("%w: reps must be >= 1 and weight >= 0, got %d and %g", ErrInvalidEdit, reps, weight))
	}

	set := s.set(models.Cursor{ExerciseIndex: exerciseIndex, SetIndex: setIndex})
	set.ActualReps = reps
	set.ActualWeight = weight

	if reps != set.Reps || weight != set.Weight {
		s.changes = append(s.changes, models.Change{
			ExerciseIndex: exerciseIndex,
			SetIndex:      setIndex,
			OldReps:       set.Reps,
			OldWeight:     set.Weight,
			NewReps:       reps,
			NewWeight:     weight,
		})
	}
	return e.commit()
}

// Pause is a no-op when already paused.
func (e *Engine) Pause() (Snapshot, error) {
	e.mu.Lock()
	if e.session == nil {
		return e.unlockNoSession()
	}
	e.session.pause(e.clock.Now())
	e.status = models.SessionPaused
	return e.commit()
}

// Resume is a no-op when not paused.
func (e *Engine) Resume() (Snapshot, error) {
	e.mu.Lock()
	if e.session == nil {
		return e.unlockNoSession()
	}
	e.session.resume(e.clock.Now())
	e.status = models.SessionRunning
	return e.commit()
}

// Finish ends the session. With a non-empty edit log the caller must pass
// ChangesDiscard or ChangesPersist, otherwise ErrReviewRequired is returned and
// the session keeps running with AwaitingReview set. Persistence failures come
// back as *PersistenceError along with the summary; the session is finished
// either way.
func (e *Engine) Finish(opts FinishOptions) (*Summary, error) {
	e.mu.Lock()
	s := e.session
	if s == nil {
		e.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	if len(s.changes) > 0 && opts.Changes == ChangesUndecided {
		s.awaitingReview = true
		e.mu.Unlock()
		return nil, ErrReviewRequired
	}

	summary, err := e.finishLocked(opts)
	e.commit()
	return summary, err
}

// State returns the current snapshot.
func (e *Engine) State() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe registers fn for every state change and clock tick. Call the
// returned func to stop receiving snapshots.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()

	id := e.nextObs
	e.nextObs++
	e.observers[id] = fn
	return func() {
		e.obsMu.Lock()
		defer e.obsMu.Unlock()
		delete(e.observers, id)
	}
}

// finishLocked runs the finish sequence: stop the clock, compute the reward,
// write reconciliation, history, last completed and reward, then drop the
// session. Must be called with e.mu held.
func (e *Engine) finishLocked(opts FinishOptions) (*Summary, error) {
	s := e.session
	e.stopTickerLocked()

	now := e.clock.Now()
	s.resume(now)
	elapsed := s.elapsed(now)

	exercisesDone := s.exercisesCompleted()
	reward := RewardPerExercise * exercisesDone

	summary := &Summary{
		Entry: models.HistoryEntry{
			ID:                 uuid.NewString(),
			SessionID:          s.id,
			WorkoutID:          s.workoutID,
			WorkoutName:        s.workoutName,
			CompletedAt:        now,
			DurationMinutes:    int(elapsed / time.Minute),
			ExercisesCompleted: exercisesDone,
			TotalExercises:     len(s.exercises),
			SetsCompleted:      s.completedSets,
			TotalSets:          s.totalSets,
			Reward:             reward,
			EndedEarly:         opts.ForceEarly,
		},
		Elapsed: elapsed,
		Reward:  reward,
	}

	perr := &PersistenceError{}

	edited := s.editedSets()
	if opts.Changes == ChangesPersist {
		for _, c := range edited {
			set := s.set(c)
			err := e.store.UpdateWorkoutSet(s.workoutID, c.ExerciseIndex, c.SetIndex, set.ActualReps, set.ActualWeight)
			if err != nil {
				perr.add(StepReconcile, err)
				// The workout is gone; the remaining writes would fail the same way.
				if errors.Is(err, models.ErrNotFound) {
					break
				}
				continue
			}
			summary.Reconciled++
		}
	} else {
		summary.Discarded = len(edited)
	}

	if err := e.history.AppendHistory(&summary.Entry); err != nil {
		perr.add(StepHistory, err)
	}
	if err := e.store.UpdateWorkoutLastCompleted(s.workoutID, now); err != nil {
		perr.add(StepLastCompleted, err)
	}
	total, notifyRewards, err := e.rewards.Credit(reward, "workout:"+s.workoutName)
	if err != nil {
		perr.add(StepReward, err)
	} else if notifyRewards != nil {
		e.afterUnlock = append(e.afterUnlock, notifyRewards)
	}
	summary.RewardTotal = total

	e.status = models.SessionFinished
	e.session = nil
	e.last = summary

	e.log.Info("session finished",
		"session", s.id,
		"workout", s.workoutName,
		"early", opts.ForceEarly,
		"sets", fmt.Sprintf("%d/%d", s.completedSets, s.totalSets),
		"elapsed", elapsed.Round(time.Second),
		"reward", reward,
		"reconciled", summary.Reconciled,
	)

	if !perr.empty() {
		e.log.Error("session results not fully saved", "session", s.id, "error", perr)
		return summary, perr
	}
	return summary, nil
}

func (e *Engine) startTickerLocked() {
	e.generation++
	gen := e.generation
	e.ticker = e.clock.Every(e.tickInterval, func(time.Time) {
		e.tick(gen)
	})
}

// stopTickerLocked stops the ticker and bumps the generation so a tick that is
// already in flight is dropped.
func (e *Engine) stopTickerLocked() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
	e.generation++
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if e.session == nil || gen != e.generation {
		e.mu.Unlock()
		return
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
}

// commit takes a snapshot, releases e.mu, runs deferred calls and notifies
// observers.
func (e *Engine) commit() (Snapshot, error) {
	snap := e.snapshotLocked()
	deferred := e.afterUnlock
	e.afterUnlock = nil
	e.mu.Unlock()

	for _, fn := range deferred {
		fn()
	}
	e.notify(snap)
	return snap, nil
}

func (e *Engine) unlockNoSession() (Snapshot, error) {
	return e.unlockWith(ErrNoActiveSession)
}

func (e *Engine) unlockWith(err error) (Snapshot, error) {
	snap := e.snapshotLocked()
	e.mu.Unlock()
	return snap, err
}

func (e *Engine) notify(snap Snapshot) {
	e.obsMu.Lock()
	fns := make([]func(Snapshot), 0, len(e.observers))
	for _, fn := range e.observers {
		fns = append(fns, fn)
	}
	e.obsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
