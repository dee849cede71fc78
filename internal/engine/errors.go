package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoActiveSession is a soft signal: the operation was a no-op because no
	// session is running.
	ErrNoActiveSession = errors.New("no active session")

	// ErrSessionActive is returned by Start while another session is running or
	// paused. The caller has to finish or abandon it first.
	ErrSessionActive = errors.New("a session is already active")

	// ErrReviewRequired is returned by Finish when the session has edited sets
	// and the caller has not decided whether to keep them.
	ErrReviewRequired = errors.New("edited sets need a keep or discard decision")

	ErrInvalidWorkout = errors.New("invalid workout")
	ErrSetOutOfRange  = errors.New("set out of range")
	ErrInvalidEdit    = errors.New("invalid set values")
)

type InvalidWorkoutError struct {
	WorkoutID int64
	Reason    string
}

func (e *InvalidWorkoutError) Error() string {
	return fmt.Sprintf("workout %d cannot be started: %s", e.WorkoutID, e.Reason)
}

func (e *InvalidWorkoutError) Is(target error) bool {
	return target == ErrInvalidWorkout
}

// Step names one persistence write of the finish sequence.
type Step string

const (
	StepReconcile     Step = "reconcile"
	StepHistory       Step = "history"
	StepLastCompleted Step = "last-completed"
	StepReward        Step = "reward"
)

// PersistenceError reports writes that failed while finishing a session. The
// session is finished regardless.
type PersistenceError struct {
	Failures map[Step]error
}

func (e *PersistenceError) add(step Step, err error) {
	if e.Failures == nil {
		e.Failures = make(map[Step]error)
	}
	if prev, ok := e.Failures[step]; ok {
		err = errors.Join(prev, err)
	}
	e.Failures[step] = err
}

func (e *PersistenceError) empty() bool {
	return len(e.Failures) == 0
}

// Failed reports whether the given step did not persist.
func (e *PersistenceError) Failed(step Step) bool {
	_, ok := e.Failures[step]
	return ok
}

func (e *PersistenceError) Error() string {
	var parts []string
	for _, step := range []Step{StepReconcile, StepHistory, StepLastCompleted, StepReward} {
		if err, ok := e.Failures[step]; ok {
			parts = append(parts, fmt.Sprintf("%s: %v", step, err))
		}
	}
	msg := "session finished but results were not fully saved: " + strings.Join(parts, "; ")
	if e.Failed(StepReward) {
		msg += " (reward may not have been saved)"
	}
	return msg
}

func (e *PersistenceError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, step := range []Step{StepReconcile, StepHistory, StepLastCompleted, StepReward} {
		if err, ok := e.Failures[step]; ok {
			errs = append(errs, err)
		}
	}
	return errs
}
