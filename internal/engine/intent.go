package engine

import "fmt"

// Intent is a user action forwarded by the presentation layer.
type Intent interface {
	intent()
}

type StartIntent struct {
	WorkoutID int64
}

type CompleteSetIntent struct{}

type ToggleSetIntent struct {
	ExerciseIndex int
	SetIndex      int
}

type EditSetIntent struct {
	ExerciseIndex int
	SetIndex      int
	Reps          int
	Weight        float64
}

type PauseIntent struct{}

type ResumeIntent struct{}

type FinishIntent struct {
	Options FinishOptions
}

func (StartIntent) intent()       {}
func (CompleteSetIntent) intent() {}
func (ToggleSetIntent) intent()   {}
func (EditSetIntent) intent()     {}
func (PauseIntent) intent()       {}
func (ResumeIntent) intent()      {}
func (FinishIntent) intent()      {}

// Dispatch applies the intent and returns the resulting state.
func (e *Engine) Dispatch(in Intent) (Snapshot, error) {
	switch in := in.(type) {
	case StartIntent:
		return e.Start(in.WorkoutID)
	case CompleteSetIntent:
		return e.CompleteCurrentSet()
	case ToggleSetIntent:
		return e.ToggleSetComplete(in.ExerciseIndex, in.SetIndex)
	case EditSetIntent:
		return e.EditSet(in.ExerciseIndex, in.SetIndex, in.Reps, in.Weight)
	case PauseIntent:
		return e.Pause()
	case ResumeIntent:
		return e.Resume()
	case FinishIntent:
		_, err := e.Finish(in.Options)
		return e.State(), err
	default:
		return e.State(), fmt.Errorf("unknown intent %T", in)
	}
}
