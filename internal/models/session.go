package models

// Change records one manual edit of a set made during a session.
// Old values are the set's original targets.
type Change struct {
	ExerciseIndex int     `json:"exercise_index"`
	SetIndex      int     `json:"set_index"`
	OldReps       int     `json:"old_reps"`
	OldWeight     float64 `json:"old_weight"`
	NewReps       int     `json:"new_reps"`
	NewWeight     float64 `json:"new_weight"`
}

type SessionStatus string

const (
	SessionIdle     SessionStatus = "idle"
	SessionRunning  SessionStatus = "running"
	SessionPaused   SessionStatus = "paused"
	SessionFinished SessionStatus = "finished"
)

// Cursor marks the current set of the complete-next-set flow.
type Cursor struct {
	ExerciseIndex int `json:"exercise_index"`
	SetIndex      int `json:"set_index"`
}
