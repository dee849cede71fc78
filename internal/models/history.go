package models

import "time"

// MaxHistoryEntries caps the workout_history collection.
const MaxHistoryEntries = 50

type HistoryEntry struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	WorkoutID          int64     `json:"workout_id"`
	WorkoutName        string    `json:"workout_name"`
	CompletedAt        time.Time `json:"completed_at"`
	DurationMinutes    int       `json:"duration_minutes"`
	ExercisesCompleted int       `json:"exercises_completed"`
	TotalExercises     int       `json:"total_exercises"`
	SetsCompleted      int       `json:"sets_completed"`
	TotalSets          int       `json:"total_sets"`
	Reward             int       `json:"reward"`
	EndedEarly         bool      `json:"ended_early"`
}
