package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Difficulty int

const (
	DifficultyLow    Difficulty = 1
	DifficultyMedium Difficulty = 2
	DifficultyHigh   Difficulty = 3
)

const (
	DefaultRestSeconds  = 60
	DefaultWorkoutColor = "#4f46e5"
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyLow:
		return "low"
	case DifficultyMedium:
		return "medium"
	case DifficultyHigh:
		return "high"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

func (d Difficulty) Valid() bool {
	return d >= DifficultyLow && d <= DifficultyHigh
}

// ParseDifficulty accepts the text forms low, medium and high in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return DifficultyLow, nil
	case "medium", "":
		return DifficultyMedium, nil
	case "high":
		return DifficultyHigh, nil
	}
	return 0, fmt.Errorf("unknown difficulty %q (want low, medium or high)", s)
}

func (d Difficulty) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("cannot encode %s", d)
	}
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Exercise struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	MuscleGroups []string   `json:"muscle_groups"`
	Difficulty   Difficulty `json:"difficulty"`
	Description  string     `json:"description,omitempty"`
	Image        string     `json:"image,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Set holds the targets of one set. The Actual* and Completed fields are only
// meaningful inside an active session.
type Set struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`

	ActualReps   int     `json:"actual_reps,omitempty"`
	ActualWeight float64 `json:"actual_weight,omitempty"`
	Completed    bool    `json:"completed,omitempty"`
}

// WorkoutExercise is one entry of a workout. The exercise fields are a copy
// taken when the exercise was added, so deleting the catalog exercise does not
// break the workout.
type WorkoutExercise struct {
	ExerciseID   int64      `json:"exercise_id"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	MuscleGroups []string   `json:"muscle_groups"`
	Difficulty   Difficulty `json:"difficulty"`
	RestSeconds  int        `json:"rest_seconds"`
	Sets         []Set      `json:"sets"`
}

type Workout struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Color           string            `json:"color"`
	DurationMinutes int               `json:"duration_minutes"`
	Description     string            `json:"description"`
	Exercises       []WorkoutExercise `json:"exercises"`
	Difficulty      Difficulty        `json:"difficulty"`
	CreatedAt       time.Time         `json:"created_at"`
	LastCompleted   *time.Time        `json:"last_completed"`
}

// TotalSets counts the sets across all entries.
func (w *Workout) TotalSets() int {
	n := 0
	for _, ex := range w.Exercises {
		n += len(ex.Sets)
	}
	return n
}

// CloneExercises returns a deep copy of the entries.
func (w *Workout) CloneExercises() []WorkoutExercise {
	return CloneExercises(w.Exercises)
}

func CloneExercises(src []WorkoutExercise) []WorkoutExercise {
	if src == nil {
		return nil
	}
	out := make([]WorkoutExercise, len(src))
	for i, ex := range src {
		out[i] = ex
		if ex.MuscleGroups != nil {
			out[i].MuscleGroups = append([]string(nil), ex.MuscleGroups...)
		}
		if ex.Sets != nil {
			out[i].Sets = append([]Set(nil), ex.Sets...)
		}
	}
	return out
}

// DeriveDifficulty averages the entry difficulties and buckets the mean.
func DeriveDifficulty(entries []WorkoutExercise) Difficulty {
	if len(entries) == 0 {
		return DifficultyLow
	}
	sum := 0
	for _, e := range entries {
		d := e.Difficulty
		if !d.Valid() {
			d = DifficultyMedium
		}
		sum += int(d)
	}
	mean := float64(sum) / float64(len(entries))
	switch {
	case mean < 1.5:
		return DifficultyLow
	case mean < 2.5:
		return DifficultyMedium
	default:
		return DifficultyHigh
	}
}

// Normalize checks the shape every stored workout needs: a name, at least one
// entry, at least one set per entry, reps of at least 1 and no negative
// weight. It fills in the default color, rest and entry difficulty and
// derives the workout difficulty.
func (w *Workout) Normalize() error {
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return errors.New("workout name is required")
	}
	if len(w.Exercises) == 0 {
		return fmt.Errorf("workout %q has no exercises", w.Name)
	}
	if w.Color == "" {
		w.Color = DefaultWorkoutColor
	}
	if w.DurationMinutes < 0 {
		return fmt.Errorf("workout %q: negative duration", w.Name)
	}

	for i := range w.Exercises {
		ex := &w.Exercises[i]
		if len(ex.Sets) == 0 {
			return fmt.Errorf("workout %q: exercise %q has no sets", w.Name, ex.Name)
		}
		if ex.RestSeconds <= 0 {
			ex.RestSeconds = DefaultRestSeconds
		}
		if !ex.Difficulty.Valid() {
			ex.Difficulty = DifficultyMedium
		}
		for j, set := range ex.Sets {
			if set.Reps < 1 {
				return fmt.Errorf("workout %q: exercise %q set %d: reps must be at least 1", w.Name, ex.Name, j+1)
			}
			if set.Weight < 0 {
				return fmt.Errorf("workout %q: exercise %q set %d: negative weight", w.Name, ex.Name, j+1)
			}
		}
	}

	w.Difficulty = DeriveDifficulty(w.Exercises)
	return nil
}
