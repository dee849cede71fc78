// Package catalog validates and edits exercises and workouts before they reach
// storage, and imports them from definition files.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mpataki/gym/internal/models"
)

var (
	ErrInvalid      = errors.New("invalid definition")
	ErrLastSet      = errors.New("an exercise needs at least one set")
	ErrLastExercise = errors.New("a workout needs at least one exercise")
)

// Default set added with a new workout entry.
const (
	DefaultReps   = 10
	DefaultWeight = 0
)

type Store interface {
	CreateExercise(ex *models.Exercise) (int64, error)
	GetExercise(id int64) (*models.Exercise, error)
	FindExerciseByName(name string) (*models.Exercise, error)
	UpdateExercise(ex *models.Exercise) error
	DeleteExercise(id int64) error
	ListExercises() ([]*models.Exercise, error)

	CreateWorkout(w *models.Workout) (int64, error)
	GetWorkout(id int64) (*models.Workout, error)
	UpdateWorkout(w *models.Workout) error
	DeleteWorkout(id int64) error
	ListWorkouts() ([]*models.Workout, error)
}

type Catalog struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Catalog {
	return &Catalog{store: store, now: time.Now}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (c *Catalog) CreateExercise(ex *models.Exercise) (int64, error) {
	if err := normalizeExercise(ex); err != nil {
		return 0, err
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = c.now()
	}
	id, err := c.store.CreateExercise(ex)
	if err != nil {
		return 0, err
	}
	ex.ID = id
	return id, nil
}

// UpdateExercise changes the catalog entry. Workouts that already contain the
// exercise keep their copy.
func (c *Catalog) UpdateExercise(ex *models.Exercise) error {
	if err := normalizeExercise(ex); err != nil {
		return err
	}
	return c.store.UpdateExercise(ex)
}

func (c *Catalog) DeleteExercise(id int64) error {
	return c.store.DeleteExercise(id)
}

func (c *Catalog) Exercises() ([]*models.Exercise, error) {
	return c.store.ListExercises()
}

func normalizeExercise(ex *models.Exercise) error {
	ex.Name = strings.TrimSpace(ex.Name)
	if ex.Name == "" {
		return invalid("exercise name is required")
	}
	if ex.Difficulty == 0 {
		ex.Difficulty = models.DifficultyMedium
	}
	if !ex.Difficulty.Valid() {
		return invalid("exercise %q: %s", ex.Name, ex.Difficulty)
	}
	ex.Category = strings.TrimSpace(ex.Category)
	ex.MuscleGroups = normalizeMuscles(ex.MuscleGroups)
	return nil
}

func normalizeMuscles(in []string) []string {
	out := make([]string, 0, len(in))
	for _, m := range in {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" || slices.Contains(out, m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (c *Catalog) CreateWorkout(w *models.Workout) (int64, error) {
	if err := normalizeWorkout(w); err != nil {
		return 0, err
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = c.now()
	}
	id, err := c.store.CreateWorkout(w)
	if err != nil {
		return 0, err
	}
	w.ID = id
	return id, nil
}

func (c *Catalog) UpdateWorkout(w *models.Workout) error {
	if err := normalizeWorkout(w); err != nil {
		return err
	}
	return c.store.UpdateWorkout(w)
}

func (c *Catalog) DeleteWorkout(id int64) error {
	return c.store.DeleteWorkout(id)
}

func (c *Catalog) Workout(id int64) (*models.Workout, error) {
	return c.store.GetWorkout(id)
}

func (c *Catalog) Workouts() ([]*models.Workout, error) {
	return c.store.ListWorkouts()
}

func normalizeWorkout(w *models.Workout) error {
	if err := w.Normalize(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Entry copies a catalog exercise into a workout entry with one default set.
func Entry(ex *models.Exercise) models.WorkoutExercise {
	return models.WorkoutExercise{
		ExerciseID:   ex.ID,
		Name:         ex.Name,
		Category:     ex.Category,
		MuscleGroups: slices.Clone(ex.MuscleGroups),
		Difficulty:   ex.Difficulty,
		RestSeconds:  models.DefaultRestSeconds,
		Sets:         []models.Set{{Reps: DefaultReps, Weight: DefaultWeight}},
	}
}

// AddExercise appends a copy of the catalog exercise to the workout.
func (c *Catalog) AddExercise(workoutID, exerciseID int64) (*models.Workout, error) {
	ex, err := c.store.GetExercise(exerciseID)
	if err != nil {
		return nil, err
	}
	return c.editWorkout(workoutID, func(w *models.Workout) error {
		w.Exercises = append(w.Exercises, Entry(ex))
		return nil
	})
}

// AddSet appends a set that repeats the last set of the entry.
func (c *Catalog) AddSet(workoutID int64, exerciseIndex int) (*models.Workout, error) {
	return c.editWorkout(workoutID, func(w *models.Workout) error {
		if exerciseIndex < 0 || exerciseIndex >= len(w.Exercises) {
			return invalid("exercise index %d out of range", exerciseIndex)
		}
		ex := &w.Exercises[exerciseIndex]
		set := models.Set{Reps: DefaultReps, Weight: DefaultWeight}
		if n := len(ex.Sets); n > 0 {
			set = models.Set{Reps: ex.Sets[n-1].Reps, Weight: ex.Sets[n-1].Weight}
		}
		ex.Sets = append(ex.Sets, set)
		return nil
	})
}

func (c *Catalog) RemoveSet(workoutID int64, exerciseIndex, setIndex int) (*models.Workout, error) {
	return c.editWorkout(workoutID, func(w *models.Workout) error {
		if exerciseIndex < 0 || exerciseIndex >= len(w.Exercises) {
			return invalid("exercise index %d out of range", exerciseIndex)
		}
		ex := &w.Exercises[exerciseIndex]
		if setIndex < 0 || setIndex >= len(ex.Sets) {
			return invalid("set index %d out of range", setIndex)
		}
		if len(ex.Sets) == 1 {
			return ErrLastSet
		}
		ex.Sets = slices.Delete(ex.Sets, setIndex, setIndex+1)
		return nil
	})
}

func (c *Catalog) RemoveExercise(workoutID int64, exerciseIndex int) (*models.Workout, error) {
	return c.editWorkout(workoutID, func(w *models.Workout) error {
		if exerciseIndex < 0 || exerciseIndex >= len(w.Exercises) {
			return invalid("exercise index %d out of range", exerciseIndex)
		}
		if len(w.Exercises) == 1 {
			return ErrLastExercise
		}
		w.Exercises = slices.Delete(w.Exercises, exerciseIndex, exerciseIndex+1)
		return nil
	})
}

func (c *Catalog) editWorkout(id int64, edit func(w *models.Workout) error) (*models.Workout, error) {
	w, err := c.store.GetWorkout(id)
	if err != nil {
		return nil, err
	}
	if err := edit(w); err != nil {
		return nil, err
	}
	if err := c.UpdateWorkout(w); err != nil {
		return nil, err
	}
	return w, nil
}
