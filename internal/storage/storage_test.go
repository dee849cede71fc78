package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mpataki/gym/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "gym.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func legDay() *models.Workout {
	return &models.Workout{
		Name:  "Leg Day",
		Color: models.DefaultWorkoutColor,
		Exercises: []models.WorkoutExercise{
			{
				ExerciseID:   1,
				Name:         "Squat",
				Category:     "strength",
				MuscleGroups: []string{"quads", "glutes"},
				Difficulty:   models.DifficultyHigh,
				RestSeconds:  90,
				Sets:         []models.Set{{Reps: 10, Weight: 40}, {Reps: 10, Weight: 40}},
			},
		},
		Difficulty: models.DifficultyHigh,
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gym.db")

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveRewardTotal(12))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	total, err := s.RewardTotal()
	require.NoError(t, err)
	assert.Equal(t, 12, total)
}

func TestExerciseCRUD(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateExercise(&models.Exercise{
		Name:         "Squat",
		Category:     "strength",
		MuscleGroups: []string{"quads"},
		Difficulty:   models.DifficultyHigh,
	})
	require.NoError(t, err)

	ex, err := s.GetExercise(id)
	require.NoError(t, err)
	assert.Equal(t, "Squat", ex.Name)
	assert.Equal(t, []string{"quads"}, ex.MuscleGroups)
	assert.Equal(t, models.DifficultyHigh, ex.Difficulty)

	ex.Description = "back squat"
	require.NoError(t, s.UpdateExercise(ex))

	found, err := s.FindExerciseByName("squat")
	require.NoError(t, err)
	assert.Equal(t, "back squat", found.Description)

	require.NoError(t, s.DeleteExercise(id))
	_, err = s.GetExercise(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteExercise(id), ErrNotFound)
}

func TestWorkoutRoundTripStripsSessionFields(t *testing.T) {
	s := newTestStore(t)

	w := legDay()
	w.Exercises[0].Sets[0].Completed = true
	w.Exercises[0].Sets[0].ActualReps = 8

	id, err := s.CreateWorkout(w)
	require.NoError(t, err)

	got, err := s.GetWorkout(id)
	require.NoError(t, err)
	assert.Equal(t, "Leg Day", got.Name)
	require.Len(t, got.Exercises, 1)
	assert.Equal(t, 90, got.Exercises[0].RestSeconds)
	assert.Equal(t, models.Set{Reps: 10, Weight: 40}, got.Exercises[0].Sets[0])
	assert.Nil(t, got.LastCompleted)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestWorkoutWithoutEntryDifficultyStaysReadable(t *testing.T) {
	s := newTestStore(t)

	w := &models.Workout{
		Name:      "Manual",
		Exercises: []models.WorkoutExercise{{Name: "Plank", Sets: []models.Set{{Reps: 1}}}},
	}
	id, err := s.CreateWorkout(w)
	require.NoError(t, err)

	got, err := s.GetWorkout(id)
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyMedium, got.Exercises[0].Difficulty)
	assert.Equal(t, models.DifficultyMedium, got.Difficulty)

	all, err := s.ListWorkouts()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.Snapshot()
	assert.NoError(t, err)
}

func TestGetWorkoutNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetWorkout(42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateWorkoutLastCompleted(42, time.Now()), ErrNotFound)
	assert.ErrorIs(t, s.UpdateWorkoutSet(42, 0, 0, 5, 5), ErrNotFound)
}

func TestUpdateWorkoutSetAndLastCompleted(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateWorkout(legDay())
	require.NoError(t, err)

	require.NoError(t, s.UpdateWorkoutSet(id, 0, 1, 8, 50))
	assert.Error(t, s.UpdateWorkoutSet(id, 0, 2, 8, 50))
	assert.Error(t, s.UpdateWorkoutSet(id, 1, 0, 8, 50))

	done := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	require.NoError(t, s.UpdateWorkoutLastCompleted(id, done))

	got, err := s.GetWorkout(id)
	require.NoError(t, err)
	assert.Equal(t, models.Set{Reps: 10, Weight: 40}, got.Exercises[0].Sets[0])
	assert.Equal(t, models.Set{Reps: 8, Weight: 50}, got.Exercises[0].Sets[1])
	require.NotNil(t, got.LastCompleted)
	assert.True(t, done.Equal(*got.LastCompleted))
}

// TestHistoryCap verifies the 51st append evicts the oldest entry and the log
// stays newest first.
func TestHistoryCap(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	for i := 1; i <= models.MaxHistoryEntries+1; i++ {
		require.NoError(t, s.AppendHistory(&models.HistoryEntry{
			ID:          fmt.Sprintf("entry-%d", i),
			WorkoutID:   1,
			WorkoutName: "Leg Day",
			CompletedAt: base.Add(time.Duration(i) * time.Hour),
			Reward:      5,
		}))
	}

	entries, err := s.ListHistory(0)
	require.NoError(t, err)
	require.Len(t, entries, models.MaxHistoryEntries)
	assert.Equal(t, "entry-51", entries[0].ID)
	assert.Equal(t, "entry-2", entries[len(entries)-1].ID)
}

func TestRewardTotalRejectsNegative(t *testing.T) {
	s := newTestStore(t)

	total, err := s.RewardTotal()
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	assert.Error(t, s.SaveRewardTotal(-1))
	require.NoError(t, s.SaveRewardTotal(30))

	total, err = s.RewardTotal()
	require.NoError(t, err)
	assert.Equal(t, 30, total)
}

func TestSnapshotAndReplaceAll(t *testing.T) {
	src := newTestStore(t)

	exID, err := src.CreateExercise(&models.Exercise{Name: "Squat", Difficulty: models.DifficultyMedium})
	require.NoError(t, err)
	wID, err := src.CreateWorkout(legDay())
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		require.NoError(t, src.AppendHistory(&models.HistoryEntry{
			ID:          fmt.Sprintf("h%d", i),
			WorkoutID:   wID,
			WorkoutName: "Leg Day",
			CompletedAt: time.Now(),
		}))
	}
	require.NoError(t, src.SaveRewardTotal(15))

	snap, err := src.Snapshot()
	require.NoError(t, err)

	dst := newTestStore(t)
	_, err = dst.CreateExercise(&models.Exercise{Name: "Stale", Difficulty: models.DifficultyLow})
	require.NoError(t, err)
	require.NoError(t, dst.ReplaceAll(snap))

	exercises, err := dst.ListExercises()
	require.NoError(t, err)
	require.Len(t, exercises, 1)
	assert.Equal(t, exID, exercises[0].ID)

	w, err := dst.GetWorkout(wID)
	require.NoError(t, err)
	assert.Equal(t, "Leg Day", w.Name)

	history, err := dst.ListHistory(0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "h3", history[0].ID)

	total, err := dst.RewardTotal()
	require.NoError(t, err)
	assert.Equal(t, 15, total)
}

func TestReplaceAllNormalizesWorkouts(t *testing.T) {
	s := newTestStore(t)

	var c Collections
	require.NoError(t, json.Unmarshal([]byte(`{
		"exercises": [{"id": 1, "name": "Plank"}],
		"workouts": [{"id": 3, "name": "Core", "exercises": [{"name": "Plank", "sets": [{"reps": 30}]}]}],
		"reward_total": 5
	}`), &c))
	require.NoError(t, s.ReplaceAll(&c))

	w, err := s.GetWorkout(3)
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyMedium, w.Exercises[0].Difficulty)
	assert.Equal(t, models.DefaultRestSeconds, w.Exercises[0].RestSeconds)

	ex, err := s.GetExercise(1)
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyMedium, ex.Difficulty)
}

func TestReplaceAllRejectsInvalidWorkoutAndKeepsData(t *testing.T) {
	s := newTestStore(t)
	id, err := s.CreateWorkout(legDay())
	require.NoError(t, err)

	bad := &Collections{Workouts: []*models.Workout{{ID: 9, Name: "Broken"}}}
	assert.Error(t, s.ReplaceAll(bad))

	_, err = s.GetWorkout(id)
	assert.NoError(t, err)
}
