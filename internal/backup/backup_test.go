package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mpataki/gym/internal/models"
	"github.com/mpataki/gym/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(filepath.Join(t.TempDir(), "gym.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *storage.Storage) {
	t.Helper()

	exID, err := s.CreateExercise(&models.Exercise{Name: "Squat", MuscleGroups: []string{"quads"}, Difficulty: models.DifficultyHigh})
	require.NoError(t, err)

	done := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	wID, err := s.CreateWorkout(&models.Workout{
		Name:          "Leg Day",
		Color:         models.DefaultWorkoutColor,
		Difficulty:    models.DifficultyHigh,
		LastCompleted: &done,
		Exercises: []models.WorkoutExercise{{
			ExerciseID: exID, Name: "Squat", Difficulty: models.DifficultyHigh, RestSeconds: 90,
			Sets: []models.Set{{Reps: 5, Weight: 100}},
		}},
	})
	require.NoError(t, err)

	for i, name := range []string{"first", "second"} {
		require.NoError(t, s.AppendHistory(&models.HistoryEntry{
			ID:          name,
			WorkoutID:   wID,
			WorkoutName: "Leg Day",
			CompletedAt: done.Add(time.Duration(i) * time.Hour),
			Reward:      5,
		}))
	}
	require.NoError(t, s.SaveRewardTotal(10))
}

func TestExportAndRestore(t *testing.T) {
	src := newTestStore(t)
	seed(t, src)

	now := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	path, err := Export(t.TempDir(), src, now)
	require.NoError(t, err)
	assert.Equal(t, "gym-20260302-091500", filepath.Base(path))

	for _, name := range []string{ExercisesFile, WorkoutsFile, HistoryFile, RewardTotalFile, ManifestFile} {
		assert.FileExists(t, filepath.Join(path, name))
	}

	bundle, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 10, bundle.RewardTotal)
	require.Len(t, bundle.History, 2)
	assert.Equal(t, "second", bundle.History[0].ID)

	dst := newTestStore(t)
	require.NoError(t, dst.SaveRewardTotal(99))
	_, err = dst.CreateExercise(&models.Exercise{Name: "Stale", Difficulty: models.DifficultyLow})
	require.NoError(t, err)

	require.NoError(t, Restore(bundle, dst))

	got, err := dst.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 10, got.RewardTotal)
	require.Len(t, got.Exercises, 1)
	assert.Equal(t, "Squat", got.Exercises[0].Name)
	require.Len(t, got.Workouts, 1)
	w := got.Workouts[0]
	assert.Equal(t, "Leg Day", w.Name)
	require.NotNil(t, w.LastCompleted)
	assert.True(t, w.LastCompleted.Equal(time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)))
	assert.Equal(t, []models.Set{{Reps: 5, Weight: 100}}, w.Exercises[0].Sets)
	require.Len(t, got.History, 2)
	assert.Equal(t, "second", got.History[0].ID)
	assert.Equal(t, "first", got.History[1].ID)
}

func TestReadRejectsIncompleteBackup(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ExercisesFile), []byte("[]"), 0644))

	_, err := Read(dir)
	assert.Error(t, err)

	_, err = Read(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadRejectsNewerFormat(t *testing.T) {
	src := newTestStore(t)
	path, err := Export(t.TempDir(), src, time.Now())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(path, ManifestFile), []byte(`{"version": 99}`), 0644))
	_, err = Read(path)
	assert.ErrorContains(t, err, "newer than supported")
}
