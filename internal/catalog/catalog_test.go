package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mpataki/gym/internal/models"
	"github.com/mpataki/gym/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) (*Catalog, *storage.Storage) {
	t.Helper()
	s, err := storage.New(filepath.Join(t.TempDir(), "gym.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

const legsYAML = `
exercises:
  - name: Squat
    category: strength
    muscles: [Quads, glutes, quads]
    difficulty: high
  - name: Calf Raise
    category: strength
    muscles: [calves]
    difficulty: low
workouts:
  - name: Leg Day
    color: "#16a34a"
    duration: 45
    exercises:
      - exercise: squat
        rest: 120
        sets:
          - {reps: 5, weight: 100}
          - {reps: 5, weight: 100}
      - exercise: Calf Raise
        sets:
          - {reps: 15}
`

func TestCreateExerciseNormalizes(t *testing.T) {
	c, s := newTestCatalog(t)

	ex := &models.Exercise{Name: "  Deadlift ", MuscleGroups: []string{"Back", " back", "", "Hamstrings"}}
	id, err := c.CreateExercise(ex)
	require.NoError(t, err)

	got, err := s.GetExercise(id)
	require.NoError(t, err)
	assert.Equal(t, "Deadlift", got.Name)
	assert.Equal(t, []string{"back", "hamstrings"}, got.MuscleGroups)
	assert.Equal(t, models.DifficultyMedium, got.Difficulty)

	_, err = c.CreateExercise(&models.Exercise{Name: " "})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = c.CreateExercise(&models.Exercise{Name: "Jump", Difficulty: 7})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCreateWorkoutValidates(t *testing.T) {
	c, _ := newTestCatalog(t)

	tests := []struct {
		name string
		w    *models.Workout
	}{
		{"no name", &models.Workout{Exercises: []models.WorkoutExercise{{Name: "Squat", Sets: []models.Set{{Reps: 5}}}}}},
		{"no exercises", &models.Workout{Name: "Empty"}},
		{"no sets", &models.Workout{Name: "Bare", Exercises: []models.WorkoutExercise{{Name: "Squat"}}}},
		{"zero reps", &models.Workout{Name: "Zero", Exercises: []models.WorkoutExercise{{Name: "Squat", Sets: []models.Set{{Reps: 0}}}}}},
		{"negative weight", &models.Workout{Name: "Neg", Exercises: []models.WorkoutExercise{{Name: "Squat", Sets: []models.Set{{Reps: 5, Weight: -1}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateWorkout(tt.w)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestCreateWorkoutDefaults(t *testing.T) {
	c, s := newTestCatalog(t)

	w := &models.Workout{
		Name: "Push",
		Exercises: []models.WorkoutExercise{
			{Name: "Bench", Difficulty: models.DifficultyHigh, Sets: []models.Set{{Reps: 5, Weight: 80}}},
			{Name: "Fly", Difficulty: models.DifficultyMedium, Sets: []models.Set{{Reps: 12, Weight: 10}}},
		},
	}
	id, err := c.CreateWorkout(w)
	require.NoError(t, err)

	got, err := s.GetWorkout(id)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultWorkoutColor, got.Color)
	assert.Equal(t, models.DifficultyHigh, got.Difficulty)
	assert.Equal(t, models.DefaultRestSeconds, got.Exercises[0].RestSeconds)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.LastCompleted)
}

func TestWorkoutWithUnsetEntryDifficultyStaysReadable(t *testing.T) {
	c, _ := newTestCatalog(t)

	id, err := c.CreateWorkout(&models.Workout{
		Name:      "Manual",
		Exercises: []models.WorkoutExercise{{Name: "Plank", Sets: []models.Set{{Reps: 1}}}},
	})
	require.NoError(t, err)

	w, err := c.Workout(id)
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyMedium, w.Exercises[0].Difficulty)

	all, err := c.Workouts()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAddExerciseAndSets(t *testing.T) {
	c, _ := newTestCatalog(t)

	squat := &models.Exercise{Name: "Squat", Category: "strength", MuscleGroups: []string{"quads"}, Difficulty: models.DifficultyHigh}
	_, err := c.CreateExercise(squat)
	require.NoError(t, err)
	plank := &models.Exercise{Name: "Plank", Difficulty: models.DifficultyLow}
	_, err = c.CreateExercise(plank)
	require.NoError(t, err)

	w := &models.Workout{Name: "Core", Exercises: []models.WorkoutExercise{Entry(plank)}}
	id, err := c.CreateWorkout(w)
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyLow, w.Difficulty)

	w, err = c.AddExercise(id, squat.ID)
	require.NoError(t, err)
	require.Len(t, w.Exercises, 2)
	added := w.Exercises[1]
	assert.Equal(t, squat.ID, added.ExerciseID)
	assert.Equal(t, "Squat", added.Name)
	assert.Equal(t, []string{"quads"}, added.MuscleGroups)
	assert.Equal(t, []models.Set{{Reps: DefaultReps, Weight: DefaultWeight}}, added.Sets)
	assert.Equal(t, models.DifficultyMedium, w.Difficulty)

	// Deleting the catalog exercise leaves the workout's copy alone.
	require.NoError(t, c.DeleteExercise(squat.ID))
	w, err = c.Workout(id)
	require.NoError(t, err)
	assert.Equal(t, "Squat", w.Exercises[1].Name)

	w, err = c.AddSet(id, 1)
	require.NoError(t, err)
	assert.Len(t, w.Exercises[1].Sets, 2)

	w, err = c.RemoveSet(id, 1, 0)
	require.NoError(t, err)
	assert.Len(t, w.Exercises[1].Sets, 1)

	_, err = c.RemoveSet(id, 1, 0)
	assert.ErrorIs(t, err, ErrLastSet)

	_, err = c.AddExercise(id, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)

	w, err = c.RemoveExercise(id, 0)
	require.NoError(t, err)
	require.Len(t, w.Exercises, 1)
	assert.Equal(t, "Squat", w.Exercises[0].Name)

	_, err = c.RemoveExercise(id, 0)
	assert.ErrorIs(t, err, ErrLastExercise)
	_, err = c.RemoveExercise(id, 3)
	assert.ErrorIs(t, err, ErrInvalid)

	w, err = c.Workout(id)
	require.NoError(t, err)
	assert.Len(t, w.Exercises, 1)
}

func TestImportUpsertsByName(t *testing.T) {
	c, s := newTestCatalog(t)

	f, err := Parse([]byte(legsYAML))
	require.NoError(t, err)

	res, err := c.Import(f)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{ExercisesCreated: 2, WorkoutsCreated: 1}, res)

	workouts, err := s.ListWorkouts()
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	w := workouts[0]
	assert.Equal(t, "Leg Day", w.Name)
	assert.Equal(t, "#16a34a", w.Color)
	assert.Equal(t, 45, w.DurationMinutes)
	assert.Equal(t, models.DifficultyMedium, w.Difficulty)
	require.Len(t, w.Exercises, 2)
	assert.Equal(t, "Squat", w.Exercises[0].Name)
	assert.Equal(t, []string{"quads", "glutes"}, w.Exercises[0].MuscleGroups)
	assert.Equal(t, 120, w.Exercises[0].RestSeconds)
	assert.Equal(t, models.DefaultRestSeconds, w.Exercises[1].RestSeconds)
	assert.Equal(t, []models.Set{{Reps: 15}}, w.Exercises[1].Sets)

	res, err = c.Import(f)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{ExercisesUpdated: 2, WorkoutsUpdated: 1}, res)

	exercises, err := s.ListExercises()
	require.NoError(t, err)
	assert.Len(t, exercises, 2)
	workouts, err = s.ListWorkouts()
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	assert.Equal(t, w.ID, workouts[0].ID)
}

func TestImportUnknownExercise(t *testing.T) {
	c, _ := newTestCatalog(t)

	f := &File{Workouts: []WorkoutDef{{
		Name:      "Mystery",
		Exercises: []EntryDef{{Exercise: "Nope", Sets: []SetDef{{Reps: 5}}}},
	}}}
	_, err := c.Import(f)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), `unknown exercise "Nope"`)
}

func TestImportWritesNothingWhenAWorkoutIsBad(t *testing.T) {
	c, s := newTestCatalog(t)

	f := &File{
		Exercises: []ExerciseDef{{Name: "Row"}},
		Workouts: []WorkoutDef{
			{Name: "Pull", Exercises: []EntryDef{{Exercise: "row", Sets: []SetDef{{Reps: 8}}}}},
			{Name: "Back", Exercises: []EntryDef{{Exercise: "Row", Sets: []SetDef{{Reps: 8}}}}},
			{Name: "Mystery", Exercises: []EntryDef{{Exercise: "Nope", Sets: []SetDef{{Reps: 5}}}}},
		},
	}
	_, err := c.Import(f)
	assert.ErrorIs(t, err, ErrInvalid)

	f.Workouts[2] = WorkoutDef{Name: "Zero", Exercises: []EntryDef{{Exercise: "Row", Sets: []SetDef{{Reps: 0}}}}}
	_, err = c.Import(f)
	assert.ErrorIs(t, err, ErrInvalid)

	exercises, err := s.ListExercises()
	require.NoError(t, err)
	assert.Empty(t, exercises)
	workouts, err := s.ListWorkouts()
	require.NoError(t, err)
	assert.Empty(t, workouts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		file File
	}{
		{"unnamed exercise", File{Exercises: []ExerciseDef{{}}}},
		{"duplicate exercise", File{Exercises: []ExerciseDef{{Name: "Row"}, {Name: "row"}}}},
		{"bad difficulty", File{Exercises: []ExerciseDef{{Name: "Row", Difficulty: "insane"}}}},
		{"unnamed workout", File{Workouts: []WorkoutDef{{}}}},
		{"empty workout", File{Workouts: []WorkoutDef{{Name: "W"}}}},
		{"entry without sets", File{Workouts: []WorkoutDef{{Name: "W", Exercises: []EntryDef{{Exercise: "Row"}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(&tt.file), ErrInvalid)
		})
	}
}

func TestLoadAll(t *testing.T) {
	project := t.TempDir()
	user := t.TempDir()

	write := func(dir, name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write(project, "legs.yaml", legsYAML)
	write(project, "notes.txt", "ignored")
	write(user, "legs.yml", "exercises:\n  - name: Lunge\n")
	write(user, "push.yaml", "name: upper\nexercises:\n  - name: Bench\n")

	files, err := LoadAll([]string{project, filepath.Join(project, "missing"), user})
	require.NoError(t, err)

	require.Len(t, files, 2)
	require.Contains(t, files, "legs")
	assert.Equal(t, "Lunge", files["legs"].Exercises[0].Name)
	require.Contains(t, files, "upper")

	write(user, "broken.yaml", "exercises: [")
	_, err = LoadAll([]string{user})
	assert.Error(t, err)
}
