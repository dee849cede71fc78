package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mpataki/gym/internal/models"
)

const workoutColumns = `id, name, color, duration_minutes, description, difficulty, exercises, created_at, last_completed`

func (s *Storage) CreateWorkout(w *models.Workout) (int64, error) {
	entries, err := encodeEntries(w.Exercises)
	if err != nil {
		return 0, err
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}

	result, err := s.db.Exec(
		`INSERT INTO workouts (name, color, duration_minutes, description, difficulty, exercises, created_at, last_completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.Name, w.Color, w.DurationMinutes, w.Description, int(w.Difficulty), entries,
		formatTime(w.CreatedAt), nullableTime(w.LastCompleted),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert workout: %w", err)
	}
	return result.LastInsertId()
}

func (s *Storage) GetWorkout(id int64) (*models.Workout, error) {
	row := s.db.QueryRow(`SELECT `+workoutColumns+` FROM workouts WHERE id = ?`, id)
	w, err := scanWorkout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("workout", id)
	}
	return w, err
}

func (s *Storage) UpdateWorkout(w *models.Workout) error {
	entries, err := encodeEntries(w.Exercises)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(
		`UPDATE workouts SET name = ?, color = ?, duration_minutes = ?, description = ?, difficulty = ?, exercises = ?, last_completed = ?
		 WHERE id = ?`,
		w.Name, w.Color, w.DurationMinutes, w.Description, int(w.Difficulty), entries, nullableTime(w.LastCompleted), w.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update workout: %w", err)
	}
	return checkAffected(result, "workout", w.ID)
}

func (s *Storage) DeleteWorkout(id int64) error {
	result, err := s.db.Exec(`DELETE FROM workouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workout: %w", err)
	}
	return checkAffected(result, "workout", id)
}

func (s *Storage) ListWorkouts() ([]*models.Workout, error) {
	rows, err := s.db.Query(`SELECT ` + workoutColumns + ` FROM workouts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []*models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

func (s *Storage) UpdateWorkoutLastCompleted(id int64, t time.Time) error {
	result, err := s.db.Exec(`UPDATE workouts SET last_completed = ? WHERE id = ?`, formatTime(t), id)
	if err != nil {
		return fmt.Errorf("failed to update last completed: %w", err)
	}
	return checkAffected(result, "workout", id)
}

// UpdateWorkoutSet overwrites the target reps and weight of one set.
func (s *Storage) UpdateWorkoutSet(id int64, exerciseIndex, setIndex, reps int, weight float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRow(`SELECT exercises FROM workouts WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("workout", id)
	}
	if err != nil {
		return err
	}

	var entries []models.WorkoutExercise
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return fmt.Errorf("failed to decode exercises of workout %d: %w", id, err)
	}
	if exerciseIndex < 0 || exerciseIndex >= len(entries) {
		return fmt.Errorf("workout %d has no exercise %d", id, exerciseIndex)
	}
	sets := entries[exerciseIndex].Sets
	if setIndex < 0 || setIndex >= len(sets) {
		return fmt.Errorf("exercise %d of workout %d has no set %d", exerciseIndex, id, setIndex)
	}
	sets[setIndex].Reps = reps
	sets[setIndex].Weight = weight

	encoded, err := encodeEntries(entries)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE workouts SET exercises = ? WHERE id = ?`, encoded, id); err != nil {
		return fmt.Errorf("failed to update workout set: %w", err)
	}

	return tx.Commit()
}

// encodeEntries drops the session-only set fields before persisting.
func encodeEntries(entries []models.WorkoutExercise) (string, error) {
	clean := models.CloneExercises(entries)
	if clean == nil {
		clean = []models.WorkoutExercise{}
	}
	for i := range clean {
		clean[i].MuscleGroups = nonNilStrings(clean[i].MuscleGroups)
		if !clean[i].Difficulty.Valid() {
			clean[i].Difficulty = models.DifficultyMedium
		}
		for j := range clean[i].Sets {
			set := &clean[i].Sets[j]
			set.ActualReps = 0
			set.ActualWeight = 0
			set.Completed = false
		}
	}

	data, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("failed to encode exercises: %w", err)
	}
	return string(data), nil
}

func scanWorkout(row rowScanner) (*models.Workout, error) {
	var w models.Workout
	var entries, createdAt string
	var lastCompleted sql.NullString
	var difficulty int

	err := row.Scan(
		&w.ID, &w.Name, &w.Color, &w.DurationMinutes, &w.Description,
		&difficulty, &entries, &createdAt, &lastCompleted,
	)
	if err != nil {
		return nil, err
	}

	w.Difficulty = models.Difficulty(difficulty)
	if !w.Difficulty.Valid() {
		w.Difficulty = models.DifficultyMedium
	}
	if err := json.Unmarshal([]byte(entries), &w.Exercises); err != nil {
		return nil, fmt.Errorf("failed to decode exercises of workout %d: %w", w.ID, err)
	}
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if w.LastCompleted, err = parseNullTime(lastCompleted); err != nil {
		return nil, err
	}
	return &w, nil
}
