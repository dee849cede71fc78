package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mpataki/gym/internal/models"
)

const exerciseColumns = `id, name, category, muscle_groups, difficulty, description, image, created_at`

func (s *Storage) CreateExercise(ex *models.Exercise) (int64, error) {
	groups, err := json.Marshal(nonNilStrings(ex.MuscleGroups))
	if err != nil {
		return 0, err
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}

	result, err := s.db.Exec(
		`INSERT INTO exercises (name, category, muscle_groups, difficulty, description, image, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ex.Name, ex.Category, string(groups), int(ex.Difficulty), ex.Description, ex.Image, formatTime(ex.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert exercise: %w", err)
	}
	return result.LastInsertId()
}

func (s *Storage) GetExercise(id int64) (*models.Exercise, error) {
	row := s.db.QueryRow(`SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id)
	ex, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("exercise", id)
	}
	return ex, err
}

// FindExerciseByName returns the oldest exercise with the given name.
func (s *Storage) FindExerciseByName(name string) (*models.Exercise, error) {
	row := s.db.QueryRow(`SELECT `+exerciseColumns+` FROM exercises WHERE name = ? COLLATE NOCASE ORDER BY id LIMIT 1`, name)
	ex, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exercise %q: %w", name, ErrNotFound)
	}
	return ex, err
}

func (s *Storage) UpdateExercise(ex *models.Exercise) error {
	groups, err := json.Marshal(nonNilStrings(ex.MuscleGroups))
	if err != nil {
		return err
	}

	result, err := s.db.Exec(
		`UPDATE exercises SET name = ?, category = ?, muscle_groups = ?, difficulty = ?, description = ?, image = ?
		 WHERE id = ?`,
		ex.Name, ex.Category, string(groups), int(ex.Difficulty), ex.Description, ex.Image, ex.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update exercise: %w", err)
	}
	return checkAffected(result, "exercise", ex.ID)
}

// DeleteExercise removes the catalog exercise only. Workouts keep their copy.
func (s *Storage) DeleteExercise(id int64) error {
	result, err := s.db.Exec(`DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete exercise: %w", err)
	}
	return checkAffected(result, "exercise", id)
}

func (s *Storage) ListExercises() ([]*models.Exercise, error) {
	rows, err := s.db.Query(`SELECT ` + exerciseColumns + ` FROM exercises ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []*models.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExercise(row rowScanner) (*models.Exercise, error) {
	var ex models.Exercise
	var groups, createdAt string
	var difficulty int

	err := row.Scan(&ex.ID, &ex.Name, &ex.Category, &groups, &difficulty, &ex.Description, &ex.Image, &createdAt)
	if err != nil {
		return nil, err
	}

	ex.Difficulty = models.Difficulty(difficulty)
	if !ex.Difficulty.Valid() {
		ex.Difficulty = models.DifficultyMedium
	}
	if err := json.Unmarshal([]byte(groups), &ex.MuscleGroups); err != nil {
		return nil, fmt.Errorf("failed to decode muscle groups of exercise %d: %w", ex.ID, err)
	}
	if ex.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &ex, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
