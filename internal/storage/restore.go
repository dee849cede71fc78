package storage

import (
	"encoding/json"
	"fmt"

	"github.com/mpataki/gym/internal/models"
)

// Collections is the full persisted state, one field per named collection.
type Collections struct {
	Exercises   []*models.Exercise     `json:"exercises"`
	Workouts    []*models.Workout      `json:"workouts"`
	History     []*models.HistoryEntry `json:"workout_history"`
	RewardTotal int                    `json:"reward_total"`
}

func (s *Storage) Snapshot() (*Collections, error) {
	exercises, err := s.ListExercises()
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	workouts, err := s.ListWorkouts()
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	history, err := s.ListHistory(models.MaxHistoryEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	total, err := s.RewardTotal()
	if err != nil {
		return nil, err
	}

	return &Collections{
		Exercises:   exercises,
		Workouts:    workouts,
		History:     history,
		RewardTotal: total,
	}, nil
}

// ReplaceAll overwrites every collection with c, keeping record ids.
// History is expected newest first, as ListHistory returns it. Exercises and
// workouts are checked and normalized before anything is written.
func (s *Storage) ReplaceAll(c *Collections) error {
	if c.RewardTotal < 0 {
		return fmt.Errorf("reward total must be >= 0, got %d", c.RewardTotal)
	}
	for _, ex := range c.Exercises {
		if ex.Difficulty == 0 {
			ex.Difficulty = models.DifficultyMedium
		}
		if !ex.Difficulty.Valid() {
			return fmt.Errorf("exercise %d: %s", ex.ID, ex.Difficulty)
		}
	}
	for _, w := range c.Workouts {
		if err := w.Normalize(); err != nil {
			return fmt.Errorf("workout %d: %w", w.ID, err)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"exercises", "workouts", "workout_history"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, ex := range c.Exercises {
		groups, err := json.Marshal(nonNilStrings(ex.MuscleGroups))
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO exercises (id, name, category, muscle_groups, difficulty, description, image, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ex.ID, ex.Name, ex.Category, string(groups), int(ex.Difficulty), ex.Description, ex.Image, formatTime(ex.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to restore exercise %d: %w", ex.ID, err)
		}
	}

	for _, w := range c.Workouts {
		entries, err := encodeEntries(w.Exercises)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO workouts (id, name, color, duration_minutes, description, difficulty, exercises, created_at, last_completed)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.ID, w.Name, w.Color, w.DurationMinutes, w.Description, int(w.Difficulty), entries,
			formatTime(w.CreatedAt), nullableTime(w.LastCompleted),
		)
		if err != nil {
			return fmt.Errorf("failed to restore workout %d: %w", w.ID, err)
		}
	}

	history := c.History
	if len(history) > models.MaxHistoryEntries {
		history = history[:models.MaxHistoryEntries]
	}
	// Insert oldest first so the newest entry gets the highest row id.
	for i := len(history) - 1; i >= 0; i-- {
		if err := insertHistory(tx, history[i]); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`UPDATE reward_total SET total = ? WHERE id = 1`, c.RewardTotal); err != nil {
		return fmt.Errorf("failed to restore reward total: %w", err)
	}

	return tx.Commit()
}
