package storage

import (
	"database/sql"
	"fmt"

	"github.com/mpataki/gym/internal/models"
)

const historyColumns = `entry_id, session_id, workout_id, workout_name, completed_at, duration_minutes,
	exercises_completed, total_exercises, sets_completed, total_sets, reward, ended_early`

// AppendHistory inserts the entry at the head of the log and evicts everything
// beyond the newest MaxHistoryEntries.
func (s *Storage) AppendHistory(entry *models.HistoryEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertHistory(tx, entry); err != nil {
		return err
	}

	_, err = tx.Exec(
		`DELETE FROM workout_history WHERE id NOT IN (
			SELECT id FROM workout_history ORDER BY id DESC LIMIT ?
		)`, models.MaxHistoryEntries,
	)
	if err != nil {
		return fmt.Errorf("failed to evict history: %w", err)
	}

	return tx.Commit()
}

// ListHistory returns entries newest first. A limit <= 0 returns all of them.
func (s *Storage) ListHistory(limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 {
		limit = models.MaxHistoryEntries
	}

	rows, err := s.db.Query(`SELECT `+historyColumns+` FROM workout_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var completedAt string
		var endedEarly int

		err := rows.Scan(
			&e.ID, &e.SessionID, &e.WorkoutID, &e.WorkoutName, &completedAt, &e.DurationMinutes,
			&e.ExercisesCompleted, &e.TotalExercises, &e.SetsCompleted, &e.TotalSets, &e.Reward, &endedEarly,
		)
		if err != nil {
			return nil, err
		}
		if e.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, err
		}
		e.EndedEarly = endedEarly != 0

		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

type sqlExecer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertHistory(tx sqlExecer, e *models.HistoryEntry) error {
	endedEarly := 0
	if e.EndedEarly {
		endedEarly = 1
	}

	_, err := tx.Exec(
		`INSERT INTO workout_history (`+historyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.WorkoutID, e.WorkoutName, formatTime(e.CompletedAt), e.DurationMinutes,
		e.ExercisesCompleted, e.TotalExercises, e.SetsCompleted, e.TotalSets, e.Reward, endedEarly,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}
