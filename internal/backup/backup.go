// Package backup writes the persisted collections to a directory of JSON files
// and reads them back.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mpataki/gym/internal/storage"
)

const (
	ExercisesFile   = "exercises.json"
	WorkoutsFile    = "workouts.json"
	HistoryFile     = "workout_history.json"
	RewardTotalFile = "reward_total.json"
	ManifestFile    = "manifest.json"
)

const formatVersion = 1

type Store interface {
	Snapshot() (*storage.Collections, error)
	ReplaceAll(c *storage.Collections) error
}

type Manifest struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Exercises int       `json:"exercises"`
	Workouts  int       `json:"workouts"`
	History   int       `json:"workout_history"`
}

type rewardTotal struct {
	Total int `json:"total"`
}

// Export writes every collection into a new gym-<timestamp> directory under
// baseDir and returns its path.
func Export(baseDir string, store Store, now time.Time) (string, error) {
	c, err := store.Snapshot()
	if err != nil {
		return "", fmt.Errorf("failed to read collections: %w", err)
	}

	path := filepath.Join(baseDir, "gym-"+now.UTC().Format("20060102-150405"))
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	files := []struct {
		name string
		v    any
	}{
		{ExercisesFile, c.Exercises},
		{WorkoutsFile, c.Workouts},
		{HistoryFile, c.History},
		{RewardTotalFile, rewardTotal{Total: c.RewardTotal}},
		{ManifestFile, Manifest{
			Version:   formatVersion,
			CreatedAt: now.UTC(),
			Exercises: len(c.Exercises),
			Workouts:  len(c.Workouts),
			History:   len(c.History),
		}},
	}
	for _, f := range files {
		if err := writeJSON(filepath.Join(path, f.name), f.v); err != nil {
			return "", err
		}
	}

	return path, nil
}

// Read loads a backup directory written by Export.
func Read(path string) (*storage.Collections, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("backup %s: %w", path, err)
	}

	var manifest Manifest
	if err := readJSON(filepath.Join(path, ManifestFile), &manifest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if manifest.Version > formatVersion {
		return nil, fmt.Errorf("backup format version %d is newer than supported version %d", manifest.Version, formatVersion)
	}

	var c storage.Collections
	var total rewardTotal
	for name, v := range map[string]any{
		ExercisesFile:   &c.Exercises,
		WorkoutsFile:    &c.Workouts,
		HistoryFile:     &c.History,
		RewardTotalFile: &total,
	} {
		if err := readJSON(filepath.Join(path, name), v); err != nil {
			return nil, err
		}
	}
	c.RewardTotal = total.Total

	return &c, nil
}

// Restore overwrites the store with the bundle.
func Restore(c *storage.Collections, store Store) error {
	if err := store.ReplaceAll(c); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
