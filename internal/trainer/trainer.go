// Package trainer wires storage, the reward ledger, the session engine and the
// catalog together. The CLI and the TUI both work through a Trainer.
package trainer

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/mpataki/gym/internal/backup"
	"github.com/mpataki/gym/internal/catalog"
	"github.com/mpataki/gym/internal/clock"
	"github.com/mpataki/gym/internal/config"
	"github.com/mpataki/gym/internal/engine"
	"github.com/mpataki/gym/internal/ledger"
	gymlua "github.com/mpataki/gym/internal/lua"
	"github.com/mpataki/gym/internal/models"
	"github.com/mpataki/gym/internal/storage"
)

type Trainer struct {
	cfg     *config.Config
	log     *slog.Logger
	storage *storage.Storage
	clock   clock.Clock

	Catalog *catalog.Catalog
	Ledger  *ledger.Ledger
	Engine  *engine.Engine
}

type Option func(*Trainer)

func WithClock(c clock.Clock) Option {
	return func(t *Trainer) { t.clock = c }
}

// Open opens the database at cfg.DBPath and builds the components on top of it.
func Open(cfg *config.Config, log *slog.Logger, opts ...Option) (*Trainer, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	t := &Trainer{
		cfg:     cfg,
		log:     log,
		storage: store,
		clock:   clock.Real{},
		Catalog: catalog.New(store),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.Ledger, err = ledger.New(store, log.With("component", "ledger"))
	if err != nil {
		store.Close()
		return nil, err
	}

	t.Engine = engine.New(store, t.Ledger, store,
		engine.WithClock(t.clock),
		engine.WithLogger(log.With("component", "engine")),
		engine.WithTickInterval(cfg.Settings.TickInterval),
		engine.WithDefaultRest(cfg.Settings.DefaultRestSeconds),
	)

	return t, nil
}

// Close ends an active session early, discarding its edits, then closes the
// database.
func (t *Trainer) Close() error {
	if t.Engine.State().Active() {
		if _, err := t.Engine.Finish(engine.FinishOptions{ForceEarly: true, Changes: engine.ChangesDiscard}); err != nil {
			t.log.Error("failed to finish session on close", "error", err)
		}
	}
	return t.storage.Close()
}

func (t *Trainer) Workouts() ([]*models.Workout, error) {
	return t.Catalog.Workouts()
}

func (t *Trainer) Exercises() ([]*models.Exercise, error) {
	return t.Catalog.Exercises()
}

func (t *Trainer) History(limit int) ([]*models.HistoryEntry, error) {
	return t.storage.ListHistory(limit)
}

// DeleteWorkout removes the workout. A running session for it keeps going on
// its own copy.
func (t *Trainer) DeleteWorkout(id int64) error {
	if err := t.Catalog.DeleteWorkout(id); err != nil {
		return fmt.Errorf("failed to delete workout %d: %w", id, err)
	}
	t.log.Info("workout deleted", "workout_id", id)
	return nil
}

func (t *Trainer) Workout(id int64) (*models.Workout, error) {
	return t.Catalog.Workout(id)
}

// AddExercise appends a copy of a catalog exercise to a workout. Workout edits
// never touch a running session, which works on its own copy.
func (t *Trainer) AddExercise(workoutID, exerciseID int64) (*models.Workout, error) {
	w, err := t.Catalog.AddExercise(workoutID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to add exercise %d to workout %d: %w", exerciseID, workoutID, err)
	}
	t.log.Info("exercise added to workout", "workout_id", workoutID, "exercise_id", exerciseID)
	return w, nil
}

func (t *Trainer) RemoveExercise(workoutID int64, exerciseIndex int) (*models.Workout, error) {
	w, err := t.Catalog.RemoveExercise(workoutID, exerciseIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to remove exercise from workout %d: %w", workoutID, err)
	}
	t.log.Info("exercise removed from workout", "workout_id", workoutID, "exercise_index", exerciseIndex)
	return w, nil
}

func (t *Trainer) AddSet(workoutID int64, exerciseIndex int) (*models.Workout, error) {
	w, err := t.Catalog.AddSet(workoutID, exerciseIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to add set to workout %d: %w", workoutID, err)
	}
	return w, nil
}

func (t *Trainer) RemoveSet(workoutID int64, exerciseIndex, setIndex int) (*models.Workout, error) {
	w, err := t.Catalog.RemoveSet(workoutID, exerciseIndex, setIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to remove set from workout %d: %w", workoutID, err)
	}
	return w, nil
}

// AdjustRewards applies a manual correction to the skins total.
func (t *Trainer) AdjustRewards(amount int) (int, error) {
	return t.Ledger.Add(amount, "manual")
}

// Import loads a YAML definition file or runs a Lua program script and
// imports the result.
func (t *Trainer) Import(path string) (catalog.ImportResult, error) {
	var f *catalog.File
	var err error
	if gymlua.IsScript(path) {
		f, err = gymlua.NewRuntime(t.log.With("component", "lua")).Execute(path)
	} else {
		f, err = catalog.ParseFile(path)
	}
	if err != nil {
		return catalog.ImportResult{}, err
	}

	res, err := t.Catalog.Import(f)
	if err != nil {
		return res, fmt.Errorf("failed to import %s: %w", path, err)
	}
	t.log.Info("definitions imported", "path", path, "result", res.String())
	return res, nil
}

// ImportDefinitions imports every definition file found in the project and
// user workout directories, in file name order.
func (t *Trainer) ImportDefinitions() (catalog.ImportResult, error) {
	var total catalog.ImportResult

	files, err := catalog.LoadAll(t.cfg.WorkoutDirs())
	if err != nil {
		return total, fmt.Errorf("failed to load definitions: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res, err := t.Catalog.Import(files[name])
		if err != nil {
			return total, fmt.Errorf("failed to import %s: %w", name, err)
		}
		total.ExercisesCreated += res.ExercisesCreated
		total.ExercisesUpdated += res.ExercisesUpdated
		total.WorkoutsCreated += res.WorkoutsCreated
		total.WorkoutsUpdated += res.WorkoutsUpdated
	}
	return total, nil
}

// Export writes a backup under dir, or the configured backup directory when
// dir is empty.
func (t *Trainer) Export(dir string) (string, error) {
	if dir == "" {
		dir = t.cfg.BackupDir()
	}
	path, err := backup.Export(dir, t.storage, t.clock.Now())
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	t.log.Info("backup exported", "path", abs)
	return abs, nil
}

// Restore replaces every collection with the backup at path. It refuses to
// run while a session is active.
func (t *Trainer) Restore(path string) error {
	if t.Engine.State().Active() {
		return engine.ErrSessionActive
	}

	bundle, err := backup.Read(path)
	if err != nil {
		return err
	}
	if err := backup.Restore(bundle, t.storage); err != nil {
		return err
	}
	if err := t.Ledger.Reload(); err != nil {
		return err
	}
	t.log.Info("backup restored", "path", path, "workouts", len(bundle.Workouts), "history", len(bundle.History))
	return nil
}
