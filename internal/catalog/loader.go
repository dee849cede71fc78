package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mpataki/gym/internal/models"
	"gopkg.in/yaml.v3"
)

// File is a definition file: catalog exercises plus workouts that reference
// them by name.
type File struct {
	Name      string        `yaml:"name,omitempty"`
	Exercises []ExerciseDef `yaml:"exercises"`
	Workouts  []WorkoutDef  `yaml:"workouts"`
}

type ExerciseDef struct {
	Name        string   `yaml:"name"`
	Category    string   `yaml:"category"`
	Muscles     []string `yaml:"muscles"`
	Difficulty  string   `yaml:"difficulty"`
	Description string   `yaml:"description"`
}

type WorkoutDef struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Color       string     `yaml:"color"`
	Duration    int        `yaml:"duration"`
	Exercises   []EntryDef `yaml:"exercises"`
}

type EntryDef struct {
	Exercise string   `yaml:"exercise"`
	Rest     int      `yaml:"rest"`
	Sets     []SetDef `yaml:"sets"`
}

type SetDef struct {
	Reps   int     `yaml:"reps"`
	Weight float64 `yaml:"weight"`
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse definition YAML: %w", err)
	}
	return &f, nil
}

func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if f.Name == "" {
		f.Name = stem(filepath.Base(path))
	}
	return f, nil
}

// LoadAll reads every .yaml and .yml file in dirs. Missing directories are
// skipped; a file in a later directory replaces one with the same name.
func LoadAll(dirs []string) (map[string]*File, error) {
	files := make(map[string]*File)

	for _, dir := range dirs {
		if err := loadFromDir(dir, files); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
	}

	return files, nil
}

func loadFromDir(dir string, files map[string]*File) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		f, err := ParseFile(path)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		files[f.Name] = f
	}

	return nil
}

func stem(name string) string {
	return strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
}

// Validate checks the file on its own. Exercise references may also point at
// exercises that already exist in the catalog, so they are checked on import.
func Validate(f *File) error {
	seen := make(map[string]bool)
	for _, ex := range f.Exercises {
		name := strings.TrimSpace(ex.Name)
		if name == "" {
			return invalid("exercise must have a name")
		}
		key := strings.ToLower(name)
		if seen[key] {
			return invalid("exercise %q defined twice", name)
		}
		seen[key] = true
		if _, err := models.ParseDifficulty(ex.Difficulty); err != nil {
			return invalid("exercise %q: %v", name, err)
		}
	}

	for _, w := range f.Workouts {
		if strings.TrimSpace(w.Name) == "" {
			return invalid("workout must have a name")
		}
		if len(w.Exercises) == 0 {
			return invalid("workout %q has no exercises", w.Name)
		}
		for _, e := range w.Exercises {
			if strings.TrimSpace(e.Exercise) == "" {
				return invalid("workout %q: entry must name an exercise", w.Name)
			}
			if len(e.Sets) == 0 {
				return invalid("workout %q: exercise %q has no sets", w.Name, e.Exercise)
			}
		}
	}
	return nil
}

type ImportResult struct {
	ExercisesCreated int
	ExercisesUpdated int
	WorkoutsCreated  int
	WorkoutsUpdated  int
}

func (r ImportResult) String() string {
	return fmt.Sprintf("exercises: %d new, %d updated; workouts: %d new, %d updated",
		r.ExercisesCreated, r.ExercisesUpdated, r.WorkoutsCreated, r.WorkoutsUpdated)
}

// Import upserts the file's exercises by name, then creates or replaces its
// workouts by name. A replaced workout keeps its id, creation time and last
// completion. Every workout is checked before the first write; only a failing
// store can leave an import half done.
func (c *Catalog) Import(f *File) (ImportResult, error) {
	var res ImportResult
	if err := Validate(f); err != nil {
		return res, err
	}
	if err := c.checkWorkouts(f); err != nil {
		return res, err
	}

	for _, def := range f.Exercises {
		created, err := c.upsertExercise(def)
		if err != nil {
			return res, err
		}
		if created {
			res.ExercisesCreated++
		} else {
			res.ExercisesUpdated++
		}
	}

	existing, err := c.store.ListWorkouts()
	if err != nil {
		return res, fmt.Errorf("failed to list workouts: %w", err)
	}
	byName := make(map[string]*models.Workout, len(existing))
	for _, w := range existing {
		byName[strings.ToLower(w.Name)] = w
	}

	for _, def := range f.Workouts {
		w, err := c.buildWorkout(def)
		if err != nil {
			return res, err
		}

		if old, ok := byName[strings.ToLower(w.Name)]; ok {
			w.ID = old.ID
			w.CreatedAt = old.CreatedAt
			w.LastCompleted = old.LastCompleted
			if err := c.UpdateWorkout(w); err != nil {
				return res, fmt.Errorf("failed to update workout %q: %w", w.Name, err)
			}
			res.WorkoutsUpdated++
			continue
		}

		if _, err := c.CreateWorkout(w); err != nil {
			return res, fmt.Errorf("failed to create workout %q: %w", w.Name, err)
		}
		byName[strings.ToLower(w.Name)] = w
		res.WorkoutsCreated++
	}

	return res, nil
}

func (c *Catalog) upsertExercise(def ExerciseDef) (bool, error) {
	difficulty, err := models.ParseDifficulty(def.Difficulty)
	if err != nil {
		return false, invalid("exercise %q: %v", def.Name, err)
	}

	ex, err := c.store.FindExerciseByName(strings.TrimSpace(def.Name))
	switch {
	case errors.Is(err, models.ErrNotFound):
		ex = &models.Exercise{}
	case err != nil:
		return false, err
	}

	ex.Name = def.Name
	ex.Category = def.Category
	ex.MuscleGroups = def.Muscles
	ex.Difficulty = difficulty
	ex.Description = def.Description

	if ex.ID == 0 {
		if _, err := c.CreateExercise(ex); err != nil {
			return false, fmt.Errorf("failed to create exercise %q: %w", def.Name, err)
		}
		return true, nil
	}
	if err := c.UpdateExercise(ex); err != nil {
		return false, fmt.Errorf("failed to update exercise %q: %w", def.Name, err)
	}
	return false, nil
}

func (c *Catalog) buildWorkout(def WorkoutDef) (*models.Workout, error) {
	w := &models.Workout{
		Name:            def.Name,
		Description:     def.Description,
		Color:           def.Color,
		DurationMinutes: def.Duration,
	}

	for _, e := range def.Exercises {
		ex, err := c.store.FindExerciseByName(strings.TrimSpace(e.Exercise))
		if errors.Is(err, models.ErrNotFound) {
			return nil, invalid("workout %q: unknown exercise %q", def.Name, e.Exercise)
		}
		if err != nil {
			return nil, err
		}

		entry := Entry(ex)
		entry.RestSeconds = e.Rest
		entry.Sets = e.sets()
		w.Exercises = append(w.Exercises, entry)
	}
	return w, nil
}

// checkWorkouts resolves every entry against the file's own exercises and the
// catalog, and runs the workout checks on the result.
func (c *Catalog) checkWorkouts(f *File) error {
	defined := make(map[string]bool, len(f.Exercises))
	for _, ex := range f.Exercises {
		defined[strings.ToLower(strings.TrimSpace(ex.Name))] = true
	}

	for _, def := range f.Workouts {
		w := &models.Workout{Name: def.Name, DurationMinutes: def.Duration}
		for _, e := range def.Exercises {
			name := strings.TrimSpace(e.Exercise)
			if !defined[strings.ToLower(name)] {
				_, err := c.store.FindExerciseByName(name)
				if errors.Is(err, models.ErrNotFound) {
					return invalid("workout %q: unknown exercise %q", def.Name, e.Exercise)
				}
				if err != nil {
					return err
				}
			}
			w.Exercises = append(w.Exercises, models.WorkoutExercise{
				Name:        name,
				RestSeconds: e.Rest,
				Sets:        e.sets(),
			})
		}
		if err := normalizeWorkout(w); err != nil {
			return err
		}
	}
	return nil
}

func (e EntryDef) sets() []models.Set {
	out := make([]models.Set, len(e.Sets))
	for i, s := range e.Sets {
		out[i] = models.Set{Reps: s.Reps, Weight: s.Weight}
	}
	return out
}
