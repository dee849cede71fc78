package engine

import (
	"time"

	"github.com/mpataki/gym/internal/models"
)

// session is the live copy of a workout. It is owned by the Engine and only
// touched while holding the engine mutex.
type session struct {
	id          string
	workoutID   int64
	workoutName string
	exercises   []models.WorkoutExercise

	cursor        models.Cursor
	completedSets int
	totalSets     int

	startTime  time.Time
	paused     bool
	pauseStart time.Time
	totalPause time.Duration
	restUntil  time.Time

	changes        []models.Change
	awaitingReview bool

	defaultRest int
}

func newSession(id string, w *models.Workout, now time.Time) *session {
	exercises := w.CloneExercises()
	total := 0
	for i := range exercises {
		for j := range exercises[i].Sets {
			set := &exercises[i].Sets[j]
			set.ActualReps = set.Reps
			set.ActualWeight = set.Weight
			set.Completed = false
		}
		total += len(exercises[i].Sets)
	}

	return &session{
		id:          id,
		workoutID:   w.ID,
		workoutName: w.Name,
		exercises:   exercises,
		totalSets:   total,
		startTime:   now,
	}
}

func (s *session) validIndex(exerciseIndex, setIndex int) bool {
	return exerciseIndex >= 0 && exerciseIndex < len(s.exercises) &&
		setIndex >= 0 && setIndex < len(s.exercises[exerciseIndex].Sets)
}

func (s *session) set(c models.Cursor) *models.Set {
	return &s.exercises[c.ExerciseIndex].Sets[c.SetIndex]
}

// markComplete flips the set to completed. It reports whether the flag changed.
func (s *session) markComplete(c models.Cursor, now time.Time) bool {
	set := s.set(c)
	if set.Completed {
		return false
	}
	set.Completed = true
	s.completedSets = min(s.completedSets+1, s.totalSets)
	s.startRest(s.exercises[c.ExerciseIndex].RestSeconds, now)
	return true
}

func (s *session) markIncomplete(c models.Cursor) bool {
	set := s.set(c)
	if !set.Completed {
		return false
	}
	set.Completed = false
	s.completedSets = max(s.completedSets-1, 0)
	s.awaitingReview = false
	return true
}

func (s *session) startRest(seconds int, now time.Time) {
	if seconds <= 0 {
		seconds = s.defaultRest
	}
	if seconds <= 0 {
		seconds = models.DefaultRestSeconds
	}
	s.restUntil = now.Add(time.Duration(seconds) * time.Second)
}

// nextIncomplete picks the set the cursor moves to after the current one:
// the next incomplete set of the current exercise, else the first incomplete
// set of a following exercise, else the first incomplete set overall.
func (s *session) nextIncomplete() (models.Cursor, bool) {
	cur := s.cursor

	sets := s.exercises[cur.ExerciseIndex].Sets
	for j := cur.SetIndex + 1; j < len(sets); j++ {
		if !sets[j].Completed {
			return models.Cursor{ExerciseIndex: cur.ExerciseIndex, SetIndex: j}, true
		}
	}

	for i := cur.ExerciseIndex + 1; i < len(s.exercises); i++ {
		if j, ok := firstIncomplete(s.exercises[i].Sets); ok {
			return models.Cursor{ExerciseIndex: i, SetIndex: j}, true
		}
	}

	for i := range s.exercises {
		if j, ok := firstIncomplete(s.exercises[i].Sets); ok {
			return models.Cursor{ExerciseIndex: i, SetIndex: j}, true
		}
	}

	return cur, false
}

func firstIncomplete(sets []models.Set) (int, bool) {
	for j, set := range sets {
		if !set.Completed {
			return j, true
		}
	}
	return 0, false
}

func (s *session) pause(now time.Time) {
	if s.paused {
		return
	}
	s.paused = true
	s.pauseStart = now
}

func (s *session) resume(now time.Time) {
	if !s.paused {
		return
	}
	s.totalPause += now.Sub(s.pauseStart)
	s.paused = false
	s.pauseStart = time.Time{}
}

// elapsed excludes all paused time, including a pause still in progress.
func (s *session) elapsed(now time.Time) time.Duration {
	d := now.Sub(s.startTime) - s.totalPause
	if s.paused {
		d -= now.Sub(s.pauseStart)
	}
	return max(d, 0)
}

func (s *session) pausedFor(now time.Time) time.Duration {
	if !s.paused {
		return 0
	}
	return now.Sub(s.pauseStart)
}

func (s *session) restRemaining(now time.Time) time.Duration {
	if s.restUntil.IsZero() || !now.Before(s.restUntil) {
		return 0
	}
	return s.restUntil.Sub(now)
}

func (s *session) exercisesCompleted() int {
	n := 0
	for _, ex := range s.exercises {
		for _, set := range ex.Sets {
			if set.Completed {
				n++
				break
			}
		}
	}
	return n
}

// editedSets lists each set that appears in the edit log once, in order of
// its first edit.
func (s *session) editedSets() []models.Cursor {
	seen := make(map[models.Cursor]bool)
	var out []models.Cursor
	for _, c := range s.changes {
		k := models.Cursor{ExerciseIndex: c.ExerciseIndex, SetIndex: c.SetIndex}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
