package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mpataki/gym/internal/clock"
	"github.com/mpataki/gym/internal/config"
	"github.com/mpataki/gym/internal/models"
	"github.com/mpataki/gym/internal/trainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const armsYAML = `
exercises:
  - name: Curl
    difficulty: low
workouts:
  - name: Arms
    exercises:
      - exercise: Curl
        sets:
          - {reps: 10, weight: 12}
          - {reps: 10, weight: 12}
`

func newTestApp(t *testing.T) (*App, *trainer.Trainer) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir: dir,
		DBPath:  filepath.Join(dir, "gym.db"),
		Settings: config.Settings{
			DefaultRestSeconds: 60,
			TickInterval:       time.Second,
		},
	}
	clk := clock.NewFake(time.Date(2026, 7, 1, 17, 0, 0, 0, time.UTC))
	tr, err := trainer.Open(cfg, nil, trainer.WithClock(clk))
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })

	path := filepath.Join(dir, "arms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(armsYAML), 0644))
	_, err = tr.Import(path)
	require.NoError(t, err)

	app := NewApp(tr)
	app.Update(app.loadWorkouts())
	require.Len(t, app.workouts, 1)
	return app, tr
}

func press(a *App, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		a.Update(msg)
	}
}

func TestCompleteWorkoutFlow(t *testing.T) {
	app, tr := newTestApp(t)

	press(app, "enter")
	require.Equal(t, ViewSession, app.view)
	assert.True(t, app.snap.ConfirmBeforeLeave)

	press(app, " ")
	assert.Equal(t, 1, app.snap.CompletedSets)
	assert.Equal(t, models.Cursor{SetIndex: 1}, app.selected)

	press(app, " ")
	require.Equal(t, ViewSummary, app.view)
	require.NotNil(t, app.summary)
	assert.Equal(t, 5, app.summary.Reward)
	assert.Equal(t, 5, tr.Ledger.Total())
	assert.Contains(t, app.View(), "+5 skins")

	press(app, "enter")
	assert.Equal(t, ViewWorkoutList, app.view)
}

func TestEditedSessionAsksForReview(t *testing.T) {
	app, tr := newTestApp(t)

	press(app, "enter", "j", "e")
	require.Equal(t, ViewEditSet, app.view)
	app.input.SetValue("12 x 14")
	press(app, "enter")
	require.Equal(t, ViewSession, app.view)
	require.Len(t, app.snap.Changes, 1)

	press(app, " ", " ")
	require.Equal(t, ViewReview, app.view)
	assert.Contains(t, app.View(), "12 × 14")

	press(app, "k")
	require.Equal(t, ViewSummary, app.view)
	assert.Equal(t, 1, app.summary.Reconciled)

	w, err := tr.Catalog.Workout(app.workouts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.Set{Reps: 12, Weight: 14}, w.Exercises[0].Sets[1])
}

func TestLeavingSessionRequiresConfirmation(t *testing.T) {
	app, tr := newTestApp(t)

	press(app, "enter", "esc")
	require.Equal(t, ViewConfirm, app.view)

	press(app, "n")
	require.Equal(t, ViewSession, app.view)
	assert.True(t, tr.Engine.State().Active())

	press(app, "esc", "y")
	require.Equal(t, ViewSummary, app.view)
	assert.True(t, app.summary.Entry.EndedEarly)
	assert.Equal(t, 0, app.summary.Reward)
	assert.False(t, tr.Engine.State().Active())
}

func TestPauseToggle(t *testing.T) {
	app, _ := newTestApp(t)

	press(app, "enter", "p")
	assert.Equal(t, models.SessionPaused, app.snap.Status)
	press(app, "p")
	assert.Equal(t, models.SessionRunning, app.snap.Status)
}

func TestParseSetInput(t *testing.T) {
	tests := []struct {
		in     string
		reps   int
		weight float64
		ok     bool
	}{
		{"10 40", 10, 40, true},
		{"8x42.5", 8, 42.5, true},
		{" 12 ", 12, 0, true},
		{"0 10", 0, 0, false},
		{"10 -5", 0, 0, false},
		{"ten", 0, 0, false},
		{"", 0, 0, false},
		{"1 2 3", 0, 0, false},
	}
	for _, tt := range tests {
		reps, weight, err := parseSetInput(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.reps, reps, tt.in)
		assert.Equal(t, tt.weight, weight, tt.in)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "0:00", formatClock(0))
	assert.Equal(t, "1:05", formatClock(65*time.Second))
	assert.Equal(t, "1:02:03", formatClock(time.Hour+2*time.Minute+3*time.Second))
}
