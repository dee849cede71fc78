package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mpataki/gym/internal/catalog"
	"github.com/mpataki/gym/internal/engine"
	"github.com/mpataki/gym/internal/ledger"
	"github.com/mpataki/gym/internal/models"
	"github.com/mpataki/gym/internal/trainer"
)

type View int

const (
	ViewWorkoutList View = iota
	ViewSession
	ViewEditSet
	ViewReview
	ViewConfirm
	ViewSummary
	ViewHistory
)

type confirmAction int

const (
	confirmNone confirmAction = iota
	confirmFinishEarly
	confirmDelete
)

type App struct {
	trainer *trainer.Trainer

	keys     keyMap
	help     help.Model
	progress progress.Model
	input    textinput.Model

	view        View
	workouts    []*models.Workout
	selectedIdx int
	history     []*models.HistoryEntry
	rewardTotal int

	snap          engine.Snapshot
	selected      models.Cursor
	pendingFinish engine.FinishOptions
	confirm       confirmAction
	confirmReturn View
	summary       *engine.Summary

	flash  string
	width  int
	height int
	err    error
}

func NewApp(tr *trainer.Trainer) *App {
	input := textinput.New()
	input.Placeholder = "reps weight"
	input.CharLimit = 16

	return &App{
		trainer:     tr,
		keys:        defaultKeyMap(),
		help:        help.New(),
		progress:    progress.New(progress.WithDefaultGradient()),
		input:       input,
		view:        ViewWorkoutList,
		rewardTotal: tr.Ledger.Total(),
		snap:        tr.Engine.State(),
	}
}

// Run starts the TUI and forwards engine and ledger updates to it until the
// user quits. Updates are queued because observers may fire from inside
// Update, where a direct Send would block.
func Run(tr *trainer.Trainer) error {
	app := NewApp(tr)
	p := tea.NewProgram(app, tea.WithAltScreen())

	updates := make(chan tea.Msg, 64)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case msg := <-updates:
				p.Send(msg)
			case <-done:
				return
			}
		}
	}()
	forward := func(msg tea.Msg) {
		select {
		case updates <- msg:
		default:
			// Full queue; the next tick redraws anyway.
		}
	}

	stopSnapshots := tr.Engine.Subscribe(func(engine.Snapshot) { forward(engineUpdateMsg{}) })
	defer stopSnapshots()
	stopRewards := tr.Ledger.Subscribe(func(c ledger.Change) { forward(rewardMsg(c)) })
	defer stopRewards()

	_, err := p.Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return a.loadWorkouts
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.progress.Width = min(max(msg.Width-4, 10), 60)
		return a, nil

	case workoutsLoadedMsg:
		a.workouts = msg.workouts
		a.err = msg.err
		a.rewardTotal = a.trainer.Ledger.Total()
		if a.selectedIdx >= len(a.workouts) {
			a.selectedIdx = max(len(a.workouts)-1, 0)
		}
		return a, nil

	case historyLoadedMsg:
		a.history = msg.history
		a.err = msg.err
		if a.err == nil {
			a.view = ViewHistory
		}
		return a, nil

	case definitionsImportedMsg:
		a.err = msg.err
		if msg.err == nil {
			a.flash = "Imported " + msg.result.String()
		}
		return a, a.loadWorkouts

	case workoutDeletedMsg:
		a.err = msg.err
		return a, a.loadWorkouts

	case engineUpdateMsg:
		a.snap = a.trainer.Engine.State()
		return a, nil

	case rewardMsg:
		a.rewardTotal = msg.Total
		return a, nil
	}

	if a.view == ViewEditSet {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.view {
	case ViewWorkoutList:
		return a.handleWorkoutListKey(msg)
	case ViewSession:
		return a.handleSessionKey(msg)
	case ViewEditSet:
		return a.handleEditKey(msg)
	case ViewReview:
		return a.handleReviewKey(msg)
	case ViewConfirm:
		return a.handleConfirmKey(msg)
	case ViewSummary:
		return a.handleSummaryKey(msg)
	case ViewHistory:
		return a.handleHistoryKey(msg)
	}
	return a, nil
}

func (a *App) handleWorkoutListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.flash = ""

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Up):
		if a.selectedIdx > 0 {
			a.selectedIdx--
		}

	case key.Matches(msg, a.keys.Down):
		if a.selectedIdx < len(a.workouts)-1 {
			a.selectedIdx++
		}

	case key.Matches(msg, a.keys.Enter):
		if w := a.selectedWorkout(); w != nil {
			return a.startSession(w.ID)
		}

	case key.Matches(msg, a.keys.Delete):
		if a.selectedWorkout() != nil {
			a.askConfirm(confirmDelete)
		}

	case key.Matches(msg, a.keys.History):
		return a, a.loadHistory

	case key.Matches(msg, a.keys.Import):
		return a, a.importDefinitions

	case key.Matches(msg, a.keys.Refresh):
		return a, a.loadWorkouts
	}

	return a, nil
}

func (a *App) selectedWorkout() *models.Workout {
	if a.selectedIdx < 0 || a.selectedIdx >= len(a.workouts) {
		return nil
	}
	return a.workouts[a.selectedIdx]
}

func (a *App) startSession(id int64) (tea.Model, tea.Cmd) {
	snap, err := a.dispatch(engine.StartIntent{WorkoutID: id})
	a.snap = snap
	if err != nil {
		a.err = err
		return a, nil
	}
	a.err = nil
	a.summary = nil
	a.selected = snap.Cursor
	a.view = ViewSession
	return a, nil
}

func (a *App) handleSessionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Complete):
		snap, err := a.dispatch(engine.CompleteSetIntent{})
		return a.applySessionResult(snap, err, engine.FinishOptions{})

	case key.Matches(msg, a.keys.Up):
		a.moveSelection(-1)

	case key.Matches(msg, a.keys.Down):
		a.moveSelection(1)

	case key.Matches(msg, a.keys.Toggle):
		a.snap, a.err = a.dispatch(engine.ToggleSetIntent{
			ExerciseIndex: a.selected.ExerciseIndex,
			SetIndex:      a.selected.SetIndex,
		})

	case key.Matches(msg, a.keys.Edit):
		if set, ok := a.selectedSet(); ok {
			a.input.SetValue(fmt.Sprintf("%d %s", set.ActualReps, formatWeight(set.ActualWeight)))
			a.input.CursorEnd()
			a.input.Focus()
			a.view = ViewEditSet
			return a, textinput.Blink
		}

	case key.Matches(msg, a.keys.Pause):
		var in engine.Intent = engine.PauseIntent{}
		if a.snap.Status == models.SessionPaused {
			in = engine.ResumeIntent{}
		}
		a.snap, a.err = a.dispatch(in)

	case key.Matches(msg, a.keys.Finish):
		if a.snap.AllComplete() {
			return a.finish(engine.FinishOptions{})
		}
		a.askConfirm(confirmFinishEarly)

	case key.Matches(msg, a.keys.Back):
		if a.snap.ConfirmBeforeLeave {
			a.askConfirm(confirmFinishEarly)
			return a, nil
		}
		a.view = ViewWorkoutList
	}

	return a, nil
}

// applySessionResult moves to the review or summary view when completing a
// set ended the session or needs a decision on the edit log.
func (a *App) applySessionResult(snap engine.Snapshot, err error, opts engine.FinishOptions) (tea.Model, tea.Cmd) {
	a.snap = snap

	switch {
	case snap.AwaitingReview:
		a.pendingFinish = opts
		a.view = ViewReview
	case snap.Status == models.SessionFinished && snap.LastSummary != nil:
		a.summary = snap.LastSummary
		a.view = ViewSummary
		a.err = err
		return a, a.loadWorkouts
	default:
		a.selected = snap.Cursor
	}
	a.err = err
	return a, nil
}

func (a *App) finish(opts engine.FinishOptions) (tea.Model, tea.Cmd) {
	snap, err := a.dispatch(engine.FinishIntent{Options: opts})
	a.snap = snap

	switch {
	case errors.Is(err, engine.ErrReviewRequired):
		a.pendingFinish = opts
		a.view = ViewReview
		return a, nil
	case errors.Is(err, engine.ErrNoActiveSession), snap.LastSummary == nil:
		a.err = nil
		a.view = ViewWorkoutList
		return a, a.loadWorkouts
	}

	// A PersistenceError still ends the session; show the summary with it.
	a.err = err
	a.summary = snap.LastSummary
	a.view = ViewSummary
	return a, a.loadWorkouts
}

// dispatch forwards a user action to the engine.
func (a *App) dispatch(in engine.Intent) (engine.Snapshot, error) {
	return a.trainer.Engine.Dispatch(in)
}

func (a *App) moveSelection(delta int) {
	var flat []models.Cursor
	pos := 0
	for i, ex := range a.snap.Exercises {
		for j := range ex.Sets {
			c := models.Cursor{ExerciseIndex: i, SetIndex: j}
			if c == a.selected {
				pos = len(flat)
			}
			flat = append(flat, c)
		}
	}
	if len(flat) == 0 {
		return
	}
	pos = min(max(pos+delta, 0), len(flat)-1)
	a.selected = flat[pos]
}

func (a *App) selectedSet() (models.Set, bool) {
	c := a.selected
	if c.ExerciseIndex < 0 || c.ExerciseIndex >= len(a.snap.Exercises) {
		return models.Set{}, false
	}
	sets := a.snap.Exercises[c.ExerciseIndex].Sets
	if c.SetIndex < 0 || c.SetIndex >= len(sets) {
		return models.Set{}, false
	}
	return sets[c.SetIndex], true
}

func (a *App) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Back):
		a.input.Blur()
		a.view = ViewSession
		return a, nil

	case key.Matches(msg, a.keys.Enter):
		reps, weight, err := parseSetInput(a.input.Value())
		if err != nil {
			a.err = err
			return a, nil
		}
		snap, err := a.dispatch(engine.EditSetIntent{
			ExerciseIndex: a.selected.ExerciseIndex,
			SetIndex:      a.selected.SetIndex,
			Reps:          reps,
			Weight:        weight,
		})
		a.snap, a.err = snap, err
		if err == nil {
			a.input.Blur()
			a.view = ViewSession
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// parseSetInput reads "reps weight", "reps x weight" or just "reps".
func parseSetInput(s string) (int, float64, error) {
	fields := strings.Fields(strings.ReplaceAll(strings.ToLower(s), "x", " "))
	if len(fields) == 0 || len(fields) > 2 {
		return 0, 0, fmt.Errorf("enter reps and weight, e.g. 10 40")
	}
	reps, err := strconv.Atoi(fields[0])
	if err != nil || reps < 1 {
		return 0, 0, fmt.Errorf("reps must be a whole number of at least 1")
	}
	var weight float64
	if len(fields) == 2 {
		weight, err = strconv.ParseFloat(fields[1], 64)
		if err != nil || weight < 0 {
			return 0, 0, fmt.Errorf("weight must be a number of at least 0")
		}
	}
	return reps, weight, nil
}

func (a *App) handleReviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Keep):
		opts := a.pendingFinish
		opts.Changes = engine.ChangesPersist
		return a.finish(opts)

	case key.Matches(msg, a.keys.Discard):
		opts := a.pendingFinish
		opts.Changes = engine.ChangesDiscard
		return a.finish(opts)

	case key.Matches(msg, a.keys.Back):
		if a.snap.Active() {
			a.view = ViewSession
		}
	}
	return a, nil
}

func (a *App) askConfirm(action confirmAction) {
	a.confirm = action
	a.confirmReturn = a.view
	a.view = ViewConfirm
}

func (a *App) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := a.confirm

	switch {
	case key.Matches(msg, a.keys.Yes):
		a.confirm = confirmNone
		a.view = a.confirmReturn
		switch action {
		case confirmFinishEarly:
			return a.finish(engine.FinishOptions{ForceEarly: true})
		case confirmDelete:
			if w := a.selectedWorkout(); w != nil {
				return a, a.deleteWorkout(w.ID)
			}
		}

	case key.Matches(msg, a.keys.No):
		a.confirm = confirmNone
		a.view = a.confirmReturn
	}
	return a, nil
}

func (a *App) handleSummaryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Enter), key.Matches(msg, a.keys.Back):
		a.view = ViewWorkoutList
	}
	return a, nil
}

func (a *App) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Back):
		a.view = ViewWorkoutList
	}
	return a, nil
}

// Messages

type workoutsLoadedMsg struct {
	workouts []*models.Workout
	err      error
}

type historyLoadedMsg struct {
	history []*models.HistoryEntry
	err     error
}

type definitionsImportedMsg struct {
	result catalog.ImportResult
	err    error
}

type workoutDeletedMsg struct {
	workoutID int64
	err       error
}

// engineUpdateMsg is sent on every engine change and clock tick.
type engineUpdateMsg struct{}

type rewardMsg ledger.Change

// Commands

func (a *App) loadWorkouts() tea.Msg {
	workouts, err := a.trainer.Workouts()
	return workoutsLoadedMsg{workouts: workouts, err: err}
}

func (a *App) loadHistory() tea.Msg {
	history, err := a.trainer.History(models.MaxHistoryEntries)
	return historyLoadedMsg{history: history, err: err}
}

func (a *App) importDefinitions() tea.Msg {
	res, err := a.trainer.ImportDefinitions()
	return definitionsImportedMsg{result: res, err: err}
}

func (a *App) deleteWorkout(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := a.trainer.DeleteWorkout(id); err != nil {
			return workoutDeletedMsg{err: err}
		}
		return workoutDeletedMsg{workoutID: id}
	}
}
