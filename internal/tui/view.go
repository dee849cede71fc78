package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mpataki/gym/internal/engine"
	"github.com/mpataki/gym/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	skinsStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	flashStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	statusRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusPaused  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	statusDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusPending = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	statusEdited  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	difficultyStyles = map[models.Difficulty]lipgloss.Style{
		models.DifficultyLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		models.DifficultyMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		models.DifficultyHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("57")).
			Padding(0, 1)
)

func (a *App) View() string {
	var s string
	switch a.view {
	case ViewWorkoutList:
		s = a.viewWorkoutList()
	case ViewSession:
		s = a.viewSession()
	case ViewEditSet:
		s = a.viewEditSet()
	case ViewReview:
		s = a.viewReview()
	case ViewConfirm:
		s = a.viewConfirm()
	case ViewSummary:
		s = a.viewSummary()
	case ViewHistory:
		s = a.viewHistory()
	}

	if a.err != nil {
		s += "\n" + errorStyle.Render("Error: "+a.err.Error()) + "\n"
	}
	s += "\n" + a.help.View(a.keys.forView(a.view))
	return s
}

func (a *App) header(title string) string {
	skins := skinsStyle.Render(humanize.Comma(int64(a.rewardTotal)) + " skins")
	return titleStyle.Render(title) + "  " + skins + "\n\n"
}

func (a *App) viewWorkoutList() string {
	s := a.header("Gym")

	if a.flash != "" {
		s += flashStyle.Render(a.flash) + "\n\n"
	}

	if len(a.workouts) == 0 {
		s += "No workouts yet. Add definition files and press 'i' to import them.\n"
		return s
	}

	s += "Workouts\n"
	s += "────────\n"
	for i, w := range a.workouts {
		line := formatWorkoutLine(w)
		if i == a.selectedIdx {
			line = selectedStyle.Render("▶ " + line)
		} else {
			line = "  " + line
		}
		s += line + "\n"
	}

	if w := a.selectedWorkout(); w != nil && w.Description != "" {
		s += "\n" + dimStyle.Render(w.Description) + "\n"
	}
	return s
}

func formatWorkoutLine(w *models.Workout) string {
	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(w.Color)).Render("■")
	last := "never"
	if w.LastCompleted != nil {
		last = humanize.Time(*w.LastCompleted)
	}
	duration := ""
	if w.DurationMinutes > 0 {
		duration = fmt.Sprintf("~%dm", w.DurationMinutes)
	}
	return fmt.Sprintf("%s %-22s %-6s %2d ex %3d sets %5s  %s",
		swatch, truncate(w.Name, 22), formatDifficulty(w.Difficulty),
		len(w.Exercises), w.TotalSets(), duration, dimStyle.Render(last))
}

func formatDifficulty(d models.Difficulty) string {
	style, ok := difficultyStyles[d]
	if !ok {
		return d.String()
	}
	return style.Render(d.String())
}

func (a *App) viewSession() string {
	snap := a.snap
	s := a.header(snap.WorkoutName)

	status := statusRunning.Render("● running")
	if snap.Status == models.SessionPaused {
		status = statusPaused.Render("❚❚ paused " + formatClock(snap.PausedFor))
	}
	s += fmt.Sprintf("%s  %s  %s\n", status,
		labelStyle.Render("elapsed")+" "+formatClock(snap.Elapsed),
		a.formatRest(snap))

	percent := 0.0
	if snap.TotalSets > 0 {
		percent = float64(snap.CompletedSets) / float64(snap.TotalSets)
	}
	s += a.progress.ViewAs(percent) + fmt.Sprintf("  %d/%d sets\n\n", snap.CompletedSets, snap.TotalSets)

	edited := editedSets(snap.Changes)
	for i, ex := range snap.Exercises {
		s += fmt.Sprintf("%s %s\n", titleStyle.Render(ex.Name), dimStyle.Render(strings.Join(ex.MuscleGroups, ", ")))
		for j, set := range ex.Sets {
			c := models.Cursor{ExerciseIndex: i, SetIndex: j}
			s += a.formatSetLine(c, set, snap.Cursor, edited[c]) + "\n"
		}
	}

	if snap.AwaitingReview {
		s += "\n" + statusEdited.Render("All sets done. Press f to review your edits.") + "\n"
	}
	return s
}

func (a *App) formatRest(snap engine.Snapshot) string {
	if snap.RestRemaining <= 0 {
		return ""
	}
	return statusPaused.Render("rest " + formatClock(snap.RestRemaining))
}

func (a *App) formatSetLine(c models.Cursor, set models.Set, cursor models.Cursor, edited bool) string {
	mark := statusPending.Render("○")
	if set.Completed {
		mark = statusDone.Render("✓")
	}

	values := fmt.Sprintf("%2d × %s", set.ActualReps, formatWeight(set.ActualWeight))
	if edited {
		values = statusEdited.Render(values) + dimStyle.Render(fmt.Sprintf(" (was %d × %s)", set.Reps, formatWeight(set.Weight)))
	}

	pointer := "  "
	if c == cursor {
		pointer = "→ "
	}
	line := fmt.Sprintf("%sset %d  %s  %s", pointer, c.SetIndex+1, mark, values)
	if c == a.selected {
		return selectedStyle.Render(line)
	}
	return line
}

func editedSets(changes []models.Change) map[models.Cursor]bool {
	out := make(map[models.Cursor]bool, len(changes))
	for _, ch := range changes {
		out[models.Cursor{ExerciseIndex: ch.ExerciseIndex, SetIndex: ch.SetIndex}] = true
	}
	return out
}

func (a *App) viewEditSet() string {
	s := a.header("Edit set")
	c := a.selected
	if c.ExerciseIndex < len(a.snap.Exercises) {
		s += fmt.Sprintf("%s, set %d\n\n", a.snap.Exercises[c.ExerciseIndex].Name, c.SetIndex+1)
	}
	s += a.input.View() + "\n"
	s += dimStyle.Render("Enter reps and weight, e.g. 8 42.5") + "\n"
	return s
}

func (a *App) viewReview() string {
	s := a.header("Review edits")
	s += "You changed these sets during the workout. Keep them as the new targets?\n\n"

	for _, ch := range a.snap.Changes {
		name := ""
		if ch.ExerciseIndex < len(a.snap.Exercises) {
			name = a.snap.Exercises[ch.ExerciseIndex].Name
		}
		s += fmt.Sprintf("  %-20s set %d  %d × %s → %s\n",
			truncate(name, 20), ch.SetIndex+1,
			ch.OldReps, formatWeight(ch.OldWeight),
			statusEdited.Render(fmt.Sprintf("%d × %s", ch.NewReps, formatWeight(ch.NewWeight))))
	}
	return s
}

func (a *App) viewConfirm() string {
	var question string
	switch a.confirm {
	case confirmFinishEarly:
		question = fmt.Sprintf("End %s early? %d of %d sets done.",
			a.snap.WorkoutName, a.snap.CompletedSets, a.snap.TotalSets)
	case confirmDelete:
		if w := a.selectedWorkout(); w != nil {
			question = fmt.Sprintf("Delete %s?", w.Name)
		}
	}
	return a.header("Confirm") + boxStyle.Render(question+"  [y/n]") + "\n"
}

func (a *App) viewSummary() string {
	s := a.header("Workout complete")
	if a.summary == nil {
		return s
	}

	e := a.summary.Entry
	lines := []string{
		titleStyle.Render(e.WorkoutName),
		fmt.Sprintf("%s %s", labelStyle.Render("Duration:"), formatClock(a.summary.Elapsed)),
		fmt.Sprintf("%s %d/%d", labelStyle.Render("Exercises:"), e.ExercisesCompleted, e.TotalExercises),
		fmt.Sprintf("%s %d/%d", labelStyle.Render("Sets:"), e.SetsCompleted, e.TotalSets),
		fmt.Sprintf("%s %s", labelStyle.Render("Earned:"), skinsStyle.Render("+"+strconv.Itoa(a.summary.Reward)+" skins")),
	}
	if e.EndedEarly {
		lines = append(lines, dimStyle.Render("Ended early"))
	}
	if a.summary.Reconciled > 0 {
		lines = append(lines, fmt.Sprintf("Saved %d edited %s as new targets",
			a.summary.Reconciled, plural(a.summary.Reconciled, "set", "sets")))
	}
	return s + boxStyle.Render(strings.Join(lines, "\n")) + "\n"
}

func (a *App) viewHistory() string {
	s := a.header("History")
	if len(a.history) == 0 {
		return s + "No finished workouts yet.\n"
	}

	for _, e := range a.history {
		early := ""
		if e.EndedEarly {
			early = dimStyle.Render(" early")
		}
		s += fmt.Sprintf("%-14s %-22s %3dm  %2d/%-2d sets  %s%s\n",
			dimStyle.Render(humanize.Time(e.CompletedAt)),
			truncate(e.WorkoutName, 22),
			e.DurationMinutes,
			e.SetsCompleted, e.TotalSets,
			skinsStyle.Render("+"+strconv.Itoa(e.Reward)),
			early)
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatClock renders d as m:ss, or h:mm:ss from one hour on.
func formatClock(d time.Duration) string {
	total := int(d / time.Second)
	h, m, sec := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
