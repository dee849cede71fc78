package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Quit     key.Binding
	Delete   key.Binding
	History  key.Binding
	Import   key.Binding
	Refresh  key.Binding
	Complete key.Binding
	Toggle   key.Binding
	Edit     key.Binding
	Pause    key.Binding
	Finish   key.Binding
	Keep     key.Binding
	Discard  key.Binding
	Yes      key.Binding
	No       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		History:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
		Import:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Complete: key.NewBinding(key.WithKeys(" ", "c"), key.WithHelp("space", "complete set")),
		Toggle:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Pause:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause/resume")),
		Finish:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "finish")),
		Keep:     key.NewBinding(key.WithKeys("k", "y"), key.WithHelp("k", "keep edits")),
		Discard:  key.NewBinding(key.WithKeys("d", "n"), key.WithHelp("d", "discard edits")),
		Yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		No:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
	}
}

// bindings is the help for one view.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

func (k keyMap) forView(v View) bindings {
	switch v {
	case ViewWorkoutList:
		return bindings{k.Up, k.Down, k.Enter, k.Delete, k.History, k.Import, k.Refresh, k.Quit}
	case ViewSession:
		return bindings{k.Complete, k.Up, k.Down, k.Toggle, k.Edit, k.Pause, k.Finish, k.Back}
	case ViewEditSet:
		return bindings{k.Enter, k.Back}
	case ViewReview:
		return bindings{k.Keep, k.Discard, k.Back}
	case ViewConfirm:
		return bindings{k.Yes, k.No}
	case ViewSummary:
		return bindings{k.Enter}
	case ViewHistory:
		return bindings{k.Back, k.Quit}
	}
	return nil
}
