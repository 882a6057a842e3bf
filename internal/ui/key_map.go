package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter    key.Binding
	back     key.Binding
	refresh  key.Binding
	playlist key.Binding
	summary  key.Binding
	quiz     key.Binding
	answers  key.Binding
	save     key.Binding
	complete key.Binding
	open     key.Binding
	clear    key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open lesson")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		playlist: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "playlist")),
		summary:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "summary")),
		quiz:     key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "quiz")),
		answers:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "answers")),
		save:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "save/unsave")),
		complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in browser")),
		clear:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.back, k.refresh, k.playlist},
		{k.summary, k.quiz, k.answers, k.save, k.complete, k.open},
		{k.clear, k.quit},
	}
}
