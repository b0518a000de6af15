package widget

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
)

type loadState int

const (
	stateLoading loadState = iota
	stateReady
	stateFailed
)

type textLoadedMsg struct {
	token uint64
	text string
	err  error
}

// TextViewer shows a plain text file.
type TextViewer struct {
	id    string
	token uint64
	path  string
	state loadState
	text  string
	err   error
}

func NewTextViewer(windowID, path string) *TextViewer {
	return &TextViewer{id: windowID, token: nextToken(), path: path}
}

func (v *TextViewer) WindowID() string { return v.id }

func (v *TextViewer) Init() tea.Cmd {
	v.state = stateLoading
	token, path := v.token, v.path
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		return textLoadedMsg{token: token, text: string(data), err: err}
	}
}

func (v *TextViewer) Update(msg tea.Msg) tea.Cmd {
	m, ok := msg.(textLoadedMsg)
	if !ok || m.token != v.token {
		return nil
	}
	if m.err != nil {
		v.state = stateFailed
		v.err = m.err
		return nil
	}
	v.state = stateReady
	v.text = m.text
	return nil
}

func (v *TextViewer) View(width, _ int) string {
	switch v.state {
	case stateLoading:
		return mutedStyle.Render("Loading...")
	case stateFailed:
		return errorStyle.Render(wrap(fmt.Sprintf("Error loading %s: %v", filepath.Base(v.path), v.err), width))
	default:
		return wrap(v.text, width)
	}
}
