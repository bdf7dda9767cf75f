package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// maxLogLines bounds the log kept for scrolling.
const maxLogLines = 2000

// Terminal is the scrolling firmware log.
type Terminal struct {
	viewport viewport.Model
	lines    []string
	follow   bool
}

func NewTerminal(width, height int) *Terminal {
	return &Terminal{
		viewport: viewport.New(width, height),
		follow:   true,
	}
}

func (t *Terminal) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
}

// Add appends a rendered line, dropping the oldest beyond maxLogLines.
func (t *Terminal) Add(line string) {
	t.lines = append(t.lines, line)
	if n := len(t.lines) - maxLogLines; n > 0 {
		t.lines = t.lines[n:]
	}
	t.refresh()
}

func (t *Terminal) Lines() int {
	return len(t.lines)
}

func (t *Terminal) Clear() {
	t.lines = nil
	t.viewport.SetContent("")
}

// Follow keeps the newest line in view; scrolling turns it off.
func (t *Terminal) Follow() {
	t.follow = true
	t.viewport.GotoBottom()
}

func (t *Terminal) Following() bool {
	return t.follow
}

func (t *Terminal) ScrollUp() {
	t.follow = false
	t.viewport.ScrollUp(1)
}

func (t *Terminal) ScrollDown() {
	t.viewport.ScrollDown(1)
	if t.viewport.AtBottom() {
		t.follow = true
	}
}

func (t *Terminal) GotoTop() {
	t.follow = false
	t.viewport.GotoTop()
}

func (t *Terminal) refresh() {
	t.viewport.SetContent(strings.Join(t.lines, "\n"))
	if t.follow {
		t.viewport.GotoBottom()
	}
}

func (t *Terminal) Update(msg tea.Msg) (viewport.Model, tea.Cmd) {
	// key messages are handled by the model, the viewport only needs sizes
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		return t.viewport.Update(msg)
	}
	return t.viewport, nil
}

func (t *Terminal) View() string {
	return t.viewport.View()
}
