package models

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-ultiprint/internal/tui/colors"
	"github.com/allbin/go-ultiprint/internal/tui/components"
	"github.com/allbin/go-ultiprint/internal/tui/keys"
	"github.com/allbin/go-ultiprint/internal/tui/styles"
	"github.com/allbin/go-ultiprint/printer"
)

// EventMsg carries one session event into the program.
type EventMsg struct {
	Event printer.Event
}

// DoneMsg reports that the session returned.
type DoneMsg struct {
	Result printer.Result
	Err    error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// RunModel shows progress and firmware output of one session run.
type RunModel struct {
	statusBar *components.StatusBar
	terminal  *components.Terminal
	formatter *components.EventFormatter
	progress  progress.Model
	help      help.Model
	keys      keys.RunKeys

	mode   printer.Mode
	cancel context.CancelFunc
	width  int
	height int

	stopping bool
	done     bool
	result   printer.Result
	err      error
}

// NewRunModel creates the view. cancel stops the session when the user
// quits before it is done.
func NewRunModel(device string, mode printer.Mode, cancel context.CancelFunc) *RunModel {
	return &RunModel{
		statusBar: components.NewStatusBar(device, mode.String()),
		terminal:  components.NewTerminal(0, 0),
		formatter: components.NewEventFormatter(false, false),
		progress:  progress.New(progress.WithGradient(colors.GradientStart, colors.GradientEnd)),
		help:      help.New(),
		keys:      keys.NewRunKeys(),
		mode:      mode,
		cancel:    cancel,
	}
}

// Result is valid once the program has exited.
func (m *RunModel) Result() (printer.Result, error) {
	return m.result, m.err
}

func (m *RunModel) Init() tea.Cmd {
	return tick()
}

func (m *RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		m.statusBar.Apply(msg.Event)
		if line, ok := m.formatter.Format(msg.Event); ok {
			m.terminal.Add(line)
		}
		return m, nil

	case DoneMsg:
		m.done = true
		m.result, m.err = msg.Result, msg.Err
		m.statusBar.Finish(msg.Err)
		return m, tea.Quit

	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m *RunModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.done {
			return m, tea.Quit
		}
		// the session returns and DoneMsg quits
		if !m.stopping {
			m.stopping = true
			m.terminal.Add(styles.InfoStyle.Render("stopping..."))
			if m.cancel != nil {
				m.cancel()
			}
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
	case key.Matches(msg, m.keys.Follow):
		m.terminal.Follow()
	case key.Matches(msg, m.keys.ToggleSent):
		m.formatter.ToggleSent()
	case key.Matches(msg, m.keys.Clear):
		m.terminal.Clear()
	case key.Matches(msg, m.keys.Up):
		m.terminal.ScrollUp()
	case key.Matches(msg, m.keys.Down):
		m.terminal.ScrollDown()
	case key.Matches(msg, m.keys.GotoTop):
		m.terminal.GotoTop()
	case key.Matches(msg, m.keys.GotoBottom):
		m.terminal.Follow()
	}
	return m, nil
}

func (m *RunModel) layout() {
	m.statusBar.SetWidth(m.width)
	m.help.Width = m.width
	m.progress.Width = max(m.width-24, 10)

	// title, progress, border, status bar
	reserved := 4 + lipgloss.Height(m.help.View(m.keys))
	m.terminal.SetSize(m.width, max(m.height-reserved, 1))
}

// Percent is the share of the program sent so far.
func (m *RunModel) Percent() float64 {
	info := m.statusBar.Info()
	if info.Total == 0 {
		return 0
	}
	return float64(info.Position) / float64(info.Total)
}

func (m *RunModel) View() string {
	info := m.statusBar.Info()
	title := styles.TitleStyle.Render("ultiprint " + m.mode.String())

	counter := fmt.Sprintf(" %d/%d", info.Position, info.Total)
	bar := lipgloss.JoinHorizontal(lipgloss.Left, m.progress.ViewAs(m.Percent()), counter)

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		bar,
		styles.ContentBorderStyle.Width(m.width).Render(m.terminal.View()),
		m.statusBar.View(time.Now().Format("15:04:05")),
		m.help.View(m.keys),
	)
}
