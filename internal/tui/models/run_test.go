package models

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/go-ultiprint/internal/tui/styles"
	"github.com/allbin/go-ultiprint/printer"
)

func event(kind printer.EventKind, mutate ...func(*printer.Event)) EventMsg {
	e := printer.Event{Kind: kind, Time: time.Now()}
	for _, f := range mutate {
		f(&e)
	}
	return EventMsg{Event: e}
}

func TestRunModelProgress(t *testing.T) {
	m := NewRunModel("/dev/ttyACM0", printer.ModeStore, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m.Update(event(printer.EventConnected))
	assert.Equal(t, styles.StateWaiting, m.statusBar.State())

	m.Update(event(printer.EventSent, func(e *printer.Event) {
		e.Seq, e.Position, e.Total = 4, 5, 20
	}))
	assert.Equal(t, styles.StateSending, m.statusBar.State())
	assert.InDelta(t, 0.25, m.Percent(), 1e-9)

	m.Update(event(printer.EventResend, func(e *printer.Event) { e.Seq = 3 }))
	assert.Equal(t, styles.StateResending, m.statusBar.State())
	assert.Equal(t, 1, m.statusBar.Info().Resends)

	assert.Contains(t, m.View(), "5/20")
}

func TestRunModelLogsReplies(t *testing.T) {
	m := NewRunModel("sim", printer.ModePrint, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m.Update(event(printer.EventSent))
	assert.Equal(t, 0, m.terminal.Lines(), "sent frames are hidden by default")

	m.Update(event(printer.EventReply, func(e *printer.Event) { e.Line = "echo:SD card ok" }))
	assert.Equal(t, 1, m.terminal.Lines())

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	m.Update(event(printer.EventSent))
	assert.Equal(t, 2, m.terminal.Lines())

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	assert.Equal(t, 0, m.terminal.Lines())
}

func TestRunModelQuitCancels(t *testing.T) {
	canceled := 0
	m := NewRunModel("sim", printer.ModeStore, func() { canceled++ })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Nil(t, cmd, "quit waits for the session")
	assert.Equal(t, 1, canceled)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Equal(t, 1, canceled)

	runErr := errors.New("boom")
	_, cmd = m.Update(DoneMsg{Result: printer.Result{Confirmed: 3}, Err: runErr})
	require.NotNil(t, cmd)
	assert.Equal(t, styles.StateFailed, m.statusBar.State())

	res, err := m.Result()
	assert.Equal(t, 3, res.Confirmed)
	assert.ErrorIs(t, err, runErr)
}

func TestRunModelMonitorErrorIsNotFatal(t *testing.T) {
	m := NewRunModel("sim", printer.ModeMonitor, nil)

	m.Update(event(printer.EventFirmwareError, func(e *printer.Event) {
		e.Line = "Error:MINTEMP triggered"
		e.Err = &printer.FirmwareError{Line: e.Line}
	}))
	assert.NotEqual(t, styles.StateFailed, m.statusBar.State())
	assert.Equal(t, 1, m.terminal.Lines())
}
