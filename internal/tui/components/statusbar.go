package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-ultiprint/internal/tui/colors"
	"github.com/allbin/go-ultiprint/internal/tui/styles"
	"github.com/allbin/go-ultiprint/printer"
)

// RunInfo is the live run summary shown on the right of the bar.
type RunInfo struct {
	Seq        uint32
	Position   int
	Total      int
	Rate       float64
	Resends    int
	Reconnects int
}

type StatusBar struct {
	device string
	mode   string
	state  styles.RunState
	err    error
	width  int
	info   RunInfo
}

func NewStatusBar(device, mode string) *StatusBar {
	return &StatusBar{
		device: device,
		mode:   mode,
		state:  styles.StateConnecting,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) State() styles.RunState {
	return sb.state
}

func (sb *StatusBar) Info() RunInfo {
	return sb.info
}

func (sb *StatusBar) Err() error {
	return sb.err
}

// Apply moves the bar along with a session event.
func (sb *StatusBar) Apply(e printer.Event) {
	switch e.Kind {
	case printer.EventConnected:
		sb.state = styles.StateWaiting
	case printer.EventSent:
		sb.state = styles.StateSending
		sb.info.Seq = e.Seq
		sb.info.Position = e.Position
		sb.info.Total = e.Total
	case printer.EventProgress:
		sb.info.Rate = e.Rate
	case printer.EventResend:
		sb.state = styles.StateResending
		sb.info.Resends++
	case printer.EventChannelDead:
		sb.state = styles.StateReconnecting
		sb.info.Reconnects++
	case printer.EventReconnected:
		sb.state = styles.StateSending
	case printer.EventFinished:
		sb.state = styles.StateMonitoring
	case printer.EventFirmwareError:
		if sb.mode != printer.ModeMonitor.String() {
			sb.state = styles.StateFailed
			sb.err = e.Err
		}
	}
}

// Finish records the outcome of the run.
func (sb *StatusBar) Finish(err error) {
	if err != nil {
		sb.state = styles.StateFailed
		sb.err = err
		return
	}
	sb.state = styles.StateDone
}

func (sb *StatusBar) View(timestamp string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	state := styles.StateStyle(sb.state).Render(sb.state.String())
	device := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.device)
	mode := lipgloss.NewStyle().
		Foreground(colors.Peach).
		Padding(0, 1).
		Render(strings.ToUpper(sb.mode))

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	var details string
	if sb.info.Total > 0 {
		details = fmt.Sprintf("N%d  %.1f/s", sb.info.Seq, sb.info.Rate)
	}
	if sb.info.Resends > 0 {
		details += fmt.Sprintf("  resends %d", sb.info.Resends)
	}
	if sb.info.Reconnects > 0 {
		details += fmt.Sprintf("  reconnects %d", sb.info.Reconnects)
	}
	detail := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(details)
	clock := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(timestamp)

	left := lipgloss.JoinHorizontal(lipgloss.Left, state, device, mode, divider)
	right := lipgloss.JoinHorizontal(lipgloss.Left, detail, divider, clock)

	spacer := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacer < 1 {
		spacer = 1
	}
	content := lipgloss.JoinHorizontal(lipgloss.Left, left, strings.Repeat(" ", spacer), right)

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width).
		Render(content)
}
