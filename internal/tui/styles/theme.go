package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-ultiprint/internal/tui/colors"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	// Log pane
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	TimestampStyle = lipgloss.NewStyle().Foreground(colors.Overlay0)
	ReplyStyle     = lipgloss.NewStyle().Foreground(colors.Text)
	SentStyle      = lipgloss.NewStyle().Foreground(colors.Subtext0)
	HexStyle       = lipgloss.NewStyle().Foreground(colors.Peach)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	InfoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve)

	// Summaries printed after a run
	LabelStyle = lipgloss.NewStyle().Foreground(colors.Subtext1).Width(14)
	ValueStyle = lipgloss.NewStyle().Foreground(colors.Text).Bold(true)
	BoxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)
)

// RunState is what the status bar shows on the left.
type RunState int

const (
	StateConnecting RunState = iota
	StateWaiting
	StateSending
	StateResending
	StateReconnecting
	StateMonitoring
	StateDone
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateWaiting:
		return "WAITING"
	case StateSending:
		return "SENDING"
	case StateResending:
		return "RESEND"
	case StateReconnecting:
		return "RECONNECT"
	case StateMonitoring:
		return "MONITOR"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "?"
	}
}

// StateStyle is the badge style for s.
func StateStyle(s RunState) lipgloss.Style {
	badge := lipgloss.NewStyle().
		Foreground(colors.Base).
		Bold(true).
		Padding(0, 1)

	switch s {
	case StateSending, StateDone:
		return badge.Background(colors.Green)
	case StateWaiting, StateConnecting, StateMonitoring:
		return badge.Background(colors.Blue)
	case StateResending, StateReconnecting:
		return badge.Background(colors.Yellow)
	default:
		return badge.Background(colors.Red)
	}
}
