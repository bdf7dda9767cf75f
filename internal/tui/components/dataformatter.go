package components

import (
	"encoding/hex"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-ultiprint/internal/tui/colors"
	"github.com/allbin/go-ultiprint/internal/tui/styles"
	"github.com/allbin/go-ultiprint/printer"
)

// DisplayMode selects which events reach the log.
type DisplayMode struct {
	ShowSent bool
	ShowAcks bool
}

// EventFormatter renders session events as log lines.
type EventFormatter struct {
	mode DisplayMode
}

func NewEventFormatter(showSent, showAcks bool) *EventFormatter {
	return &EventFormatter{mode: DisplayMode{ShowSent: showSent, ShowAcks: showAcks}}
}

func (f *EventFormatter) ToggleSent() {
	f.mode.ShowSent = !f.mode.ShowSent
}

func (f *EventFormatter) GetDisplayMode() DisplayMode {
	return f.mode
}

// Format returns the log line for e, or false when e is not logged in the
// current mode.
func (f *EventFormatter) Format(e printer.Event) (string, bool) {
	ts := styles.TimestampStyle.Render(e.Time.Format("15:04:05.000"))

	var tag, body string
	switch e.Kind {
	case printer.EventSent:
		if !f.mode.ShowSent {
			return "", false
		}
		tag = indicator("TX", colors.Subtext0)
		body = styles.SentStyle.Render(fmt.Sprintf("N%d  %d/%d", e.Seq, e.Position, e.Total))
	case printer.EventAck:
		if !f.mode.ShowAcks {
			return "", false
		}
		tag = indicator("ACK", colors.Teal)
		body = styles.SentStyle.Render(fmt.Sprintf("N%d", e.Seq))
	case printer.EventProgress:
		return "", false
	case printer.EventReply:
		tag = indicator("RX", colors.Text)
		body = formatLine(e.Line)
	case printer.EventRequiredReply:
		tag = indicator("RX ✓", colors.Green)
		body = formatLine(e.Line)
	case printer.EventResend:
		tag = indicator("RESEND", colors.Yellow)
		body = fmt.Sprintf("from N%d: %s", e.Seq, e.Line)
	case printer.EventFirmwareError:
		tag = indicator("ERROR", colors.Red)
		body = styles.ErrorStyle.Render(e.Line)
	case printer.EventStoreComplete:
		tag = indicator("STORED", colors.Green)
		body = fmt.Sprintf("%d commands in %s (%.1f/s)", e.Position, e.Elapsed.Round(100*time.Millisecond), e.Rate)
	case printer.EventChannelDead, printer.EventReconnected:
		tag = indicator(e.Kind.String(), colors.Peach)
		body = fmt.Sprintf("resume at %d/%d", e.Position, e.Total)
	default:
		tag = indicator(e.Kind.String(), colors.Mauve)
		body = e.Line
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, ts, " ", tag, " ", body), true
}

func indicator(text string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Bold(true).Width(9).Render(text)
}

// formatLine shows firmware text verbatim and boot noise as hex.
func formatLine(line string) string {
	if line == "" || (line[0] >= ' ' && utf8.ValidString(line)) {
		return styles.ReplyStyle.Render(line)
	}
	return styles.HexStyle.Render(hex.EncodeToString([]byte(line)))
}
