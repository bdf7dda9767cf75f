package printer

import "time"

// EventKind identifies a session notification.
type EventKind int

const (
	EventConnected EventKind = iota
	EventSent
	EventProgress
	EventAck
	EventReply
	EventRequiredReply
	EventResend
	EventFirmwareError
	EventStoreComplete
	EventFinished
	EventChannelDead
	EventReconnected
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventSent:
		return "sent"
	case EventProgress:
		return "progress"
	case EventAck:
		return "ack"
	case EventReply:
		return "reply"
	case EventRequiredReply:
		return "required-reply"
	case EventResend:
		return "resend"
	case EventFirmwareError:
		return "firmware-error"
	case EventStoreComplete:
		return "store-complete"
	case EventFinished:
		return "finished"
	case EventChannelDead:
		return "channel-dead"
	case EventReconnected:
		return "reconnected"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is one notification. Fields not relevant to Kind are zero.
type Event struct {
	Kind EventKind
	Time time.Time

	Seq      uint32
	Position int
	Total    int

	// Line is the firmware text, without the newline.
	Line string
	// Rate is commands per second since the run started.
	Rate    float64
	Elapsed time.Duration
	Err     error
}

// Notifier receives session events. Notify is called from the session
// loop and must not block for long.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}
