package printer

import "sync/atomic"

// Metrics are session counters, safe to read from other goroutines.
type Metrics struct {
	// FramesSent counts transmitted frames, resends included.
	FramesSent atomic.Uint64
	// BytesSent counts transmitted bytes.
	BytesSent atomic.Uint64
	// AckCount counts ACK bytes matched to a frame.
	AckCount atomic.Uint64
	// ResendCount counts firmware resend requests.
	ResendCount atomic.Uint64
	// ReplyCount counts complete text lines received.
	ReplyCount atomic.Uint64
	// IOErrorCount counts transport read and poll errors.
	IOErrorCount atomic.Uint64
	// ReconnectCount counts reconnect attempts.
	ReconnectCount atomic.Uint64
}

func (m *Metrics) incFramesSent(n int) {
	m.FramesSent.Add(1)
	m.BytesSent.Add(uint64(n))
}

func (m *Metrics) incAckCount() {
	m.AckCount.Add(1)
}

func (m *Metrics) incResendCount() {
	m.ResendCount.Add(1)
}

func (m *Metrics) incReplyCount() {
	m.ReplyCount.Add(1)
}

func (m *Metrics) incIOErrorCount() {
	m.IOErrorCount.Add(1)
}

func (m *Metrics) incReconnectCount() {
	m.ReconnectCount.Add(1)
}
