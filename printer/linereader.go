package printer

import (
	"io"
	"time"

	"github.com/allbin/go-ultiprint/logger"
)

// ACK is the byte the firmware sends for every frame it accepted.
const ACK byte = 0x06

// loggedErrors caps how many consecutive read errors are logged.
const loggedErrors = 5

// LineReader assembles firmware output into reply units: a text line ending
// in '\n', or everything up to and including an ACK byte followed by a
// synthetic '\n'. A unit without a terminator is returned when the byte
// timeout elapsed; callers keep it as a partial line.
type LineReader struct {
	r         io.Reader
	maxErrors int
	backoff   time.Duration
	errors    int
	log       logger.Logger
	metrics   *Metrics
	sleep     func(time.Duration)
}

// NewLineReader reads from r and declares the channel dead after maxErrors
// consecutive read errors.
func NewLineReader(r io.Reader, maxErrors int, backoff time.Duration, log logger.Logger) *LineReader {
	if log == nil {
		log = logger.Discard()
	}
	return &LineReader{
		r:         r,
		maxErrors: maxErrors,
		backoff:   backoff,
		log:       log,
		metrics:   &Metrics{},
		sleep:     time.Sleep,
	}
}

// ReadLine returns one reply unit. Read errors are counted and the bytes
// gathered so far are returned with a nil error, until the count reaches
// the limit and ErrChannelDead is returned instead.
func (lr *LineReader) ReadLine() ([]byte, error) {
	return lr.readLine(false)
}

// ReadReady is ReadLine after a poll reported input. A first read that
// returns nothing is counted as an I/O error with ErrNoData.
func (lr *LineReader) ReadReady() ([]byte, error) {
	return lr.readLine(true)
}

func (lr *LineReader) readLine(ready bool) ([]byte, error) {
	var line []byte
	var b [1]byte

	for {
		n, err := lr.r.Read(b[:])
		if err != nil {
			return line, lr.Fail(err)
		}
		if n == 0 {
			if ready && len(line) == 0 {
				return line, lr.Fail(ErrNoData)
			}
			return line, nil
		}

		lr.errors = 0
		line = append(line, b[0])

		switch b[0] {
		case '\n':
			return line, nil
		case ACK:
			return append(line, '\n'), nil
		}
	}
}

// Fail counts an I/O error that happened outside ReadLine, such as a failed
// poll, and sleeps the backoff. It returns ErrChannelDead once the limit is
// reached and nil before that.
func (lr *LineReader) Fail(err error) error {
	lr.errors++
	lr.metrics.incIOErrorCount()
	if lr.errors <= loggedErrors {
		lr.log.Warn("read error", "error", err, "consecutive", lr.errors)
	}
	if lr.errors >= lr.maxErrors {
		lr.log.Error("declaring channel dead", "consecutive", lr.errors, "last_error", err)
		return ErrChannelDead
	}
	lr.sleep(lr.backoff)
	return nil
}

// Errors returns the current consecutive error count.
func (lr *LineReader) Errors() int {
	return lr.errors
}

// Reset attaches a new reader and clears the error count.
func (lr *LineReader) Reset(r io.Reader) {
	lr.r = r
	lr.errors = 0
}

// isAck reports whether a complete unit is an ACK. Bytes before the ACK
// are returned as prefix.
func isAck(unit []byte) (prefix []byte, ok bool) {
	n := len(unit)
	if n >= 2 && unit[n-2] == ACK && unit[n-1] == '\n' {
		return unit[:n-2], true
	}
	return nil, false
}
