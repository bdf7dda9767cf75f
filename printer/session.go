package printer

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/allbin/go-ultiprint/gcode"
	"github.com/allbin/go-ultiprint/logger"
)

// resendPattern matches "Error:Line Number is not Last Line Number+1, Last Line: 9"
// and "Error:checksum mismatch, Last Line: 71388".
var resendPattern = regexp.MustCompile(`Error:.*Last Line[^:]*:\s*(\d+)`)

// fatalTokens end the operation when no line number accompanies them.
var fatalTokens = []string{"Error:", "cold extrusion", "SD init fail", "open failed"}

// Session drives one printer over one transport: it sends frames one at a
// time, waits for the ACK and any required reply, follows resend requests
// and reconnects once when the channel dies.
//
// A Session is not safe for concurrent use. Events reach other goroutines
// through the Notifier.
type Session struct {
	conn    Connector
	cfg     Config
	log     logger.Logger
	notify  Notifier
	metrics *Metrics

	t      Transport
	reader *LineReader
}

// Result describes how far a run got.
type Result struct {
	Mode Mode
	// Sent counts transmitted frames, resends included.
	Sent int
	// Confirmed is the number of leading commands the firmware
	// acknowledged. RunFrom(ctx, mode, prog, Confirmed) resumes after it.
	Confirmed int
	// LastSeq is the sequence number of the last confirmed command, valid
	// when Confirmed > 0.
	LastSeq    uint32
	Resends    int
	Reconnects int
	// Completed reports that an end token was seen.
	Completed bool
	Elapsed   time.Duration
}

// New creates a session. Call Open before running anything.
func New(conn Connector, opts ...Option) (*Session, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}

	return &Session{
		conn:    conn,
		cfg:     cfg,
		log:     cfg.Logger.With("component", "session"),
		notify:  cfg.Notifier,
		metrics: &Metrics{},
	}, nil
}

// Metrics returns the live session counters.
func (s *Session) Metrics() *Metrics {
	return s.metrics
}

// Open connects and discards whatever the firmware left in the buffer.
func (s *Session) Open(ctx context.Context) error {
	t, err := s.conn.Open(ctx)
	if err != nil {
		return fmt.Errorf("open printer: %w", err)
	}
	s.attach(t)
	s.emit(Event{Kind: EventConnected})

	if ready, _ := t.Poll(0); ready {
		if line, err := s.reader.ReadLine(); err == nil && len(line) > 0 {
			s.log.Debug("initial read", "hex", hex.EncodeToString(line))
		}
	}
	return nil
}

// Reconnect asks the connector for the device again. Callers use it to
// retry after a run returned ErrReconnectFailed.
func (s *Session) Reconnect(ctx context.Context) error {
	if s.t != nil {
		_ = s.t.Close()
		s.t = nil
	}
	s.metrics.incReconnectCount()

	t, err := s.conn.Reconnect(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, ErrReconnectFailed) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrReconnectFailed, err)
	}
	s.attach(t)
	return nil
}

// Close releases the transport.
func (s *Session) Close() error {
	if s.t == nil {
		return nil
	}
	err := s.t.Close()
	s.t = nil
	return err
}

func (s *Session) attach(t Transport) {
	s.t = t
	s.reader = NewLineReader(t, s.cfg.MaxIOErrors, s.cfg.IOErrorBackoff, s.log)
	s.reader.metrics = s.metrics
}

func (s *Session) emit(e Event) {
	e.Time = time.Now()
	s.notify.Notify(e)
}

// Monitor observes the firmware until it reports an end token and the
// post-monitor window has passed, or ctx is done.
func (s *Session) Monitor(ctx context.Context) (Result, error) {
	return s.RunFrom(ctx, ModeMonitor, nil, 0)
}

// Run sends prog from the start.
func (s *Session) Run(ctx context.Context, mode Mode, prog *gcode.Program) (Result, error) {
	return s.RunFrom(ctx, mode, prog, 0)
}

// RunFrom sends prog starting at position start. A run from position 0
// first waits for the startup reply.
func (s *Session) RunFrom(ctx context.Context, mode Mode, prog *gcode.Program, start int) (Result, error) {
	if s.t == nil {
		return Result{Mode: mode}, ErrNotOpen
	}
	if mode == ModeReset {
		begin := time.Now()
		err := s.Reset(ctx)
		return Result{Mode: mode, Completed: err == nil, Elapsed: time.Since(begin)}, err
	}

	total := 0
	if prog != nil {
		total = prog.Len()
	}
	if start < 0 || start > total {
		return Result{Mode: mode}, fmt.Errorf("%w: start position %d outside program of %d commands", ErrInvalidConfig, start, total)
	}

	r := &runState{
		mode:      mode,
		prog:      prog,
		total:     total,
		pos:       start,
		confirmed: start,
		printing:  true,
		started:   time.Now(),
		endTokens: EndTokens(mode),
	}
	if start == 0 {
		r.wantReply = s.cfg.StartupReply
	}

	s.log.Info("run started", "mode", mode.String(), "commands", total, "start", start)
	err := s.loop(ctx, r)

	res := r.result()
	if err != nil {
		s.log.Warn("run stopped", "mode", mode.String(), "confirmed", res.Confirmed, "error", err)
	} else {
		s.log.Info("run finished", "mode", mode.String(), "sent", res.Sent, "elapsed", res.Elapsed)
	}
	return res, err
}

// runState is the per-run state machine.
type runState struct {
	mode  Mode
	prog  *gcode.Program
	total int

	pos       int
	confirmed int
	wantAck   bool
	wantReply string
	partial   []byte

	printing  bool
	completed bool
	deadline  time.Time
	endTokens []string

	started    time.Time
	sent       int
	resends    int
	reconnects int
}

func (r *runState) canSend() bool {
	return r.printing && !r.wantAck && r.wantReply == "" && r.mode != ModeMonitor && r.pos < r.total
}

func (r *runState) rate() float64 {
	secs := time.Since(r.started).Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.sent) / secs
}

func (r *runState) result() Result {
	res := Result{
		Mode:       r.mode,
		Sent:       r.sent,
		Confirmed:  r.confirmed,
		Resends:    r.resends,
		Reconnects: r.reconnects,
		Completed:  r.completed,
		Elapsed:    time.Since(r.started),
	}
	if r.confirmed > 0 && r.prog != nil {
		res.LastSeq = r.prog.Seq(r.confirmed - 1)
	}
	return res
}

func (s *Session) loop(ctx context.Context, r *runState) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !r.printing && !time.Now().Before(r.deadline) {
			return nil
		}

		err := s.step(ctx, r)
		if errors.Is(err, ErrChannelDead) {
			err = s.recover(ctx, r)
		}
		if err != nil {
			return err
		}
	}
}

// step sends at most one frame and handles at most one reply unit.
func (s *Session) step(ctx context.Context, r *runState) error {
	if r.canSend() {
		if err := s.sendNext(r); err != nil {
			return err
		}
	}

	unit, err := s.receive()
	if err != nil || len(unit) == 0 {
		return err
	}
	return s.handle(ctx, r, unit)
}

func (s *Session) sendNext(r *runState) error {
	f, err := r.prog.Frame(r.pos)
	if err != nil {
		return err
	}
	if err := s.transmit(f); err != nil {
		// nothing was accepted, the same position goes out again
		return s.reader.Fail(err)
	}

	r.wantAck = true
	r.wantReply = r.prog.Command(r.pos).Reply
	r.pos++
	r.sent++

	s.emit(Event{Kind: EventSent, Seq: f.Seq, Position: r.pos, Total: r.total})
	if r.sent%s.cfg.ProgressEvery == 0 {
		s.emit(Event{
			Kind:     EventProgress,
			Seq:      f.Seq,
			Position: r.pos,
			Total:    r.total,
			Rate:     r.rate(),
			Elapsed:  time.Since(r.started),
		})
	}
	return nil
}

func (s *Session) transmit(f gcode.Frame) error {
	if f.Packed {
		s.log.Debug("send", "seq", f.Seq, "hex", f.String())
	} else {
		s.log.Debug("send", "seq", f.Seq, "line", f.String())
	}

	n, err := s.t.Write(f.Data)
	if err == nil && n != len(f.Data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return fmt.Errorf("write N%d: %w", f.Seq, err)
	}
	s.metrics.incFramesSent(n)
	return nil
}

// receive waits up to one poll interval and reads one reply unit.
func (s *Session) receive() ([]byte, error) {
	ready, err := s.t.Poll(s.cfg.PollInterval)
	if err != nil {
		return nil, s.reader.Fail(err)
	}
	if !ready {
		return nil, nil
	}
	return s.reader.ReadReady()
}

func (s *Session) handle(ctx context.Context, r *runState, unit []byte) error {
	if r.partial != nil {
		unit = append(r.partial, unit...)
		r.partial = nil
	}
	if unit[len(unit)-1] != '\n' {
		r.partial = unit
		return nil
	}

	if prefix, ok := isAck(unit); ok {
		if len(prefix) > 0 {
			r.partial = append([]byte(nil), prefix...)
		}
		s.ack(r)
		return nil
	}

	s.metrics.incReplyCount()
	text := strings.TrimRight(string(unit), "\r\n")

	if last, ok := parseResend(text); ok {
		if r.mode != ModeMonitor {
			return s.resend(ctx, r, last, text)
		}
		s.log.Warn("firmware requested resend", "line", text)
		s.emit(Event{Kind: EventResend, Seq: last + 1, Line: text})
	} else if isFatal(text) {
		if r.mode != ModeMonitor {
			return s.fatal(ctx, r, text)
		}
		s.log.Error("firmware error", "line", text)
		s.emit(Event{Kind: EventFirmwareError, Line: text, Err: &FirmwareError{Line: text}})
	}

	if r.wantReply != "" && strings.HasPrefix(text, r.wantReply) {
		s.log.Info("required reply", "line", text)
		r.wantReply = ""
		s.emit(Event{Kind: EventRequiredReply, Line: text, Position: r.pos, Total: r.total})
	} else {
		s.log.Info("reply", "line", text)
		s.emit(Event{Kind: EventReply, Line: text})
	}

	if strings.HasPrefix(text, StoreCompleteToken) {
		elapsed := time.Since(r.started)
		s.log.Info("store complete", "commands", r.sent, "elapsed", elapsed, "rate", r.rate())
		s.emit(Event{Kind: EventStoreComplete, Line: text, Position: r.pos, Total: r.total, Rate: r.rate(), Elapsed: elapsed})
	}

	if r.printing {
		for _, token := range r.endTokens {
			if strings.HasPrefix(text, token) {
				r.printing = false
				r.completed = true
				r.deadline = time.Now().Add(s.cfg.PostMonitor)
				s.log.Info("end token received", "token", token, "monitor", s.cfg.PostMonitor)
				s.emit(Event{Kind: EventFinished, Line: text, Position: r.pos, Total: r.total, Elapsed: time.Since(r.started)})
				break
			}
		}
	}
	return nil
}

func (s *Session) ack(r *runState) {
	if !r.wantAck {
		s.log.Debug("unexpected ack")
		return
	}
	r.wantAck = false
	r.confirmed = r.pos
	s.metrics.incAckCount()

	var seq uint32
	if r.prog != nil && r.pos > 0 {
		seq = r.prog.Seq(r.pos - 1)
	}
	s.emit(Event{Kind: EventAck, Seq: seq, Position: r.pos, Total: r.total})
}

// resend rewinds to the command after last. Both pending flags are
// cleared: the reply belonged to a frame the firmware discarded.
func (s *Session) resend(ctx context.Context, r *runState, last uint32, text string) error {
	want := last + 1
	r.resends++
	s.metrics.incResendCount()

	pos, ok := r.prog.PositionOf(want, r.pos)
	if ok {
		s.log.Warn("resend requested", "seq", want, "from", r.pos, "to", pos)
		r.pos = pos
		if r.confirmed > pos {
			r.confirmed = pos
		}
	} else {
		s.log.Warn("resend requested for unknown line", "seq", want, "line", text)
	}
	r.wantAck = false
	r.wantReply = ""
	r.partial = nil

	s.emit(Event{Kind: EventResend, Seq: want, Position: r.pos, Total: r.total, Line: text})
	return sleepCtx(ctx, s.cfg.ResendPause)
}

// fatal abandons the run: drain, reset, report.
func (s *Session) fatal(ctx context.Context, r *runState, text string) error {
	r.printing = false
	ferr := &FirmwareError{Line: text}
	s.log.Error("fatal firmware error", "line", text)
	s.emit(Event{Kind: EventFirmwareError, Line: text, Position: r.pos, Total: r.total, Err: ferr})

	if err := s.observe(ctx, s.cfg.FatalDrain); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if err := s.Reset(ctx); err != nil {
		ferr.Reset = err
	}
	return ferr
}

// recover makes exactly one reconnect attempt and rewinds to the first
// unconfirmed command.
func (s *Session) recover(ctx context.Context, r *runState) error {
	r.reconnects++
	s.log.Warn("channel dead, reconnecting", "confirmed", r.confirmed, "position", r.pos)
	s.emit(Event{Kind: EventChannelDead, Position: r.confirmed, Total: r.total, Err: ErrChannelDead})

	if err := s.Reconnect(ctx); err != nil {
		return err
	}

	r.pos = r.confirmed
	r.wantAck = false
	r.wantReply = ""
	r.partial = nil
	s.emit(Event{Kind: EventReconnected, Position: r.pos, Total: r.total})
	return nil
}

// Reset sends the reset sequence, watching the replies after every
// command.
func (s *Session) Reset(ctx context.Context) error {
	if s.t == nil {
		return ErrNotOpen
	}
	prog, err := ResetProgram()
	if err != nil {
		return err
	}

	s.log.Info("resetting printer", "commands", prog.Len())
	s.emit(Event{Kind: EventReset, Total: prog.Len()})

	for i := 0; i < prog.Len(); i++ {
		f, err := prog.Frame(i)
		if err != nil {
			return err
		}
		if err := s.transmit(f); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		if err := s.observe(ctx, s.cfg.ResetDrain); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	if err := s.observe(ctx, s.cfg.ResetSettle); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.log.Info("printer reset done")
	return nil
}

// observe logs firmware output for d without acting on it.
func (s *Session) observe(ctx context.Context, d time.Duration) error {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		unit, err := s.receive()
		if err != nil {
			return err
		}
		if len(unit) == 0 {
			continue
		}
		if unit[0] > ' ' {
			text := strings.TrimRight(string(unit), "\r\n")
			s.log.Info("reply", "line", text)
			s.emit(Event{Kind: EventReply, Line: text})
		} else {
			s.log.Debug("reply", "hex", hex.EncodeToString(unit))
		}
	}
	return nil
}

func parseResend(text string) (uint32, bool) {
	m := resendPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func isFatal(text string) bool {
	for _, token := range fatalTokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
