// Package firmware simulates the USB-print firmware of an Ultimaker 2 well
// enough to drive a session without hardware: it validates frame checksums
// and line numbers, ACKs accepted frames, stores files between M28 and M29
// and reports an autostarted print as finished.
package firmware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/allbin/go-ultiprint/gcode"
	"github.com/allbin/go-ultiprint/logger"
)

// ACK is written for every frame the firmware accepted.
const ACK byte = 0x06

var (
	ErrDisconnected = errors.New("firmware: connection lost")
	ErrUnplugged    = errors.New("firmware: device not present")
	ErrClosed       = errors.New("firmware: connection closed")
)

// DefaultBanner is printed on power-up.
var DefaultBanner = []string{"start", "echo:Marlin 1.0.0", "echo:SD card ok"}

// Printer is the simulated device. It outlives connections: a redial after
// a lost connection sees the same line counter and SD state.
type Printer struct {
	mu     sync.Mutex
	log    logger.Logger
	notify chan struct{}

	banner      []string
	corrupt     map[uint32]bool
	replies     map[uint32][]string
	dropAfter   int
	rebootOnUSB bool

	conn     *Conn
	dials    int
	unplugs  int
	out      []byte
	in       []byte
	last     uint32
	accepted int
	writing  bool
	selected string
	stored   map[string][]string
	current  string
	frames   [][]byte
}

// Option configures a Printer.
type Option func(*Printer)

// WithBanner replaces the power-up lines.
func WithBanner(lines ...string) Option {
	return func(p *Printer) {
		p.banner = lines
	}
}

// WithCorrupt makes the first frame carrying seq fail its checksum.
func WithCorrupt(seq uint32) Option {
	return func(p *Printer) {
		p.corrupt[seq] = true
	}
}

// WithReply emits line after the frame carrying seq was accepted.
func WithReply(seq uint32, line string) Option {
	return func(p *Printer) {
		p.replies[seq] = append(p.replies[seq], line)
	}
}

// WithDisconnectAfter kills the connection once n frames were accepted,
// before their ACK reaches the host.
func WithDisconnectAfter(n int) Option {
	return func(p *Printer) {
		p.dropAfter = n
	}
}

// WithRebootOnReconnect makes every dial restart the firmware.
func WithRebootOnReconnect() Option {
	return func(p *Printer) {
		p.rebootOnUSB = true
	}
}

// WithLogger logs every frame and reply at debug level.
func WithLogger(l logger.Logger) Option {
	return func(p *Printer) {
		p.log = l
	}
}

// New powers up a simulated printer.
func New(opts ...Option) *Printer {
	p := &Printer{
		log:     logger.Discard(),
		notify:  make(chan struct{}, 1),
		banner:  DefaultBanner,
		corrupt: make(map[uint32]bool),
		replies: make(map[uint32][]string),
		stored:  make(map[string][]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("component", "firmware")
	return p
}

// Dial opens a new connection, invalidating the previous one. The banner is
// printed on the first dial, and on every dial with WithRebootOnReconnect.
func (p *Printer) Dial(ctx context.Context) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.dials++
	if p.unplugs > 0 {
		p.unplugs--
		return nil, ErrUnplugged
	}
	if p.conn != nil {
		p.conn.dead = true
	}
	p.out = nil
	p.in = nil
	if p.dials == 1 || p.rebootOnUSB {
		p.last = 0
		p.writing = false
		for _, line := range p.banner {
			p.emit(line)
		}
	}
	p.conn = &Conn{p: p}
	return p.conn, nil
}

// Unplug makes the next n dials fail.
func (p *Printer) Unplug(n int) {
	p.mu.Lock()
	p.unplugs = n
	p.mu.Unlock()
}

// Disconnect kills the live connection.
func (p *Printer) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.dead = true
	}
	p.wake()
}

// Say queues an unsolicited firmware line.
func (p *Printer) Say(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emit(line)
}

// Dials counts connection attempts, failed ones included.
func (p *Printer) Dials() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dials
}

// Frames returns a copy of every frame received, rejected ones included.
func (p *Printer) Frames() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	frames := make([][]byte, len(p.frames))
	for i, f := range p.frames {
		frames[i] = bytes.Clone(f)
	}
	return frames
}

// Stored returns the commands written to an SD file.
func (p *Printer) Stored(name string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.stored[name]...)
}

// LastLine is the last accepted line number.
func (p *Printer) LastLine() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Printer) wake() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// emit queues one line. Callers hold mu.
func (p *Printer) emit(line string) {
	p.log.Debug("reply", "line", line)
	p.out = append(p.out, line...)
	p.out = append(p.out, '\n')
	p.wake()
}

func (p *Printer) ack() {
	p.out = append(p.out, ACK)
	p.wake()
}

// receive splits inbound bytes into frames. Callers hold mu.
func (p *Printer) receive(b []byte) {
	p.in = append(p.in, b...)
	for len(p.in) > 0 {
		var frame []byte
		if gcode.IsPacked(p.in) {
			n, err := gcode.PackedLen(p.in)
			if err != nil || len(p.in) < n {
				return
			}
			frame, p.in = p.in[:n], p.in[n:]
		} else {
			i := bytes.IndexByte(p.in, '\n')
			if i < 0 {
				return
			}
			frame, p.in = p.in[:i+1], p.in[i+1:]
		}
		p.frames = append(p.frames, bytes.Clone(frame))
		p.execute(frame)
		if p.conn == nil || p.conn.dead {
			return
		}
	}
}

func (p *Printer) execute(frame []byte) {
	seq, text, err := decode(frame)
	if err == nil && p.corrupt[seq] {
		delete(p.corrupt, seq)
		err = gcode.ErrChecksum
	}
	if err != nil {
		p.log.Debug("rejected frame", "error", err)
		p.emit(fmt.Sprintf("Error:checksum mismatch, Last Line: %d", p.last))
		return
	}
	p.log.Debug("frame", "seq", seq, "command", text)

	fields := strings.Fields(text)
	mnemonic := fields[0]

	if mnemonic == gcode.ResetMnemonic {
		p.last = seq
		p.ack()
		p.emit("ok")
		return
	}
	if seq != p.last+1 {
		p.emit(fmt.Sprintf("Error:Line Number is not Last Line Number+1, Last Line: %d", p.last))
		return
	}

	p.last = seq
	p.accepted++
	p.ack()

	switch {
	case p.writing && mnemonic != "M29":
		p.stored[p.current] = append(p.stored[p.current], text)
	case mnemonic == "M28":
		p.writing = true
		p.current = arg(fields)
		p.stored[p.current] = nil
		p.emit("Writing to file: " + p.current)
		p.emit("ok")
	case mnemonic == "M29":
		p.writing = false
		p.emit("Done saving file.")
		if p.selected != "" && p.selected == p.current {
			p.emit("echo:Now fresh file: " + p.current)
			p.emit(`echo:enqueing "M84"`)
		}
	case mnemonic == "M623":
		p.selected = arg(fields)
		p.emit("ok")
	default:
		p.emit("ok")
	}

	for _, line := range p.replies[seq] {
		p.emit(line)
	}
	if p.dropAfter > 0 && p.accepted == p.dropAfter {
		p.log.Debug("dropping connection", "accepted", p.accepted)
		p.conn.dead = true
	}
}

func decode(frame []byte) (uint32, string, error) {
	if gcode.IsPacked(frame) {
		pk, err := gcode.DecodePacked(frame)
		if err != nil {
			return 0, "", err
		}
		return pk.Seq, pk.Command(), nil
	}
	seq, cmd, err := gcode.ParseLegacy(frame)
	if err != nil {
		return 0, "", err
	}
	if strings.TrimSpace(cmd) == "" {
		return 0, "", gcode.ErrMalformedLine
	}
	return seq, cmd, nil
}

func arg(fields []string) string {
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// Conn is one host connection. It satisfies the session transport: Read
// returns 0 bytes and no error when nothing is buffered.
type Conn struct {
	p      *Printer
	dead   bool
	closed bool
}

func (c *Conn) check() error {
	if c.closed {
		return ErrClosed
	}
	if c.dead {
		return ErrDisconnected
	}
	return nil
}

func (c *Conn) Read(b []byte) (int, error) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	if err := c.check(); err != nil {
		return 0, err
	}
	n := copy(b, c.p.out)
	c.p.out = c.p.out[n:]
	return n, nil
}

func (c *Conn) Write(b []byte) (int, error) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	if err := c.check(); err != nil {
		return 0, err
	}
	c.p.receive(b)
	return len(b), nil
}

// Poll waits until output is buffered or timeout passes.
func (c *Conn) Poll(timeout time.Duration) (bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		c.p.mu.Lock()
		err := c.check()
		ready := len(c.p.out) > 0
		c.p.mu.Unlock()

		if err != nil {
			return false, err
		}
		if ready {
			return true, nil
		}
		select {
		case <-c.p.notify:
		case <-timer.C:
			return false, nil
		}
	}
}

func (c *Conn) Close() error {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	return nil
}
