package serial

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// pipePort wraps the read end of a pipe so Poll/Read can be exercised
// without hardware. The write end is returned for feeding data.
func pipePort(t *testing.T) (*port, int) {
	t.Helper()
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() { unix.Close(fds[1]) })
	p := &port{fd: fds[0], path: "pipe", config: DefaultConfig()}
	t.Cleanup(func() { p.Close() })
	return p, fds[1]
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("/dev/ttyUSB_does_not_exist")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}

	_, err = Open("/dev/null", WithBaudRate(12345))
	if !errors.Is(err, ErrInvalidBaudRate) {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}

	// /dev/null is not a tty, termios must fail
	if _, err = Open("/dev/null"); err == nil {
		t.Error("Expected termios error for /dev/null")
	}
}

func TestPollAndRead(t *testing.T) {
	p, w := pipePort(t)

	ready, err := p.Poll(10 * time.Millisecond)
	if err != nil || ready {
		t.Fatalf("Poll on empty pipe = %v, %v", ready, err)
	}

	if _, err := unix.Write(w, []byte("ok\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	ready, err = p.Poll(100 * time.Millisecond)
	if err != nil || !ready {
		t.Fatalf("Poll after write = %v, %v", ready, err)
	}

	buf := make([]byte, 8)
	n, err := p.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "ok\n" {
		t.Errorf("Read = %q, want %q", buf[:n], "ok\n")
	}
}

func TestPollHangup(t *testing.T) {
	p, w := pipePort(t)
	unix.Close(w)

	_, err := p.Poll(100 * time.Millisecond)
	if !errors.Is(err, ErrHangup) {
		t.Errorf("Expected ErrHangup, got %v", err)
	}
}

func TestClosedPort(t *testing.T) {
	p, _ := pipePort(t)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := p.Close(); err != ErrPortClosed {
		t.Errorf("second Close = %v, want ErrPortClosed", err)
	}
	if _, err := p.Read(make([]byte, 1)); err != ErrPortClosed {
		t.Errorf("Read = %v, want ErrPortClosed", err)
	}
	if _, err := p.Write([]byte("M105\n")); err != ErrPortClosed {
		t.Errorf("Write = %v, want ErrPortClosed", err)
	}
	if _, err := p.Poll(time.Millisecond); err != ErrPortClosed {
		t.Errorf("Poll = %v, want ErrPortClosed", err)
	}
	if err := p.SetDTR(true); err != ErrPortClosed {
		t.Errorf("SetDTR = %v, want ErrPortClosed", err)
	}
	if _, err := p.GetModemSignals(); err != ErrPortClosed {
		t.Errorf("GetModemSignals = %v, want ErrPortClosed", err)
	}
	for name, fn := range map[string]func() error{
		"Drain":       p.Drain,
		"FlushInput":  p.FlushInput,
		"FlushOutput": p.FlushOutput,
	} {
		if err := fn(); err != ErrPortClosed {
			t.Errorf("%s = %v, want ErrPortClosed", name, err)
		}
	}
}

func TestDecodeModemStatus(t *testing.T) {
	got := decodeModemStatus(unix.TIOCM_CTS | unix.TIOCM_DTR)
	want := ModemSignals{CTS: true, DTR: true}
	if got != want {
		t.Errorf("decodeModemStatus = %+v, want %+v", got, want)
	}
	if decodeModemStatus(0) != (ModemSignals{}) {
		t.Error("decodeModemStatus(0) should be all false")
	}
}

func TestPortPath(t *testing.T) {
	p, _ := pipePort(t)
	if p.Path() != "pipe" {
		t.Errorf("Path() = %q", p.Path())
	}
}
