// Package serial is the printer-side transport: raw termios serial ports
// with poll-based readiness, plus USB identity capture so a printer can be
// found again after the host re-enumerates it.
//
// # Opening a printer
//
//	port, err := serial.Open("/dev/ttyACM0",
//	    serial.WithBaudRate(115200),
//	    serial.WithReadTimeout(100*time.Millisecond),
//	)
//	if err != nil {
//	    return err
//	}
//	defer port.Close()
//
// Reads follow VMIN=0/VTIME semantics: a Read that returns 0 bytes and a
// nil error means the byte timeout elapsed. Poll waits for readability and
// returns ErrHangup once the device is gone.
//
// # Finding the device again
//
//	loc := serial.NewLocator()
//	id, err := loc.Identify("/dev/ttyACM0")
//	...
//	path, err := loc.Find(id) // may now be /dev/ttyACM1
//
// Identities come from go.bug.st/serial/enumerator, with a sysfs walk of
// /sys/class/tty as fallback.
//
// # USB reset
//
// ResetUSBDevice uses the usbreset utility and needs root.
//
// # Default Configuration
//
//   - BaudRate: 115200
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - ReadTimeout: 100ms
package serial
