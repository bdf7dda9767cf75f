package printer

import (
	"errors"
	"fmt"
)

var (
	// ErrChannelDead means too many consecutive I/O errors; the device is
	// probably gone and a reconnect is needed.
	ErrChannelDead = errors.New("printer: channel dead")
	// ErrNoData means the transport reported input but a read returned
	// nothing, which is what a vanished device looks like.
	ErrNoData = errors.New("printer: device ready but returned no data")
	// ErrReconnectFailed means the device could not be found or reopened.
	ErrReconnectFailed = errors.New("printer: reconnect failed")
	// ErrFirmwareFatal is reported after an unrecoverable firmware error
	// and the reset sequence that followed it.
	ErrFirmwareFatal = errors.New("printer: fatal firmware error")
	// ErrNotOpen is returned when the session has no transport.
	ErrNotOpen = errors.New("printer: session not open")
	// ErrInvalidConfig is returned for out-of-range options.
	ErrInvalidConfig = errors.New("printer: invalid configuration")
)

// FirmwareError carries the firmware line that ended the operation.
type FirmwareError struct {
	Line string
	// Reset is non-nil when the reset sequence itself failed.
	Reset error
}

func (e *FirmwareError) Error() string {
	if e.Reset != nil {
		return fmt.Sprintf("%v: %q (reset failed: %v)", ErrFirmwareFatal, e.Line, e.Reset)
	}
	return fmt.Sprintf("%v: %q", ErrFirmwareFatal, e.Line)
}

func (e *FirmwareError) Unwrap() error {
	return ErrFirmwareFatal
}
