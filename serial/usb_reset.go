package serial

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// reenumerateDelay is how long a reset device typically takes to reappear.
var reenumerateDelay = 2 * time.Second

// ResetUSBDevice power-cycles the USB device behind portPath with the
// usbreset utility (usbutils) and waits for it to re-enumerate. Printer
// boards that stopped answering usually come back after this. Requires root.
func ResetUSBDevice(ctx context.Context, portPath string) error {
	info, err := GetPortInfo(portPath)
	if err != nil {
		return fmt.Errorf("failed to get port info: %w", err)
	}
	if info.BusNumber == "" || info.DeviceNumber == "" {
		return ErrUSBInfoNotAvailable
	}
	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	cmd := exec.CommandContext(ctx, "usbreset", usbPath(info.BusNumber, info.DeviceNumber))
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, string(output))
	}

	select {
	case <-time.After(reenumerateDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ResetUSBDeviceByIdentity resets whichever port currently carries id.
func ResetUSBDeviceByIdentity(ctx context.Context, l *Locator, id Identity) error {
	path, err := l.Find(id)
	if err != nil {
		return err
	}
	return ResetUSBDevice(ctx, path)
}

// usbPath formats bus and device numbers as the zero-padded BBB/DDD
// usbreset expects.
func usbPath(bus, device string) string {
	return fmt.Sprintf("%03s/%03s", bus, device)
}

// IsUSBResetAvailable checks if usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := exec.LookPath("usbreset")
	return err == nil
}
