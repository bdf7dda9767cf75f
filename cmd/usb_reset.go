/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/allbin/go-ultiprint/serial"
)

// usbResetCmd represents the usb-reset command
var usbResetCmd = &cobra.Command{
	Use:   "usb-reset [port]",
	Short: "Power-cycle the printer's USB device",
	Long: `Perform a USB-level reset on the printer. A board that stopped answering
usually comes back after this without unplugging the cable.

The device re-enumerates after the reset, so its path may change (for
example /dev/ttyACM0 becomes /dev/ttyACM1). Use --serial to pick the
device by its USB serial number instead of its path.

Requirements:
- usbreset utility must be installed (from usbutils package)
- Root/sudo permissions required for USB operations

Examples:
  sudo ultiprint usb-reset                     # Reset the configured device
  sudo ultiprint usb-reset /dev/ttyACM1        # Reset by port path
  sudo ultiprint usb-reset --serial 5563931    # Reset by serial number`,
	Args: func(cmd *cobra.Command, args []string) error {
		serialFlag, _ := cmd.Flags().GetString("serial")
		if serialFlag != "" && len(args) > 0 {
			return errors.New("cannot specify both port path and --serial flag")
		}
		return cobra.MaximumNArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if !serial.IsUSBResetAvailable() {
			fmt.Fprintln(os.Stderr, "Error: usbreset utility not available")
			fmt.Fprintln(os.Stderr, "Install with: sudo apt-get install usbutils")
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		serialFlag, _ := cmd.Flags().GetString("serial")

		var err error
		if serialFlag != "" {
			fmt.Printf("Resetting USB device with serial: %s\n", serialFlag)
			l := serial.NewLocator()
			var id serial.Identity
			if id, err = identityBySerial(l, serialFlag); err == nil {
				err = serial.ResetUSBDeviceByIdentity(ctx, l, id)
			}
		} else {
			cfg, _ := loadConfig()
			portPath := cfg.Device
			if len(args) == 1 {
				portPath = args[0]
			}
			fmt.Printf("Resetting USB device: %s\n", portPath)
			err = serial.ResetUSBDevice(ctx, portPath)
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if errors.Is(err, serial.ErrUSBInfoNotAvailable) {
				fmt.Fprintln(os.Stderr, "This device does not appear to be a USB device")
			}
			os.Exit(1)
		}

		fmt.Println("USB device reset successfully")
		fmt.Println("Device will re-enumerate (port path may change)")
		fmt.Println("\nUse 'ultiprint list --table' to see updated device list")
	},
}

func init() {
	rootCmd.AddCommand(usbResetCmd)

	usbResetCmd.Flags().StringP("serial", "s", "", "Reset device by USB serial number")
}

// identityBySerial completes a bare serial number into a full identity.
func identityBySerial(l *serial.Locator, serialNumber string) (serial.Identity, error) {
	ports, err := l.Ports()
	if err != nil {
		return serial.Identity{}, err
	}
	for _, p := range ports {
		if p.IsUSB && p.Identity.SerialNumber == serialNumber {
			return p.Identity, nil
		}
	}
	return serial.Identity{}, fmt.Errorf("%w: serial %s", serial.ErrIdentityNotFound, serialNumber)
}
