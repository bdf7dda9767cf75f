/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/allbin/go-ultiprint/serial"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [port]",
	Short: "Show the USB identity and modem signals of a port",
	Long: `Show what ultiprint knows about a serial port: its USB metadata and the
identity used to find the printer again after a reconnect. Without an
argument the configured device is shown.

With --signals the port is opened and the modem control lines are read.

Examples:
  ultiprint info
  ultiprint info /dev/ttyACM0 --signals`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _ := loadConfig()
		portPath := cfg.Device
		if len(args) == 1 {
			portPath = args[0]
		}

		info, err := serial.GetPortInfo(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting port info: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Port: %s\n\n", info.Path)
		fmt.Printf("  Name:        %s\n", info.Name)
		fmt.Printf("  Description: %s\n", info.Description)

		if info.IsUSB() {
			fmt.Println("\nUSB:")
			field := func(label, value string) {
				if value != "" {
					fmt.Printf("  %-13s %s\n", label+":", value)
				}
			}
			field("Identity", info.Identity().String())
			field("Serial", info.SerialNumber)
			field("Manufacturer", info.Manufacturer)
			field("Product", info.Product)
			field("Interface", info.InterfaceNumber)
			if info.BusNumber != "" {
				field("Bus/Device", info.BusNumber+"/"+info.DeviceNumber)
			}
			if info.SerialNumber == "" {
				fmt.Println("\n  No serial number: the printer cannot be told apart from")
				fmt.Println("  identical boards when reconnecting.")
			}
		} else {
			fmt.Println("\n  No USB metadata: reconnecting after a drop-out is not possible.")
		}

		if showSignals, _ := cmd.Flags().GetBool("signals"); showSignals {
			if err := printSignals(info.Path, cfg.SerialOptions()...); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().Bool("signals", false, "Open the port and show modem signal states")
}

func printSignals(path string, opts ...serial.Option) error {
	port, err := serial.Open(path, opts...)
	if err != nil {
		return fmt.Errorf("opening port: %w", err)
	}
	defer port.Close()

	signals, err := port.GetModemSignals()
	if err != nil {
		return fmt.Errorf("reading modem signals: %w", err)
	}

	fmt.Println("\nModem signals:")
	fmt.Printf("  CTS (Clear To Send):       %s\n", formatSignalState(signals.CTS))
	fmt.Printf("  DSR (Data Set Ready):      %s\n", formatSignalState(signals.DSR))
	fmt.Printf("  DCD (Data Carrier Detect): %s\n", formatSignalState(signals.DCD))
	fmt.Printf("  RTS (Request To Send):     %s\n", formatSignalState(signals.RTS))
	fmt.Printf("  DTR (Data Terminal Ready): %s\n", formatSignalState(signals.DTR))
	return nil
}

func formatSignalState(state bool) string {
	if state {
		return "HIGH"
	}
	return "LOW"
}
