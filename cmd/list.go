/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allbin/go-ultiprint/internal/tui/components"
	"github.com/allbin/go-ultiprint/serial"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List serial ports a printer could be on",
	Long: `List the serial ports on the system. An Ultimaker 2 shows up as a USB
CDC/ACM device (ttyACM*).

The table view includes the USB vendor:product ID and serial number, which
is what ultiprint uses to find the printer again after it re-enumerates.

Examples:
  ultiprint list
  ultiprint list --filter usb --table`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ports, err := serial.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}

		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		infos := filterPorts(describePorts(ports), filterType)
		if len(infos) == 0 {
			if filterType != "" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial ports found")
			}
			return
		}

		if tableFormat {
			fmt.Printf("Found %d serial port(s):\n\n", len(infos))
			fmt.Println(components.PortTable(infos))
			return
		}
		for _, info := range infos {
			fmt.Println(info.Path)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// describePorts looks up each port; ports without sysfs info are listed
// by path only.
func describePorts(ports []string) []*serial.PortInfo {
	infos := make([]*serial.PortInfo, 0, len(ports))
	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			info = &serial.PortInfo{Path: port, Name: port, Description: fmt.Sprintf("Error: %v", err)}
		}
		infos = append(infos, info)
	}
	return infos
}

// filterPorts keeps the ports of filterType.
func filterPorts(infos []*serial.PortInfo, filterType string) []*serial.PortInfo {
	if filterType == "" || filterType == "all" {
		return infos
	}

	var filtered []*serial.PortInfo
	for _, info := range infos {
		name := strings.ToLower(info.Name)
		var keep bool
		switch strings.ToLower(filterType) {
		case "usb":
			keep = info.IsUSB() || strings.HasPrefix(name, "ttyusb") || strings.HasPrefix(name, "ttyacm")
		case "standard":
			keep = strings.HasPrefix(name, "ttys")
		case "arm":
			keep = strings.HasPrefix(name, "ttyama")
		}
		if keep {
			filtered = append(filtered, info)
		}
	}
	return filtered
}
