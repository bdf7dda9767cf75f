/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/allbin/go-ultiprint/printer"
)

var storeFlags runFlags

// storeCmd represents the store command
var storeCmd = &cobra.Command{
	Use:   "store <file.gcode>",
	Short: "Store a G-code file on the SD card",
	Long: `Upload a G-code file to the printer's SD card as usb.g without starting
it. The command returns when the firmware has closed the file.

Examples:
  ultiprint store part.gcode
  ultiprint store part.gcode -d /dev/ttyACM1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFile(cmd, printer.ModeStore, args[0], storeFlags)
	},
}

func init() {
	rootCmd.AddCommand(storeCmd)
	addRunFlags(storeCmd, &storeFlags)
}
