/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/allbin/go-ultiprint/logger"
	"github.com/allbin/go-ultiprint/printer"
)

var printFlags runFlags

// printCmd represents the print command
var printCmd = &cobra.Command{
	Use:   "print <file.gcode>",
	Short: "Store a G-code file on the SD card and print it",
	Long: `Upload a G-code file to the printer's SD card as usb.g and start it.

Moves are sent in the packed binary encoding, everything else as numbered
text lines. The command returns when the firmware queues the final M84 of
the job, which can be long after the upload finished.

Examples:
  ultiprint print part.gcode
  ultiprint print part.gcode --tui
  ultiprint print part.gcode --simulate`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFile(cmd, printer.ModePrint, args[0], printFlags)
	},
}

func init() {
	rootCmd.AddCommand(printCmd)
	addRunFlags(printCmd, &printFlags)
}

// runFile loads path for mode and runs it.
func runFile(cmd *cobra.Command, mode printer.Mode, path string, flags runFlags) error {
	// loaded here too so the program is read with the configured logger
	loadConfig()

	prog, err := loadProgram(path, mode, logger.GetLogger())
	if err != nil {
		return err
	}
	return runSession(cmd, mode, prog, flags)
}
