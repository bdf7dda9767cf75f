/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/allbin/go-ultiprint/printer"
)

var monitorFlags runFlags

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:     "monitor",
	Aliases: []string{"mon"},
	Short:   "Watch printer output without sending anything",
	Long: `Open the printer and log everything it says. Nothing is sent.

Firmware errors are reported but do not stop the monitor. It ends once the
printer reports the end of a job and the post-monitor window has passed,
or when interrupted.

Examples:
  ultiprint monitor
  ultiprint mon -d /dev/ttyACM1 --tui`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := printer.BuildProgram(printer.ModeMonitor, nil)
		if err != nil {
			return err
		}
		return runSession(cmd, printer.ModeMonitor, prog, monitorFlags)
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	addRunFlags(monitorCmd, &monitorFlags)
}
