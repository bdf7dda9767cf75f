/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/allbin/go-ultiprint/logger"
	"github.com/allbin/go-ultiprint/printer"
	"github.com/allbin/go-ultiprint/serial"
)

var (
	resetFlags runFlags
	resetDTR   time.Duration
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Stop the printer and return it to a safe state",
	Long: `Send the reset sequence: close any open SD file, home the axes, release
the steppers and switch both heaters off.

With --dtr the DTR line is dropped for the given time first, which reboots
boards that reset on DTR.

Examples:
  ultiprint reset
  ultiprint reset --dtr 250ms`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := loadConfig()
		if resetDTR > 0 && !cfg.Simulate {
			if err := pulseDTR(cfg.Device, resetDTR, cfg.SerialOptions()...); err != nil {
				return err
			}
			log.Info("pulsed DTR", "device", cfg.Device, "low", resetDTR)
		}
		return runSession(cmd, printer.ModeReset, nil, resetFlags)
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	addRunFlags(resetCmd, &resetFlags)

	resetCmd.Flags().DurationVar(&resetDTR, "dtr", 0, "Hold DTR low this long before resetting")
}

// pulseDTR drops DTR for low and raises it again.
func pulseDTR(device string, low time.Duration, opts ...serial.Option) error {
	port, err := serial.Open(device, opts...)
	if err != nil {
		return fmt.Errorf("opening %s: %w", device, err)
	}
	defer port.Close()

	if err := port.Drain(); err != nil {
		return fmt.Errorf("draining output: %w", err)
	}
	if err := port.SetDTR(false); err != nil {
		return fmt.Errorf("setting DTR: %w", err)
	}
	time.Sleep(low)
	if err := port.SetDTR(true); err != nil {
		return fmt.Errorf("setting DTR: %w", err)
	}
	if err := port.FlushInput(); err != nil {
		return fmt.Errorf("flushing input: %w", err)
	}
	logger.Debug("DTR restored", "device", device)
	return nil
}
