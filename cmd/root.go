/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/go-ultiprint/internal/config"
	"github.com/allbin/go-ultiprint/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ultiprint",
	Short: "Print on an Ultimaker 2 over USB",
	Long: `ultiprint streams G-code to an Ultimaker 2 over its USB serial port.

The file is stored on the SD card as USB.G with the packed move encoding the
USB-print firmware understands, then optionally started. Lost lines are
resent, and a printer that drops off the bus is found again by its USB
serial number.

Examples:
  ultiprint print part.gcode
  ultiprint store part.gcode -d /dev/ttyACM1
  ultiprint monitor
  ultiprint preprocess part.gcode --dump
  ultiprint print part.gcode --simulate --tui`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ultiprint.yaml)")
	pf.StringP("device", "d", config.DefaultDevice, "Printer serial device")
	pf.IntP("baud", "b", 115200, "Baud rate")
	pf.Bool("simulate", false, "Talk to a simulated printer instead of a device")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "auto", "Log format: json, console, auto")
	pf.Bool("no-color", false, "Disable colored console logs")

	bind := map[string]string{
		"device":       "device",
		"baud":         "baud",
		"simulate":     "simulate",
		"log.level":    "log-level",
		"log.format":   "log-format",
		"log.no_color": "no-color",
	}
	for key, flag := range bind {
		cobra.CheckErr(viper.BindPFlag(key, pf.Lookup(flag)))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ultiprint")
	}

	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged configuration and installs its logger as
// the package default.
func loadConfig() (config.Config, logger.Logger) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	return cfg, log
}
