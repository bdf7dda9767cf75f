// Package config merges the config file, ULTIPRINT_* environment variables
// and command line flags into the settings the commands run with.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/allbin/go-ultiprint/logger"
	"github.com/allbin/go-ultiprint/printer"
	"github.com/allbin/go-ultiprint/serial"
)

// EnvPrefix prefixes environment overrides, e.g. ULTIPRINT_DEVICE.
const EnvPrefix = "ULTIPRINT"

// DefaultDevice is where a UM2 shows up on Linux.
const DefaultDevice = "/dev/ttyACM0"

var ErrInvalid = errors.New("invalid configuration")

// Config is the decoded configuration.
type Config struct {
	Device      string        `mapstructure:"device"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	Simulate    bool          `mapstructure:"simulate"`

	Log     Log     `mapstructure:"log"`
	Session Session `mapstructure:"session"`
}

// Log selects the logger.
type Log struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// Session holds the session timings.
type Session struct {
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	ResendPause      time.Duration `mapstructure:"resend_pause"`
	FatalDrain       time.Duration `mapstructure:"fatal_drain"`
	PostMonitor      time.Duration `mapstructure:"post_monitor"`
	ResetDrain       time.Duration `mapstructure:"reset_drain"`
	ResetSettle      time.Duration `mapstructure:"reset_settle"`
	MaxIOErrors      int           `mapstructure:"max_io_errors"`
	IOErrorBackoff   time.Duration `mapstructure:"io_error_backoff"`
	ReconnectBackoff time.Duration `mapstructure:"reconnect_backoff"`
	ProgressEvery    int           `mapstructure:"progress_every"`
	StartupReply     string        `mapstructure:"startup_reply"`
}

// SetDefaults registers every key, so environment variables are honoured
// even for keys without a flag.
func SetDefaults(v *viper.Viper) {
	sc := printer.DefaultConfig()

	v.SetDefault("device", DefaultDevice)
	v.SetDefault("baud", serial.DefaultConfig().BaudRate)
	v.SetDefault("read_timeout", serial.DefaultConfig().ReadTimeout)
	v.SetDefault("simulate", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", string(logger.FormatAuto))
	v.SetDefault("log.no_color", false)

	v.SetDefault("session.poll_interval", sc.PollInterval)
	v.SetDefault("session.resend_pause", sc.ResendPause)
	v.SetDefault("session.fatal_drain", sc.FatalDrain)
	v.SetDefault("session.post_monitor", sc.PostMonitor)
	v.SetDefault("session.reset_drain", sc.ResetDrain)
	v.SetDefault("session.reset_settle", sc.ResetSettle)
	v.SetDefault("session.max_io_errors", sc.MaxIOErrors)
	v.SetDefault("session.io_error_backoff", sc.IOErrorBackoff)
	v.SetDefault("session.reconnect_backoff", printer.DefaultReconnectBackoff)
	v.SetDefault("session.progress_every", sc.ProgressEvery)
	v.SetDefault("session.startup_reply", sc.StartupReply)
}

// BindEnv makes ULTIPRINT_SESSION_POLL_INTERVAL override session.poll_interval.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks what the option constructors would reject later, so the
// user gets one message naming the key.
func (c Config) Validate() error {
	if c.Device == "" && !c.Simulate {
		return fmt.Errorf("%w: device is empty", ErrInvalid)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	switch logger.Format(c.Log.Format) {
	case logger.FormatJSON, logger.FormatConsole, logger.FormatAuto:
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	if err := serial.WithBaudRate(c.Baud)(&serial.Config{}); err != nil {
		return fmt.Errorf("%w: baud: %v", ErrInvalid, err)
	}
	if err := serial.WithReadTimeout(c.ReadTimeout)(&serial.Config{}); err != nil {
		return fmt.Errorf("%w: read_timeout must be a multiple of 100ms up to %v", ErrInvalid, serial.MaxReadTimeout)
	}
	if c.Session.ReconnectBackoff < 0 {
		return fmt.Errorf("%w: session.reconnect_backoff is negative", ErrInvalid)
	}

	sc := printer.DefaultConfig()
	for _, opt := range c.sessionOptions() {
		if err := opt(&sc); err != nil {
			return fmt.Errorf("%w: session: %v", ErrInvalid, err)
		}
	}
	return nil
}

// NewLogger builds the logger described by the log section.
func (c Config) NewLogger() (logger.Logger, error) {
	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return logger.New(logger.Options{
		Level:   level,
		Format:  logger.Format(c.Log.Format),
		NoColor: c.Log.NoColor,
	}), nil
}

// SerialOptions configures the port for the printer.
func (c Config) SerialOptions() []serial.Option {
	return []serial.Option{
		serial.WithBaudRate(c.Baud),
		serial.WithReadTimeout(c.ReadTimeout),
		serial.WithExclusive(),
	}
}

// SessionOptions configures a session; log and n are added last.
func (c Config) SessionOptions(log logger.Logger, n printer.Notifier) []printer.Option {
	opts := c.sessionOptions()
	if log != nil {
		opts = append(opts, printer.WithLogger(log))
	}
	if n != nil {
		opts = append(opts, printer.WithNotifier(n))
	}
	return opts
}

func (c Config) sessionOptions() []printer.Option {
	s := c.Session
	return []printer.Option{
		printer.WithPollInterval(s.PollInterval),
		printer.WithResendPause(s.ResendPause),
		printer.WithFatalDrain(s.FatalDrain),
		printer.WithPostMonitor(s.PostMonitor),
		printer.WithResetTimings(s.ResetDrain, s.ResetSettle),
		printer.WithMaxIOErrors(s.MaxIOErrors, s.IOErrorBackoff),
		printer.WithProgressEvery(s.ProgressEvery),
		printer.WithStartupReply(s.StartupReply),
	}
}
