package printer

import (
	"fmt"
	"time"

	"github.com/allbin/go-ultiprint/logger"
)

// DefaultStartupReply is printed by the firmware once the SD card is
// mounted; nothing is sent before it arrives.
const DefaultStartupReply = "echo:SD card ok"

// Config holds session timing and collaborators.
type Config struct {
	// PollInterval bounds each readiness wait.
	PollInterval time.Duration
	// ResendPause lets the firmware drain before a resend.
	ResendPause time.Duration
	// FatalDrain is how long firmware output is read after a fatal error,
	// before the reset sequence.
	FatalDrain time.Duration
	// PostMonitor is the observation window after an end token.
	PostMonitor time.Duration
	// ResetDrain follows each reset command, ResetSettle the whole sequence.
	ResetDrain  time.Duration
	ResetSettle time.Duration

	// MaxIOErrors consecutive read errors declare the channel dead.
	MaxIOErrors int
	// IOErrorBackoff is slept after each read error.
	IOErrorBackoff time.Duration

	// ProgressEvery emits a progress event every N sent commands.
	ProgressEvery int
	// StartupReply is awaited before the first command; empty disables it.
	StartupReply string

	Logger   logger.Logger
	Notifier Notifier
}

// Option is a functional option for configuring a session
type Option func(*Config) error

// DefaultConfig returns the timings the firmware is known to tolerate.
func DefaultConfig() Config {
	return Config{
		PollInterval:   100 * time.Millisecond,
		ResendPause:    500 * time.Millisecond,
		FatalDrain:     2 * time.Second,
		PostMonitor:    10 * time.Second,
		ResetDrain:     500 * time.Millisecond,
		ResetSettle:    5 * time.Second,
		MaxIOErrors:    50,
		IOErrorBackoff: 100 * time.Millisecond,
		ProgressEvery:  100,
		StartupReply:   DefaultStartupReply,
		Notifier:       NopNotifier{},
	}
}

func nonNegative(name string, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
	}
	return nil
}

// WithPollInterval sets the readiness wait.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
		}
		c.PollInterval = d
		return nil
	}
}

// WithResendPause sets the pause before a resend.
func WithResendPause(d time.Duration) Option {
	return func(c *Config) error {
		if err := nonNegative("resend pause", d); err != nil {
			return err
		}
		c.ResendPause = d
		return nil
	}
}

// WithFatalDrain sets the read window after a fatal firmware error.
func WithFatalDrain(d time.Duration) Option {
	return func(c *Config) error {
		if err := nonNegative("fatal drain", d); err != nil {
			return err
		}
		c.FatalDrain = d
		return nil
	}
}

// WithPostMonitor sets the observation window after completion.
func WithPostMonitor(d time.Duration) Option {
	return func(c *Config) error {
		if err := nonNegative("post monitor", d); err != nil {
			return err
		}
		c.PostMonitor = d
		return nil
	}
}

// WithResetTimings sets the per-command and final reset windows.
func WithResetTimings(drain, settle time.Duration) Option {
	return func(c *Config) error {
		if err := nonNegative("reset drain", drain); err != nil {
			return err
		}
		if err := nonNegative("reset settle", settle); err != nil {
			return err
		}
		c.ResetDrain, c.ResetSettle = drain, settle
		return nil
	}
}

// WithMaxIOErrors sets the channel-dead threshold and the sleep after each
// error.
func WithMaxIOErrors(n int, backoff time.Duration) Option {
	return func(c *Config) error {
		if n < 1 {
			return fmt.Errorf("%w: max I/O errors must be at least 1", ErrInvalidConfig)
		}
		if err := nonNegative("I/O error backoff", backoff); err != nil {
			return err
		}
		c.MaxIOErrors, c.IOErrorBackoff = n, backoff
		return nil
	}
}

// WithProgressEvery sets the progress notification interval.
func WithProgressEvery(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return fmt.Errorf("%w: progress interval must be at least 1", ErrInvalidConfig)
		}
		c.ProgressEvery = n
		return nil
	}
}

// WithStartupReply sets the line awaited before sending. Empty disables.
func WithStartupReply(prefix string) Option {
	return func(c *Config) error {
		c.StartupReply = prefix
		return nil
	}
}

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// WithNotifier sets the event receiver.
func WithNotifier(n Notifier) Option {
	return func(c *Config) error {
		if n == nil {
			n = NopNotifier{}
		}
		c.Notifier = n
		return nil
	}
}
