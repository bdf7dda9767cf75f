package serial

import "time"

// MaxReadTimeout is the longest byte timeout VTIME can express.
const MaxReadTimeout = 255 * 100 * time.Millisecond

// Config holds the configuration for a serial port
type Config struct {
	BaudRate int
	DataBits int
	StopBits int
	Parity   Parity

	// ReadTimeout bounds a single Read. It maps onto VTIME and must be a
	// multiple of 100ms. Zero makes reads non-blocking.
	ReadTimeout time.Duration

	// InitialDTR, when set, forces DTR right after opening. Many printer
	// controllers reboot on a DTR edge.
	InitialDTR *bool

	// Exclusive requests TIOCEXCL so no other process can open the device.
	Exclusive bool
}

// Option is a functional option for configuring a serial port
type Option func(*Config) error

// DefaultConfig returns 115200 8N1 with a 100ms byte timeout.
func DefaultConfig() Config {
	return Config{
		BaudRate:    115200,
		DataBits:    8,
		StopBits:    1,
		Parity:      ParityNone,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParityEven {
			return ErrInvalidConfig
		}
		c.Parity = parity
		return nil
	}
}

// WithReadTimeout sets the per-read byte timeout in 100ms steps, up to 25.5s.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 || timeout > MaxReadTimeout || timeout%(100*time.Millisecond) != 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithInitialDTR sets the DTR line state applied after open
func WithInitialDTR(state bool) Option {
	return func(c *Config) error {
		c.InitialDTR = &state
		return nil
	}
}

// WithExclusive locks the device against other openers
func WithExclusive() Option {
	return func(c *Config) error {
		c.Exclusive = true
		return nil
	}
}

func (c Config) vtime() uint8 {
	return uint8(c.ReadTimeout / (100 * time.Millisecond))
}
