package printer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/allbin/go-ultiprint/logger"
	"github.com/allbin/go-ultiprint/serial"
)

// DefaultReconnectBackoff is waited after a failed reconnect attempt.
const DefaultReconnectBackoff = 2 * time.Second

// SerialConnector opens a printer on a serial device and finds it again by
// USB identity after re-enumeration.
type SerialConnector struct {
	Path        string
	PortOptions []serial.Option
	Locator     *serial.Locator
	Backoff     time.Duration
	Logger      logger.Logger

	mu       sync.Mutex
	port     serial.Port
	identity serial.Identity
}

var _ Connector = (*SerialConnector)(nil)

// NewSerialConnector returns a connector for path using the platform
// enumerator.
func NewSerialConnector(path string, opts ...serial.Option) *SerialConnector {
	return &SerialConnector{
		Path:        path,
		PortOptions: opts,
		Locator:     serial.NewLocator(),
		Backoff:     DefaultReconnectBackoff,
		Logger:      logger.GetLogger(),
	}
}

// Open opens the configured path and records the device identity. A device
// without USB metadata opens fine but cannot be found again later.
func (c *SerialConnector) Open(ctx context.Context) (Transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	port, err := serial.Open(c.Path, c.PortOptions...)
	if err != nil {
		return nil, err
	}
	c.port = port

	id, err := c.Locator.Identify(c.Path)
	if err != nil {
		c.Logger.Warn("device identity unavailable, reconnect disabled", "path", c.Path, "error", err)
	} else {
		c.identity = id
		c.Logger.Info("device identified", "path", c.Path, "identity", id.String())
	}
	return port, nil
}

// Identity returns the identity captured by Open.
func (c *SerialConnector) Identity() serial.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.identity
}

// Reconnect closes the old port, looks the device up by identity and opens
// it at its current path. On failure it waits Backoff before returning so
// callers can retry in a plain loop.
func (c *SerialConnector) Reconnect(ctx context.Context) (Transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port != nil {
		if err := c.port.Close(); err != nil && !errors.Is(err, serial.ErrPortClosed) {
			c.Logger.Debug("closing dead port", "error", err)
		}
		c.port = nil
	}

	path, err := c.Locator.Find(c.identity)
	if err == nil {
		var port serial.Port
		port, err = serial.Open(path, c.PortOptions...)
		if err == nil {
			if ferr := port.FlushInput(); ferr != nil {
				c.Logger.Debug("flushing stale input", "error", ferr)
			}
			c.Logger.Info("reconnected", "path", path, "previous", c.Path)
			c.port = port
			c.Path = path
			return port, nil
		}
	}

	c.Logger.Warn("reconnect failed", "identity", c.identity.String(), "error", err)
	select {
	case <-time.After(c.Backoff):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return nil, fmt.Errorf("%w: %w", ErrReconnectFailed, err)
}
