package printer

import (
	"context"
	"io"
	"time"
)

// Transport is the byte channel to the firmware. Read follows the serial
// byte-timeout contract: 0 bytes with a nil error means nothing arrived in
// time. serial.Port satisfies it.
type Transport interface {
	io.ReadWriteCloser
	Poll(timeout time.Duration) (bool, error)
}

// Connector opens transports. Reconnect is called after the channel was
// declared dead and must find the same physical device again.
type Connector interface {
	Open(ctx context.Context) (Transport, error)
	Reconnect(ctx context.Context) (Transport, error)
}

// ConnectorFuncs adapts a pair of functions to Connector. A nil
// ReconnectFunc reuses OpenFunc.
type ConnectorFuncs struct {
	OpenFunc      func(ctx context.Context) (Transport, error)
	ReconnectFunc func(ctx context.Context) (Transport, error)
}

func (c ConnectorFuncs) Open(ctx context.Context) (Transport, error) {
	return c.OpenFunc(ctx)
}

func (c ConnectorFuncs) Reconnect(ctx context.Context) (Transport, error) {
	if c.ReconnectFunc == nil {
		return c.OpenFunc(ctx)
	}
	return c.ReconnectFunc(ctx)
}
