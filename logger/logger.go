// Package logger is the structured logging facade used by every ultiprint
// package. Components receive a Logger and derive children with With, so
// frames, replies and session events carry their component and device.
//
// Log Levels:
//
//   - DebugLevel: transmitted frames and every firmware line.
//   - InfoLevel: session milestones, required replies, statistics.
//   - WarnLevel: resends, transient I/O errors, reconnects.
//   - ErrorLevel: fatal firmware errors, dead channels.
//   - FatalLevel: logs, then exits the process.
package logger

import (
	"fmt"
	"strings"
)

// Level indicates the logging severity level.
type Level = int8

const (
	DebugLevel Level = iota - 1
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	// Fatal logs at error severity and calls os.Exit(1).
	Fatal(msg string, keysAndValues ...any)
	// With creates a child logger carrying the given key-values.
	With(keyValues ...any) Logger
	Level() Level
	SetLevel(level Level)
}

// ParseLevel accepts debug, info, warn/warning, error and fatal.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}
