package gcode

import (
	"errors"
	"fmt"
)

// ErrEncoding is the root of every encoding failure. An encoding failure
// means the input file is defective; it is never retried.
var ErrEncoding = errors.New("gcode encoding error")

var (
	ErrUnsupportedParameter = fmt.Errorf("%w: unsupported parameter", ErrEncoding)
	ErrDuplicateParameter   = fmt.Errorf("%w: duplicate parameter", ErrEncoding)
	ErrMalformedParameter   = fmt.Errorf("%w: malformed parameter value", ErrEncoding)
	ErrFeedrateRange        = fmt.Errorf("%w: feedrate out of range", ErrEncoding)
	ErrTooManyTokens        = fmt.Errorf("%w: too many tokens", ErrEncoding)
	ErrUnexpectedParameter  = fmt.Errorf("%w: command takes no parameters", ErrEncoding)
	ErrEmptyCommand         = fmt.Errorf("%w: empty command", ErrEncoding)
)

// Frame decoding errors.
var (
	ErrNotPacked     = errors.New("frame is not packed")
	ErrShortFrame    = errors.New("frame truncated")
	ErrChecksum      = errors.New("frame checksum mismatch")
	ErrUnknownType   = errors.New("unknown packed command type")
	ErrMalformedLine = errors.New("malformed legacy frame")
)

// EncodeError reports which command failed to encode and at which
// sequence number.
type EncodeError struct {
	Seq     uint32
	Line    int
	Command string
	Err     error
}

func (e *EncodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d (N%d) %q: %v", e.Line, e.Seq, e.Command, e.Err)
	}
	return fmt.Sprintf("N%d %q: %v", e.Seq, e.Command, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
