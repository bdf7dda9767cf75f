package gcode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PackedType is the leading byte of a packed frame.
type PackedType byte

const (
	TypeRapidMove  PackedType = 1 // G0
	TypeLinearMove PackedType = 2 // G1
	TypeRetract    PackedType = 3 // G10
	TypeUnretract  PackedType = 4 // G11
)

// packedTypes is the whitelist of mnemonics the firmware accepts in packed
// form. Everything else goes out as a legacy text line.
var packedTypes = map[string]PackedType{
	"G0":  TypeRapidMove,
	"G1":  TypeLinearMove,
	"G10": TypeRetract,
	"G11": TypeUnretract,
}

func (t PackedType) String() string {
	switch t {
	case TypeRapidMove:
		return "G0"
	case TypeLinearMove:
		return "G1"
	case TypeRetract:
		return "G10"
	case TypeUnretract:
		return "G11"
	default:
		return "G?"
	}
}

func (t PackedType) isMove() bool {
	return t == TypeRapidMove || t == TypeLinearMove
}

// Presence mask bits.
const (
	MaskF        byte = 1 << 7
	MaskX        byte = 1 << 6
	MaskY        byte = 1 << 5
	MaskZ        byte = 1 << 4
	MaskE        byte = 1 << 3
	MaskShortSeq byte = 1 << 2
)

// MaxTokens is the most whitespace-separated tokens a packed move may have.
const MaxTokens = 6

// shortSeqLimit is the first sequence number needing a 4-byte field.
const shortSeqLimit = 1 << 16

// axes lists the float parameters in wire order.
var axes = [...]struct {
	letter byte
	bit    byte
}{
	{'X', MaskX},
	{'Y', MaskY},
	{'Z', MaskZ},
	{'E', MaskE},
}

// Encode turns cmd into the frame the firmware expects at sequence seq.
// Whitelisted moves and retractions are packed; anything else becomes a
// checksummed text line.
func Encode(cmd Command, seq uint32) (Frame, error) {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return Frame{}, encodeError(cmd, seq, ErrEmptyCommand)
	}

	if fields := strings.Fields(stripComment(text)); len(fields) > 0 {
		if typ, ok := packedTypes[fields[0]]; ok {
			data, err := encodePacked(typ, cmd.Params(), seq)
			if err != nil {
				return Frame{}, encodeError(cmd, seq, err)
			}
			return Frame{Data: data, Seq: seq, Packed: true, LegacyLen: legacyLen(text, seq)}, nil
		}
	}

	data := encodeLegacy(text, seq)
	return Frame{Data: data, Seq: seq, LegacyLen: len(data)}, nil
}

func encodeError(cmd Command, seq uint32, err error) error {
	return &EncodeError{Seq: seq, Line: cmd.Line, Command: cmd.Text, Err: err}
}

// stripComment drops a trailing ";..." comment. A whole-line comment
// yields an empty string and so never matches the whitelist.
func stripComment(text string) string {
	if i := strings.IndexByte(text, ';'); i >= 0 {
		return text[:i]
	}
	return text
}

func encodePacked(typ PackedType, params []string, seq uint32) ([]byte, error) {
	var mask byte
	var feed uint16
	var values [len(axes)]float32

	if typ.isMove() {
		if len(params)+1 > MaxTokens {
			return nil, ErrTooManyTokens
		}
		for _, p := range params {
			bit, err := parseParam(p, &feed, &values)
			if err != nil {
				return nil, err
			}
			if mask&bit != 0 {
				return nil, fmt.Errorf("%w %s", ErrDuplicateParameter, p[:1])
			}
			mask |= bit
		}
	} else if len(params) > 0 {
		return nil, ErrUnexpectedParameter
	}

	if seq < shortSeqLimit {
		mask |= MaskShortSeq
	}

	buf := make([]byte, 0, 2+2+4*len(axes)+4+2)
	buf = append(buf, byte(typ), mask)
	if mask&MaskF != 0 {
		buf = binary.LittleEndian.AppendUint16(buf, feed)
	}
	for i, ax := range axes {
		if mask&ax.bit != 0 {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(values[i]))
		}
	}
	if mask&MaskShortSeq != 0 {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(seq))
	} else {
		buf = binary.LittleEndian.AppendUint32(buf, seq)
	}
	buf = append(buf, Checksum(buf))
	return append(buf, '\n'), nil
}

// parseParam decodes one F/X/Y/Z/E token and returns its mask bit.
func parseParam(tok string, feed *uint16, values *[len(axes)]float32) (byte, error) {
	letter, value := tok[0], tok[1:]

	if letter == 'F' {
		f, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			var numErr *strconv.NumError
			if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
				return 0, ErrFeedrateRange
			}
			return 0, fmt.Errorf("%w: %s", ErrMalformedParameter, tok)
		}
		if f <= 0 || f >= 1<<16 {
			return 0, ErrFeedrateRange
		}
		*feed = uint16(f)
		return MaskF, nil
	}

	for i, ax := range axes {
		if letter != ax.letter {
			continue
		}
		v, err := strconv.ParseFloat(value, 32)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%w: %s", ErrMalformedParameter, tok)
		}
		values[i] = float32(v)
		return ax.bit, nil
	}
	return 0, fmt.Errorf("%w %s", ErrUnsupportedParameter, tok)
}

// Checksum is the XOR of all bytes in b.
func Checksum(b []byte) byte {
	var c byte
	for _, x := range b {
		c ^= x
	}
	return c
}

func legacyPrefix(text string, seq uint32) string {
	return "N" + strconv.FormatUint(uint64(seq), 10) + " " + text
}

func encodeLegacy(text string, seq uint32) []byte {
	prefix := legacyPrefix(text, seq)
	line := make([]byte, 0, len(prefix)+6)
	line = append(line, prefix...)
	line = append(line, '*')
	line = strconv.AppendUint(line, uint64(Checksum([]byte(prefix))), 10)
	return append(line, '\n')
}

func legacyLen(text string, seq uint32) int {
	prefix := legacyPrefix(text, seq)
	chk := strconv.FormatUint(uint64(Checksum([]byte(prefix))), 10)
	return len(prefix) + 1 + len(chk) + 1
}
