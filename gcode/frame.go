package gcode

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Frame is one encoded command, newline included. Frames are not modified
// after Encode returns them.
type Frame struct {
	Data   []byte
	Seq    uint32
	Packed bool

	// LegacyLen is what the frame would cost as a text line; it is the
	// baseline for compression statistics.
	LegacyLen int
}

// IsPacked reports whether b starts with a packed type code. Text frames
// always start with 'N', packed type codes are all below '\n'.
func IsPacked(b []byte) bool {
	return len(b) > 0 && b[0] < '\n'
}

// String renders packed frames as hex and text frames verbatim, without
// the trailing newline.
func (f Frame) String() string {
	if IsPacked(f.Data) {
		return hex.EncodeToString(f.Data)
	}
	return strings.TrimSuffix(string(f.Data), "\n")
}

// Packed is the decoded content of a packed frame.
type Packed struct {
	Type PackedType
	Mask byte
	Seq  uint32

	F          uint16
	X, Y, Z, E float32
}

// Has reports whether the parameter bit is present.
func (p Packed) Has(bit byte) bool {
	return p.Mask&bit != 0
}

// Command reconstructs a textual command from the decoded fields.
func (p Packed) Command() string {
	var b strings.Builder
	b.WriteString(p.Type.String())
	if p.Has(MaskF) {
		fmt.Fprintf(&b, " F%d", p.F)
	}
	for i, v := range []float32{p.X, p.Y, p.Z, p.E} {
		if p.Has(axes[i].bit) {
			b.WriteByte(' ')
			b.WriteByte(axes[i].letter)
			b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
		}
	}
	return b.String()
}

// PackedLen returns the full length of the packed frame starting at b,
// newline included, as derived from its presence mask.
func PackedLen(b []byte) (int, error) {
	if !IsPacked(b) {
		return 0, ErrNotPacked
	}
	if len(b) < 2 {
		return 0, ErrShortFrame
	}
	mask := b[1]
	n := 2
	if mask&MaskF != 0 {
		n += 2
	}
	for _, ax := range axes {
		if mask&ax.bit != 0 {
			n += 4
		}
	}
	if mask&MaskShortSeq != 0 {
		n += 2
	} else {
		n += 4
	}
	return n + 2, nil
}

// DecodePacked verifies and decodes a packed frame. A trailing newline is
// accepted but not required.
func DecodePacked(b []byte) (Packed, error) {
	n, err := PackedLen(b)
	if err != nil {
		return Packed{}, err
	}
	if len(b) < n-1 {
		return Packed{}, ErrShortFrame
	}

	p := Packed{Type: PackedType(b[0]), Mask: b[1]}
	if _, ok := packedTypes[p.Type.String()]; !ok {
		return Packed{}, fmt.Errorf("%w: %d", ErrUnknownType, b[0])
	}

	body := b[:n-2]
	if got, want := Checksum(body), b[n-2]; got != want {
		return Packed{}, fmt.Errorf("%w: computed %#02x, frame has %#02x", ErrChecksum, got, want)
	}

	off := 2
	if p.Has(MaskF) {
		p.F = binary.LittleEndian.Uint16(body[off:])
		off += 2
	}
	dst := []*float32{&p.X, &p.Y, &p.Z, &p.E}
	for i, ax := range axes {
		if p.Has(ax.bit) {
			*dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[off:]))
			off += 4
		}
	}
	if p.Has(MaskShortSeq) {
		p.Seq = uint32(binary.LittleEndian.Uint16(body[off:]))
	} else {
		p.Seq = binary.LittleEndian.Uint32(body[off:])
	}
	return p, nil
}

// ParseLegacy splits a text frame "N<seq> <cmd>*<chk>" and verifies its
// checksum.
func ParseLegacy(line []byte) (seq uint32, cmd string, err error) {
	s := strings.TrimRight(string(line), "\r\n")
	star := strings.LastIndexByte(s, '*')
	if !strings.HasPrefix(s, "N") || star < 0 {
		return 0, "", ErrMalformedLine
	}
	prefix := s[:star]
	chk, err := strconv.ParseUint(s[star+1:], 10, 8)
	if err != nil {
		return 0, "", ErrMalformedLine
	}
	if got := Checksum([]byte(prefix)); got != byte(chk) {
		return 0, "", fmt.Errorf("%w: computed %d, frame has %d", ErrChecksum, got, chk)
	}

	num, rest, ok := strings.Cut(prefix[1:], " ")
	if !ok {
		return 0, "", ErrMalformedLine
	}
	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, "", ErrMalformedLine
	}
	return uint32(n), rest, nil
}
