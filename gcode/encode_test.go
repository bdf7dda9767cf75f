package gcode

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_PackedMoveGolden(t *testing.T) {
	f, err := Encode(NewCommand("G1 F3000 X153.16 Y123.17 Z38.80 E459.21186", ""), 1)
	require.NoError(t, err)

	assert.True(t, f.Packed)
	assert.True(t, IsPacked(f.Data))
	assert.Equal(t, "02fcb80bf62819430a57f64233331b421e9be54301005b0a", hex.EncodeToString(f.Data))
	assert.Equal(t, byte(0b11111100), f.Data[1])
	assert.Equal(t, []byte{0x01, 0x00}, f.Data[len(f.Data)-4:len(f.Data)-2])
	assert.Equal(t, byte('\n'), f.Data[len(f.Data)-1])
}

func TestEncode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
		mask byte
	}{
		{"rapid xy", "G0 X10.5 Y-3.25", MaskX | MaskY},
		{"feed only", "G1 F1200", MaskF},
		{"extrude", "G1 X1 E0.0123", MaskX | MaskE},
		{"z hop", "G0 F9000 Z0.3", MaskF | MaskZ},
		{"all five", "G1 F3000 X153.16 Y123.17 Z38.80 E459.21186", MaskF | MaskX | MaskY | MaskZ | MaskE},
		{"reordered", "G1 E2 Y1 X0 F60", MaskF | MaskX | MaskY | MaskE},
		{"tiny float", "G1 X0.000001", MaskX},
	}

	for _, seq := range []uint32{0, 1, 65535, 65536, math.MaxUint32} {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f, err := Encode(NewCommand(tt.text, ""), seq)
				require.NoError(t, err)

				n, err := PackedLen(f.Data)
				require.NoError(t, err)
				assert.Equal(t, len(f.Data), n)

				p, err := DecodePacked(f.Data)
				require.NoError(t, err)
				assert.Equal(t, seq, p.Seq)
				assert.Equal(t, tt.mask, p.Mask&^MaskShortSeq)
				assert.Equal(t, seq < 65536, p.Has(MaskShortSeq))

				// every present parameter round-trips bit-exactly
				want, err := Encode(NewCommand(p.Command(), ""), seq)
				require.NoError(t, err)
				assert.Equal(t, f.Data, want.Data)
			})
		}
	}
}

func TestEncode_FloatBitsExact(t *testing.T) {
	f, err := Encode(NewCommand("G1 X153.16 E459.21186", ""), 3)
	require.NoError(t, err)

	p, err := DecodePacked(f.Data)
	require.NoError(t, err)
	assert.Equal(t, math.Float32bits(float32(153.16)), math.Float32bits(p.X))
	assert.Equal(t, math.Float32bits(float32(459.21186)), math.Float32bits(p.E))
}

func TestEncode_SequenceWidthBoundary(t *testing.T) {
	short, err := Encode(NewCommand("G1 X1", ""), 65535)
	require.NoError(t, err)
	long, err := Encode(NewCommand("G1 X1", ""), 65536)
	require.NoError(t, err)

	assert.NotZero(t, short.Data[1]&MaskShortSeq)
	assert.Zero(t, long.Data[1]&MaskShortSeq)
	// type, mask, X, seq, checksum, newline
	assert.Len(t, short.Data, 1+1+4+2+1+1)
	assert.Len(t, long.Data, 1+1+4+4+1+1)
	assert.Equal(t, []byte{0xff, 0xff}, short.Data[6:8])
	assert.Equal(t, []byte{0x00, 0x00, 0x01, 0x00}, long.Data[6:10])
}

func TestEncode_Retractions(t *testing.T) {
	f, err := Encode(NewCommand("G10", ""), 7)
	require.NoError(t, err)
	assert.Equal(t, "03040700000a", hex.EncodeToString(f.Data))

	f, err = Encode(NewCommand("G11", ""), 65536)
	require.NoError(t, err)
	assert.Equal(t, "040000000100050a", hex.EncodeToString(f.Data))

	_, err = Encode(NewCommand("G10 S1", ""), 7)
	assert.ErrorIs(t, err, ErrUnexpectedParameter)
}

func TestEncode_ChecksumCoversEveryByte(t *testing.T) {
	f, err := Encode(NewCommand("G1 F3000 X153.16 Y123.17 Z38.80 E459.21186", ""), 1)
	require.NoError(t, err)

	body := f.Data[:len(f.Data)-2]
	chk := f.Data[len(f.Data)-2]
	require.Equal(t, chk, Checksum(body))

	for i := range body {
		for _, flip := range []byte{0x01, 0x80, 0xff} {
			mutated := append([]byte(nil), body...)
			mutated[i] ^= flip
			assert.NotEqual(t, chk, Checksum(mutated), "byte %d flip %#x", i, flip)
		}
	}

	corrupt := append([]byte(nil), f.Data...)
	corrupt[3] ^= 0x10
	_, err = DecodePacked(corrupt)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestEncode_Legacy(t *testing.T) {
	tests := []struct {
		text string
		seq  uint32
		want string
	}{
		{"M110", 0, "N0 M110*35\n"},
		{"M105", 1, "N1 M105*38\n"},
		{"  M105  ", 1, "N1 M105*38\n"},
		{"; LAYER:0", 4, ""},
		{"G28 X0 Y0", 12, ""},
	}

	for _, tt := range tests {
		f, err := Encode(NewCommand(tt.text, ""), tt.seq)
		require.NoError(t, err, tt.text)
		assert.False(t, f.Packed)
		assert.False(t, IsPacked(f.Data))
		assert.Equal(t, len(f.Data), f.LegacyLen)
		if tt.want != "" {
			assert.Equal(t, tt.want, string(f.Data))
		}

		seq, cmd, err := ParseLegacy(f.Data)
		require.NoError(t, err)
		assert.Equal(t, tt.seq, seq)
		assert.Equal(t, NewCommand(tt.text, "").Text, cmd)
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		text string
		err  error
	}{
		{"G1 X1 A2", ErrUnsupportedParameter},
		{"G1 S100", ErrUnsupportedParameter},
		{"G1 x1", ErrUnsupportedParameter},
		{"G1 X1 X2", ErrDuplicateParameter},
		{"G1 F0", ErrFeedrateRange},
		{"G1 F65536", ErrFeedrateRange},
		{"G1 F-10", ErrFeedrateRange},
		{"G1 F99999999999999999999", ErrFeedrateRange},
		{"G1 F1500.5", ErrMalformedParameter},
		{"G1 Xabc", ErrMalformedParameter},
		{"G1 X", ErrMalformedParameter},
		{"G1 Xinf", ErrMalformedParameter},
		{"G1 F100 X1 Y2 Z3 E4 X5", ErrTooManyTokens},
		{"   ", ErrEmptyCommand},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := Encode(Command{Text: tt.text, Line: 42}, 9)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.ErrorIs(t, err, ErrEncoding)

			var encErr *EncodeError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, uint32(9), encErr.Seq)
			assert.Equal(t, 42, encErr.Line)
		})
	}
}

func TestEncode_LimitsAccepted(t *testing.T) {
	for _, text := range []string{"G1 F1", "G1 F65535", "G1 F100 X1 Y2 Z3 E4", "G0 X1 ; travel"} {
		f, err := Encode(NewCommand(text, ""), 0)
		require.NoError(t, err, text)
		assert.True(t, f.Packed, text)
	}
}

func TestEncode_WhitelistOnly(t *testing.T) {
	for _, text := range []string{"G2 X1 Y1 I1 J1", "G92 E0", "G01 X1", "G100", "M84"} {
		f, err := Encode(NewCommand(text, ""), 5)
		require.NoError(t, err, text)
		assert.False(t, f.Packed, text)
		assert.Equal(t, byte('N'), f.Data[0])
	}
}

func TestFrameString(t *testing.T) {
	f, err := Encode(NewCommand("G10", ""), 7)
	require.NoError(t, err)
	assert.Equal(t, "03040700000a", f.String())

	f, err = Encode(NewCommand("M110", ""), 0)
	require.NoError(t, err)
	assert.Equal(t, "N0 M110*35", f.String())
}

func TestDecodePacked_Errors(t *testing.T) {
	_, err := DecodePacked([]byte("N1 M105*38\n"))
	assert.ErrorIs(t, err, ErrNotPacked)

	_, err = DecodePacked([]byte{0x02})
	assert.ErrorIs(t, err, ErrShortFrame)

	_, err = DecodePacked([]byte{0x02, 0xfc, 0x00})
	assert.ErrorIs(t, err, ErrShortFrame)

	_, err = DecodePacked([]byte{0x07, 0x04, 0x01, 0x00, 0x02, '\n'})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestParseLegacy_Errors(t *testing.T) {
	for _, line := range []string{"M105\n", "N1 M105\n", "N1 M105*x\n", "Nx M105*0\n"} {
		_, _, err := ParseLegacy([]byte(line))
		assert.Error(t, err, line)
	}
	_, _, err := ParseLegacy([]byte("N1 M105*39\n"))
	assert.ErrorIs(t, err, ErrChecksum)
}
