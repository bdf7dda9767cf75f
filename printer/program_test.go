package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/go-ultiprint/gcode"
)

func commandTexts(p *gcode.Program) []string {
	out := make([]string, p.Len())
	for i := range out {
		out[i] = p.Command(i).Text
	}
	return out
}

func TestBuildProgram(t *testing.T) {
	file := []gcode.Command{{Text: "G28", Line: 1}, {Text: "G1 X1 Y1", Line: 2}}

	tests := []struct {
		mode Mode
		want []string
	}{
		{ModeMonitor, []string{"M110"}},
		{ModeReset, []string{"M110"}},
		{ModeStore, []string{"M110", "M28 usb.g", "G28", "G1 X1 Y1", "M29"}},
		{ModePrint, []string{"M110", "M623 usb.g", "M28 usb.g", "G28", "G1 X1 Y1", "M29"}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			prog, err := BuildProgram(tt.mode, file)
			require.NoError(t, err)
			assert.Equal(t, tt.want, commandTexts(prog))
			assert.Equal(t, uint32(0), prog.Seq(0))
		})
	}
}

func TestBuildProgramReplies(t *testing.T) {
	prog, err := BuildProgram(ModePrint, []gcode.Command{{Text: "G28", Line: 1}})
	require.NoError(t, err)

	replies := make([]string, prog.Len())
	for i := range replies {
		replies[i] = prog.Command(i).Reply
	}
	assert.Equal(t, []string{"ok", "ok", "ok", "", StoreCompleteToken}, replies)
}

func TestBuildProgramRejectsBadFile(t *testing.T) {
	_, err := BuildProgram(ModeStore, []gcode.Command{{Text: "G1 F0 X1", Line: 7}})
	assert.ErrorIs(t, err, gcode.ErrFeedrateRange)

	var encErr *gcode.EncodeError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, 7, encErr.Line)
}

func TestResetProgram(t *testing.T) {
	prog, err := ResetProgram()
	require.NoError(t, err)
	assert.Equal(t, []string{"M110", "M29", "G28", "M84", "M104 S0", "M140 S0"}, commandTexts(prog))
}

func TestEndTokens(t *testing.T) {
	assert.Equal(t, []string{QueueEndToken}, EndTokens(ModePrint))
	assert.Equal(t, []string{StoreCompleteToken, QueueEndToken}, EndTokens(ModeStore))
	assert.Equal(t, []string{StoreCompleteToken, QueueEndToken}, EndTokens(ModeMonitor))
}

func TestParseMode(t *testing.T) {
	for _, name := range []string{"monitor", "mon", "print", "store", "reset"} {
		m, err := ParseMode(name)
		require.NoError(t, err, name)
		assert.Contains(t, name, m.String()[:3])
	}

	_, err := ParseMode("upload")
	assert.Error(t, err)
}
