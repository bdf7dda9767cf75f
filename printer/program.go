package printer

import (
	"fmt"
	"strings"

	"github.com/allbin/go-ultiprint/gcode"
)

// Mode is the kind of operation a session runs.
type Mode int

const (
	// ModeMonitor only observes firmware output.
	ModeMonitor Mode = iota
	// ModePrint stores the file on the SD card and starts it.
	ModePrint
	// ModeStore stores the file on the SD card.
	ModeStore
	// ModeReset runs the reset sequence.
	ModeReset
)

func (m Mode) String() string {
	switch m {
	case ModeMonitor:
		return "monitor"
	case ModePrint:
		return "print"
	case ModeStore:
		return "store"
	case ModeReset:
		return "reset"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts the mode names and the short forms "mon".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "monitor", "mon":
		return ModeMonitor, nil
	case "print":
		return ModePrint, nil
	case "store":
		return ModeStore, nil
	case "reset":
		return ModeReset, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

// Firmware tokens.
const (
	// StoreCompleteToken answers M29 once the file is closed.
	StoreCompleteToken = "Done saving"
	// QueueEndToken is echoed when the firmware queues its final M84.
	QueueEndToken = `echo:enqueing "M84"`

	// SDFileName is the file the firmware stores and prints.
	SDFileName = "usb.g"
)

// EndTokens returns the firmware lines that finish a run in mode. A print
// keeps going after the store completes, so only the queue end counts.
func EndTokens(m Mode) []string {
	if m == ModePrint {
		return []string{QueueEndToken}
	}
	return []string{StoreCompleteToken, QueueEndToken}
}

// BuildProgram wraps file commands in the SD store protocol:
//
//	M110            reply ok
//	M623 usb.g      reply ok (print only, selects the file for autostart)
//	M28 usb.g       reply ok
//	...file...
//	M29             reply "Done saving"
//
// Only M110 is sent for monitor and reset.
func BuildProgram(mode Mode, file []gcode.Command) (*gcode.Program, error) {
	cmds := []gcode.Command{gcode.NewCommand(gcode.ResetMnemonic, "ok")}

	if mode == ModePrint || mode == ModeStore {
		if mode == ModePrint {
			cmds = append(cmds, gcode.NewCommand("M623 "+SDFileName, "ok"))
		}
		cmds = append(cmds, gcode.NewCommand("M28 "+SDFileName, "ok"))
		cmds = append(cmds, file...)
		cmds = append(cmds, gcode.NewCommand("M29", StoreCompleteToken))
	}
	return gcode.Preprocess(cmds)
}

// resetCommands end the SD write, home, release the steppers and switch
// both heaters off.
var resetCommands = []string{"M29", "G28", "M84", "M104 S0", "M140 S0"}

// ResetProgram returns the reset sequence, preceded by M110.
func ResetProgram() (*gcode.Program, error) {
	cmds := []gcode.Command{gcode.NewCommand(gcode.ResetMnemonic, "")}
	for _, text := range resetCommands {
		cmds = append(cmds, gcode.NewCommand(text, ""))
	}
	return gcode.Preprocess(cmds)
}
