package gcode

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// MaxLineLength is the longest source line sent to the firmware. Longer
// lines, typically slicer profile comments, are dropped.
const MaxLineLength = 80

// Command is one instruction to send. Reply, when set, is the prefix of a
// firmware line that must arrive before the next command may be sent.
type Command struct {
	Text  string
	Reply string

	// Line is the 1-based source line, or 0 for synthesized commands.
	Line int
}

// NewCommand returns a synthesized command.
func NewCommand(text, reply string) Command {
	return Command{Text: strings.TrimSpace(text), Reply: reply}
}

// Mnemonic is the first whitespace-separated token, e.g. "G1".
func (c Command) Mnemonic() string {
	fields := strings.Fields(c.Text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Params are the tokens after the mnemonic, with any trailing comment
// removed.
func (c Command) Params() []string {
	fields := strings.Fields(stripComment(c.Text))
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}

// IsComment reports whether the whole line is a comment.
func (c Command) IsComment() bool {
	return strings.HasPrefix(strings.TrimSpace(c.Text), ";")
}

// ReadCommands reads one command per line. Blank lines are skipped, and so
// are lines that reach MaxLineLength once their newline is counted;
// dropped reports how many were too long.
func ReadCommands(r io.Reader) (cmds []Command, dropped int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		raw := sc.Text()
		if len(raw)+1 > MaxLineLength {
			dropped++
			continue
		}
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		cmds = append(cmds, Command{Text: text, Line: line})
	}
	if err := sc.Err(); err != nil {
		return nil, dropped, fmt.Errorf("reading gcode: %w", err)
	}
	return cmds, dropped, nil
}
