package gcode

// Program is a preprocessed command list. Every command is known to
// encode; frames are rebuilt on demand from the stored sequence numbers,
// so a resend produces the exact bytes sent the first time.
type Program struct {
	commands []Command
	seqs     []uint32
	stats    *Stats
}

// Preprocess assigns sequence numbers and encodes every command once to
// validate it and collect statistics. The first encoding error aborts the
// batch, before anything could have been transmitted.
func Preprocess(cmds []Command) (*Program, error) {
	p := &Program{
		commands: make([]Command, 0, len(cmds)),
		seqs:     make([]uint32, 0, len(cmds)),
		stats:    NewStats(),
	}

	var counter SequenceCounter
	for _, cmd := range cmds {
		if cmd.Mnemonic() == "" {
			continue
		}
		seq := counter.Next(cmd)
		f, err := Encode(cmd, seq)
		if err != nil {
			return nil, err
		}
		p.stats.Record(cmd, f)
		p.commands = append(p.commands, cmd)
		p.seqs = append(p.seqs, seq)
	}
	return p, nil
}

// Len is the number of commands.
func (p *Program) Len() int {
	return len(p.commands)
}

// Command returns the command at position i.
func (p *Program) Command(i int) Command {
	return p.commands[i]
}

// Seq returns the sequence number of position i.
func (p *Program) Seq(i int) uint32 {
	return p.seqs[i]
}

// Frame encodes the command at position i.
func (p *Program) Frame(i int) (Frame, error) {
	return Encode(p.commands[i], p.seqs[i])
}

// Stats returns the statistics gathered by Preprocess.
func (p *Program) Stats() *Stats {
	return p.stats
}

// PositionOf finds the position carrying seq, searching backwards from
// before. Sequence numbers repeat after an M110, so the nearest earlier
// occurrence is the one the firmware means. When there is none, a later
// occurrence is taken: the firmware may have accepted frames whose ACK was
// attributed elsewhere. A seq just past the last command maps to Len().
func (p *Program) PositionOf(seq uint32, before int) (int, bool) {
	if before > len(p.seqs) {
		before = len(p.seqs)
	}
	for i := before; i >= 0; i-- {
		if i < len(p.seqs) && p.seqs[i] == seq {
			return i, true
		}
	}
	for i := before + 1; i < len(p.seqs); i++ {
		if p.seqs[i] == seq {
			return i, true
		}
	}
	if n := len(p.seqs); n > 0 && p.seqs[n-1]+1 == seq {
		return n, true
	}
	return 0, false
}

// Frames encodes every command in order.
func (p *Program) Frames() ([]Frame, error) {
	frames := make([]Frame, 0, len(p.commands))
	for i := range p.commands {
		f, err := p.Frame(i)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}
