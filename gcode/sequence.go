package gcode

// ResetMnemonic makes the firmware restart its line numbering.
const ResetMnemonic = "M110"

// SequenceCounter hands out line numbers. Encoding M110 resets it so that
// the M110 line itself carries 0, matching the firmware, which resets its
// expected line number on M110.
type SequenceCounter struct {
	next uint32
}

// Next returns the sequence number for cmd and advances the counter.
func (c *SequenceCounter) Next(cmd Command) uint32 {
	if cmd.Mnemonic() == ResetMnemonic {
		c.next = 0
	}
	seq := c.next
	c.next++
	return seq
}

// Peek returns the number the next ordinary command would get.
func (c *SequenceCounter) Peek() uint32 {
	return c.next
}
