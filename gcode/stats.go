package gcode

import (
	"sort"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// CommentKey is the histogram bucket for whole-line comments.
const CommentKey = "<comment>"

// Stats accumulates encoder statistics for one batch. It is safe to read
// while a batch is being encoded.
type Stats struct {
	OrigBytes      atomic.Int64
	PackedBytes    atomic.Int64
	Commands       atomic.Int64
	PackedCommands atomic.Int64

	legacy *xsync.MapOf[string, int]
}

// NewStats returns empty statistics.
func NewStats() *Stats {
	return &Stats{legacy: xsync.NewMapOf[string, int]()}
}

// Record accounts one encoded frame.
func (s *Stats) Record(cmd Command, f Frame) {
	s.Commands.Add(1)
	s.OrigBytes.Add(int64(f.LegacyLen))
	s.PackedBytes.Add(int64(len(f.Data)))
	if f.Packed {
		s.PackedCommands.Add(1)
		return
	}

	key := cmd.Mnemonic()
	if cmd.IsComment() {
		key = CommentKey
	}
	s.legacy.Compute(key, func(old int, _ bool) (int, bool) {
		return old + 1, false
	})
}

// Ratio is packed size as a percentage of the text size.
func (s *Stats) Ratio() float64 {
	orig := s.OrigBytes.Load()
	if orig == 0 {
		return 0
	}
	return float64(s.PackedBytes.Load()) * 100 / float64(orig)
}

// MnemonicCount is one row of the legacy-command histogram.
type MnemonicCount struct {
	Mnemonic string
	Count    int
}

// Legacy returns the commands that went out as text, most frequent first.
func (s *Stats) Legacy() []MnemonicCount {
	var rows []MnemonicCount
	s.legacy.Range(func(k string, v int) bool {
		rows = append(rows, MnemonicCount{Mnemonic: k, Count: v})
		return true
	})
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Mnemonic < rows[j].Mnemonic
	})
	return rows
}
