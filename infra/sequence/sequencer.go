// Package sequence issues the arrival indices that order the whole
// simulation: every accepted request, and every market-maker quote the
// engine inserts, draws the next value from one shared Sequencer. Time
// priority and tape ordering both rest on it.
package sequence

import "sync/atomic"

// Sequencer generates strictly monotonic sequence IDs. It is
// deterministic and replay-safe.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer. start is 0 on a fresh run, or the last
// replayed sequence when resuming from the tape.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next sequence ID.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued sequence.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}

// Reset jumps the sequencer forward. Only used after tape replay.
func (s *Sequencer) Reset(v uint64) {
	if v > s.next.Load() {
		s.next.Store(v)
	}
}
