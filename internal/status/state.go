package status

import (
	"sync/atomic"
	"time"
)

// State is the process-wide progress shared by the block processor and the
// command reporter. LastBlock never decreases.
type State struct {
	lastBlock atomic.Uint64
	startedAt time.Time
}

// NewState starts the uptime clock at startedAt.
func NewState(startedAt time.Time) *State {
	return &State{startedAt: startedAt}
}

// Advance moves the last processed block forward to block if it is higher.
// Blocks finishing out of order never move it back.
func (s *State) Advance(block uint64) {
	for {
		current := s.lastBlock.Load()
		if block <= current {
			return
		}
		if s.lastBlock.CompareAndSwap(current, block) {
			return
		}
	}
}

// LastBlock returns the highest block processed so far.
func (s *State) LastBlock() uint64 {
	return s.lastBlock.Load()
}

// Uptime returns the time elapsed since start.
func (s *State) Uptime(now time.Time) time.Duration {
	return now.Sub(s.startedAt)
}
