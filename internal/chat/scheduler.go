package chat

import (
	"sync"
	"time"
)

// TickFunc schedules fn to run once on the next tick of some refresh source.
type TickFunc func(fn func())

// TimerTick returns a tick source firing after d, a stand-in for a display
// refresh callback in a terminal context.
func TimerTick(d time.Duration) TickFunc {
	return func(fn func()) {
		time.AfterFunc(d, fn)
	}
}

// Scheduler coalesces bursts of commit requests into at most one flush per
// tick. Token-level streaming can deliver events far faster than a terminal
// usefully redraws; the flush always reads the latest accumulated state, so
// dropped intermediate requests lose nothing.
type Scheduler struct {
	mu      sync.Mutex
	tick    TickFunc
	flush   func()
	pending bool
}

func NewScheduler(tick TickFunc, flush func()) *Scheduler {
	return &Scheduler{tick: tick, flush: flush}
}

// Request asks for a flush on the next tick. Requests arriving while one is
// already pending are absorbed.
func (s *Scheduler) Request() {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = true
	s.mu.Unlock()

	s.tick(func() {
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
		s.flush()
	})
}
