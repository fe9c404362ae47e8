package game

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// TurnTimer enforces the per-turn action deadline. Firing does not mutate
// game state itself: the callback is expected to funnel a forced fold
// through the table's serialized action entry point, where stale timeouts
// are rejected by the current-turn check.
type TurnTimer struct {
	clock   quartz.Clock
	timeout time.Duration

	mu      sync.Mutex
	timer   *quartz.Timer
	seat    int
	expire  func(seat int)
	paused  bool
	running bool
}

// NewTurnTimer creates a timer using the given clock. Tests pass a
// *quartz.Mock to control time.
func NewTurnTimer(clock quartz.Clock, timeout time.Duration) *TurnTimer {
	return &TurnTimer{clock: clock, timeout: timeout, seat: -1}
}

// Start arms the timer for the given seat, replacing any previous
// deadline. expire is invoked from the clock's goroutine when the deadline
// passes.
func (t *TurnTimer) Start(seat int, expire func(seat int)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.seat = seat
	t.expire = expire
	t.paused = false
	t.armLocked()
}

// Stop disarms the timer, typically because the player acted in time.
func (t *TurnTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.seat = -1
	t.expire = nil
	t.paused = false
}

// Pause suspends the countdown while the table is paused. The deadline is
// re-armed from the full timeout on Resume.
func (t *TurnTimer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.stopLocked()
	t.paused = true
}

// Resume restarts the countdown for the seat that was on the clock when
// Pause was called.
func (t *TurnTimer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused || t.seat < 0 {
		return
	}
	t.paused = false
	t.armLocked()
}

func (t *TurnTimer) armLocked() {
	seat := t.seat
	expire := t.expire
	t.running = true
	t.timer = t.clock.AfterFunc(t.timeout, func() {
		expire(seat)
	})
}

func (t *TurnTimer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.running = false
}
