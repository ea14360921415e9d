// internal/game/timer.go
package game

import "time"

// countdown drives the one-second game clock. Each tick re-arms the next one,
// so a stopped countdown never fires again even if a tick was already queued.
type countdown struct {
	timer   *time.Timer
	stopped bool
}

// stop halts the countdown. Reports whether it was still running.
func (c *countdown) stop() bool {
	if c == nil || c.stopped {
		return false
	}
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
	return true
}

// startCountdown replaces any running countdown with a fresh one.
// Assumes lock is held by caller.
func (r *Room) startCountdown() {
	r.stopCountdown()
	c := &countdown{}
	r.countdown = c
	r.armTick(c)
}

// stopCountdown halts the room's countdown, if any.
// Assumes lock is held by caller.
func (r *Room) stopCountdown() bool {
	return r.countdown.stop()
}

// timerRunning reports whether the countdown is live.
// Assumes lock is held by caller.
func (r *Room) timerRunning() bool {
	return r.countdown != nil && !r.countdown.stopped
}

// armTick schedules the next tick of c.
// Assumes lock is held by caller.
func (r *Room) armTick(c *countdown) {
	c.timer = time.AfterFunc(r.coord.opts.TickInterval, func() {
		r.tick(c)
	})
}

// tick decrements the clock, broadcasts the remaining time, and ends the room at zero.
func (r *Room) tick(c *countdown) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if c.stopped || r.countdown != c || r.evicted || r.Phase != PhaseInProgress {
		r.log.Debug("Ignoring stale countdown tick.")
		return
	}

	if r.RemainingSeconds > 0 {
		r.RemainingSeconds--
	}
	remaining := r.RemainingSeconds
	r.fireEvent(GameEvent{Type: EventTimerUpdate, RoomID: r.ID, Timer: &remaining})

	if remaining == 0 {
		r.endGame(EndTimeout)
		return
	}
	r.armTick(c)
}
