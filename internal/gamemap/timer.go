package gamemap

import "time"

// TimerTick reports what happened during one Countdown tick.
type TimerTick struct {
	Warned  bool // Remaining time crossed the warning threshold
	Expired bool // Remaining time reached zero
}

// Countdown is a tick-driven countdown with an optional warning threshold.
// A zero limit disables it.
type Countdown struct {
	limit     time.Duration
	warnAt    time.Duration
	remaining time.Duration
	running   bool
	warned    bool
}

// NewCountdown creates a stopped countdown filled to limit.
func NewCountdown(limit, warnAt time.Duration) *Countdown {
	return &Countdown{limit: limit, warnAt: warnAt, remaining: limit}
}

// Enabled reports whether a limit is configured.
func (c *Countdown) Enabled() bool { return c.limit > 0 }

// Limit returns the configured limit.
func (c *Countdown) Limit() time.Duration { return c.limit }

// Remaining returns the time left.
func (c *Countdown) Remaining() time.Duration { return c.remaining }

// Running reports whether Tick consumes time.
func (c *Countdown) Running() bool { return c.running }

// IsWarning reports whether the remaining time is at or under the threshold.
func (c *Countdown) IsWarning() bool {
	return c.Enabled() && c.warnAt > 0 && c.remaining <= c.warnAt
}

// Start resumes counting. An expired countdown stays stopped.
func (c *Countdown) Start() {
	if c.Enabled() && c.remaining > 0 {
		c.running = true
	}
}

// Stop halts counting and keeps the remaining time.
func (c *Countdown) Stop() { c.running = false }

// Reset stops the countdown and refills it.
func (c *Countdown) Reset() {
	c.running = false
	c.remaining = c.limit
	c.warned = false
}

// Restore sets the remaining time, for example from a snapshot.
func (c *Countdown) Restore(remaining time.Duration) {
	if remaining < 0 {
		remaining = 0
	}
	c.remaining = remaining
	c.warned = c.IsWarning()
}

// Add extends the remaining time. The warning re-arms if the new value is above the threshold.
func (c *Countdown) Add(d time.Duration) {
	if !c.Enabled() || d <= 0 {
		return
	}
	c.remaining += d
	if !c.IsWarning() {
		c.warned = false
	}
}

// Tick consumes dt of running time.
func (c *Countdown) Tick(dt time.Duration) TimerTick {
	var out TimerTick
	if !c.running || dt <= 0 {
		return out
	}
	c.remaining -= dt
	if c.remaining <= 0 {
		c.remaining = 0
		c.running = false
		out.Expired = true
	}
	if !c.warned && c.IsWarning() {
		c.warned = true
		out.Warned = !out.Expired
	}
	return out
}

// GlobalTimer is the session-wide countdown. Its expiry always ends the
// session. Opening an exercise does not pause it; only the controller does.
type GlobalTimer struct {
	*Countdown
	paused bool
}

// NewGlobalTimer creates a stopped global timer.
func NewGlobalTimer(limit, warnAt time.Duration) *GlobalTimer {
	return &GlobalTimer{Countdown: NewCountdown(limit, warnAt)}
}

// Pause halts the timer without stopping it.
func (g *GlobalTimer) Pause() { g.paused = true }

// Resume continues after Pause.
func (g *GlobalTimer) Resume() { g.paused = false }

// Paused reports whether the timer is paused.
func (g *GlobalTimer) Paused() bool { return g.paused }

// Tick consumes dt unless paused.
func (g *GlobalTimer) Tick(dt time.Duration) TimerTick {
	if g.paused {
		return TimerTick{}
	}
	return g.Countdown.Tick(dt)
}

// Reset stops, unpauses and refills the timer.
func (g *GlobalTimer) Reset() {
	g.paused = false
	g.Countdown.Reset()
}
