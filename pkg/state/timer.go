package state

import "time"

// AutoTimer is the single auto-advance countdown. It fires once per arming.
type AutoTimer struct {
	remaining time.Duration
	armed     bool
}

// Arm starts (or restarts) the countdown.
func (t *AutoTimer) Arm(d time.Duration) {
	t.remaining = d
	t.armed = true
}

// Disarm cancels a pending expiry.
func (t *AutoTimer) Disarm() {
	t.remaining = 0
	t.armed = false
}

func (t *AutoTimer) Armed() bool {
	return t.armed
}

func (t *AutoTimer) Remaining() time.Duration {
	return t.remaining
}

// Tick counts down by dt and reports whether the timer expired on this tick.
// An expired timer stays idle until armed again.
func (t *AutoTimer) Tick(dt time.Duration) bool {
	if !t.armed {
		return false
	}
	t.remaining -= dt
	if t.remaining > 0 {
		return false
	}
	t.remaining = 0
	t.armed = false
	return true
}
