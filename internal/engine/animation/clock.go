package animation

import "time"

// Clock measures the time between successive frames.
type Clock struct {
	last    time.Time
	started bool
}

// Delta returns the seconds elapsed since the previous call. The first call returns 0.
func (c *Clock) Delta() float32 {
	return c.DeltaAt(time.Now())
}

// DeltaAt is Delta with an explicit current time.
func (c *Clock) DeltaAt(now time.Time) float32 {
	if !c.started {
		c.started = true
		c.last = now
		return 0
	}
	dt := now.Sub(c.last).Seconds()
	c.last = now
	if dt < 0 {
		return 0
	}
	return float32(dt)
}

// Reset makes the next Delta return 0.
func (c *Clock) Reset() {
	c.started = false
}
