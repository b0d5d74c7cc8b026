package decode

import "time"

// clock tracks the pipeline's current playback position. It free-runs
// off wall-clock time scaled by rate unless externalPositionMs is set;
// the pipeline never sets it, so an attached audio sink does not drive
// the clock.
type clock struct {
	startWall time.Time
	startPos  int64
	rate      float64
	running   bool

	// externalPositionMs, when set, overrides wall-clock timing while the
	// clock is running. Nothing in this package assigns it.
	externalPositionMs func() int64
}

func newClock() *clock {
	return &clock{rate: 1.0}
}

func (c *clock) start(posMs int64) {
	c.startWall = time.Now()
	c.startPos = posMs
	c.running = true
}

func (c *clock) stop() {
	if c.running {
		c.startPos = c.positionMs()
	}
	c.running = false
}

func (c *clock) setRate(rate float64) {
	if !c.running {
		c.rate = rate
		return
	}
	// re-anchor so the rate change takes effect from now, not from the
	// original start time.
	now := c.positionMs()
	c.rate = rate
	c.startWall = time.Now()
	c.startPos = now
}

// positionMs returns the current estimated playback position.
func (c *clock) positionMs() int64 {
	if !c.running {
		return c.startPos
	}
	if c.externalPositionMs != nil {
		return c.externalPositionMs()
	}
	elapsed := time.Since(c.startWall).Seconds() * 1000 * c.rate
	return c.startPos + int64(elapsed)
}
