package core

import "math"

// SimClock holds the scalar simulation time in seconds. Time only moves
// through World (and warmup, where it counts up from a negative preset).
// There is one clock per SimContext rather than a process-wide singleton so
// that independent runs can coexist in one process.
type SimClock struct {
	time float64
}

// Time returns the current simulation time.
func (c *SimClock) Time() float64 { return c.time }

// IntTime returns the simulation time rounded down to full seconds.
func (c *SimClock) IntTime() int64 { return int64(math.Floor(c.time)) }

// SetTime sets the simulation time.
func (c *SimClock) SetTime(t float64) { c.time = t }

// Advance moves the simulation time forward by d seconds.
func (c *SimClock) Advance(d float64) { c.time += d }
