// Package timectrl paces an otherwise as-fast-as-possible simulation loop
// against the wall clock.
package timectrl

import (
	"context"
	"fmt"
	"time"
)

// Pacer blocks the simulation loop until wall-clock time has caught up with
// simulation time. The wall-clock anchor is taken on the first Pace call,
// so construction cost never counts against the schedule.
type Pacer struct {
	start   time.Time
	started bool
}

// NewPacer creates a pacer that has not started counting yet.
func NewPacer() *Pacer {
	return &Pacer{}
}

// Pace sleeps until the wall clock reaches the point corresponding to
// simTime seconds after the first call. It returns immediately when the
// simulation is already behind real time. A context cancellation during the
// sleep aborts the wait with an error: a partially slept pacing interval
// cannot be resumed meaningfully.
func (p *Pacer) Pace(ctx context.Context, simTime float64) error {
	if !p.started {
		p.start = time.Now()
		p.started = true
	}

	target := p.start.Add(time.Duration(simTime * float64(time.Second)))
	d := time.Until(target)
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sleep interrupted: %w", ctx.Err())
	}
}

// Started reports whether the wall-clock anchor has been taken.
func (p *Pacer) Started() bool { return p.started }
