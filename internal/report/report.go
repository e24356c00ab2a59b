// Package report collects contact statistics from a simulation run.
package report

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/signalsfoundry/dtn-simulator/core"
)

type pair struct {
	a int
	b int
}

func pairOf(a, b *core.DTNHost) pair {
	if a.Address() < b.Address() {
		return pair{a: a.Address(), b: b.Address()}
	}
	return pair{a: b.Address(), b: a.Address()}
}

// ContactReport records every contact (a link's up..down lifetime) and
// summarizes contact durations. It implements core.ConnectionListener.
type ContactReport struct {
	mu        sync.Mutex
	clock     *core.SimClock
	upSince   map[pair]float64
	durations []float64
	contacts  int
}

// NewContactReport creates a report reading contact times from the given
// clock.
func NewContactReport(clock *core.SimClock) *ContactReport {
	return &ContactReport{
		clock:   clock,
		upSince: make(map[pair]float64),
	}
}

// HostsConnected records the start of a contact.
func (r *ContactReport) HostsConnected(a, b *core.DTNHost) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts++
	r.upSince[pairOf(a, b)] = r.clock.Time()
}

// HostsDisconnected closes a contact and records its duration. A down
// without a matching up (a forced teardown replayed from a trace) is
// ignored.
func (r *ContactReport) HostsDisconnected(a, b *core.DTNHost) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := pairOf(a, b)
	start, ok := r.upSince[p]
	if !ok {
		return
	}
	delete(r.upSince, p)
	r.durations = append(r.durations, r.clock.Time()-start)
}

// Contacts returns the number of contacts that started.
func (r *ContactReport) Contacts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contacts
}

// MeanDuration returns the mean duration of completed contacts, or 0 when
// none completed.
func (r *ContactReport) MeanDuration() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.durations) == 0 {
		return 0
	}
	return stat.Mean(r.durations, nil)
}

// StdDevDuration returns the standard deviation of completed contact
// durations, or 0 with fewer than two samples.
func (r *ContactReport) StdDevDuration() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.durations) < 2 {
		return 0
	}
	return stat.StdDev(r.durations, nil)
}

// Summary renders a one-line human-readable digest.
func (r *ContactReport) Summary() string {
	r.mu.Lock()
	completed := len(r.durations)
	open := len(r.upSince)
	r.mu.Unlock()
	return fmt.Sprintf("contacts: %d started, %d completed, %d still open, mean duration %.2fs (stddev %.2fs)",
		r.Contacts(), completed, open, r.MeanDuration(), r.StdDevDuration())
}
