package core

import "testing"

// transition is one recorded connectivity change.
type transition struct {
	t    float64
	up   bool
	a, b int
}

// recordingListener captures connection transitions with their simulation
// time.
type recordingListener struct {
	clock  *SimClock
	events []transition
}

func (r *recordingListener) HostsConnected(a, b *DTNHost) {
	r.events = append(r.events, transition{t: r.clock.Time(), up: true, a: a.Address(), b: b.Address()})
}

func (r *recordingListener) HostsDisconnected(a, b *DTNHost) {
	r.events = append(r.events, transition{t: r.clock.Time(), up: false, a: a.Address(), b: b.Address()})
}

func (r *recordingListener) ups() int {
	n := 0
	for _, e := range r.events {
		if e.up {
			n++
		}
	}
	return n
}

func (r *recordingListener) downs() int {
	return len(r.events) - r.ups()
}

// newTestInterface builds a prototype interface, failing the test on
// settings errors.
func newTestInterface(t *testing.T, ctx *SimContext, cfg InterfaceConfig) *SimpleBroadcastInterface {
	t.Helper()
	ni, err := NewSimpleBroadcastInterface(ctx, cfg)
	if err != nil {
		t.Fatalf("NewSimpleBroadcastInterface: %v", err)
	}
	return ni
}

// newTestHost replicates the given prototypes onto a fresh host.
func newTestHost(addr int, loc Coord, movement MovementModel,
	protos []NetworkInterface, cls []ConnectionListener) *DTNHost {
	return NewDTNHost(addr, "h", loc, movement, protos, cls)
}

// checkConnectionConsistency verifies the bidirectionality and no-self-loop
// invariants over all hosts.
func checkConnectionConsistency(t *testing.T, hosts []*DTNHost) {
	t.Helper()
	for _, h := range hosts {
		for _, ni := range h.Interfaces() {
			for _, con := range ni.Connections() {
				other := con.OtherInterface(ni)
				if other == ni {
					t.Fatalf("host %v: self-loop connection %v", h, con)
				}
				count := 0
				for _, oc := range other.Connections() {
					if oc == con {
						count++
					}
				}
				if count != 1 {
					t.Fatalf("host %v: connection %v appears %d times on peer, want 1", h, con, count)
				}
			}
		}
	}
}

// expectSimError fails the test unless fn panics with a *SimError.
func expectSimError(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected SimError panic, got none")
		}
		if _, ok := r.(*SimError); !ok {
			t.Fatalf("expected *SimError, got %T: %v", r, r)
		}
	}()
	fn()
}
