package core

import (
	"context"
	"math/rand"
	"sync/atomic"

	"github.com/signalsfoundry/dtn-simulator/timectrl"
)

// WorldConfig carries the world geometry and the optimization settings.
type WorldConfig struct {
	SizeX          int
	SizeY          int
	UpdateInterval float64

	// SimulateConnections enables the connectivity simulation in host
	// updates.
	SimulateConnections bool
	// RandomizeUpdateOrder shuffles the host update order every pass,
	// seeded with the integer simulation time.
	RandomizeUpdateOrder bool
	// SimulateConnectionsOnce freezes connectivity after the first
	// update pass.
	SimulateConnectionsOnce bool
	// Realtime paces the loop so simulation time never runs ahead of
	// wall-clock time.
	Realtime bool
}

// DefaultWorldConfig returns the default optimization settings.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		UpdateInterval:       1.0,
		SimulateConnections:  true,
		RandomizeUpdateOrder: true,
	}
}

// World owns the hosts and drives the simulation: per tick it drains due
// external events, moves the hosts, updates them, and fans out to the
// update listeners. Everything runs on the calling goroutine; the only
// cross-goroutine signal is Cancel.
type World struct {
	ctx   *SimContext
	clock *SimClock

	sizeX          int
	sizeY          int
	updateInterval float64

	hosts            []*DTNHost
	eventQueues      []EventQueue
	scheduledUpdates *ScheduledUpdatesQueue
	updateListeners  []UpdateListener

	simulateConnections bool
	simulateConOnce     bool
	// updateOrder is the shuffled working copy of hosts; nil means the
	// update order is not randomized.
	updateOrder []*DTNHost

	realtime bool
	pacer    *timectrl.Pacer

	nextQueueEventTime float64
	nextEventQueue     EventQueue

	cancelled atomic.Bool
}

// NewWorld creates a world over the given hosts. Host addresses must equal
// their indices in the slice; the scheduled-updates queue is always
// registered in addition to the given event queues.
func NewWorld(ctx *SimContext, hosts []*DTNHost, updateListeners []UpdateListener,
	eventQueues []EventQueue, cfg WorldConfig) *World {
	w := &World{
		ctx:                 ctx,
		clock:               ctx.Clock(),
		sizeX:               cfg.SizeX,
		sizeY:               cfg.SizeY,
		updateInterval:      cfg.UpdateInterval,
		hosts:               hosts,
		eventQueues:         eventQueues,
		scheduledUpdates:    NewScheduledUpdatesQueue(),
		updateListeners:     updateListeners,
		simulateConnections: cfg.SimulateConnections,
		simulateConOnce:     cfg.SimulateConnectionsOnce,
		realtime:            cfg.Realtime,
		pacer:               timectrl.NewPacer(),
	}
	if cfg.RandomizeUpdateOrder {
		w.updateOrder = make([]*DTNHost, len(hosts))
		copy(w.updateOrder, hosts)
	}
	w.setNextEventQueue()
	return w
}

// Hosts returns the world's host list, indexed by network address.
func (w *World) Hosts() []*DTNHost { return w.hosts }

// SizeX returns the width of the world.
func (w *World) SizeX() int { return w.sizeX }

// SizeY returns the height of the world.
func (w *World) SizeY() int { return w.sizeY }

// Clock returns the simulation clock.
func (w *World) Clock() *SimClock { return w.clock }

// NodeByAddress returns the host with the given address. Addresses outside
// 0..len(hosts)-1 and index/address mismatches are fatal.
func (w *World) NodeByAddress(address int) *DTNHost {
	if address < 0 || address >= len(w.hosts) {
		simFatalf("no host for address %d; valid range is 0-%d", address, len(w.hosts)-1)
	}
	node := w.hosts[address]
	if node.Address() != address {
		simFatalf("host indexing failed: host %v at index %d", node, address)
	}
	return node
}

// ScheduleUpdate requests an extra host-update pass at the given simulation
// time.
func (w *World) ScheduleUpdate(simTime float64) {
	w.scheduledUpdates.AddUpdate(simTime)
}

// Cancel asynchronously stops the simulation; the running update pass exits
// at the next host boundary. There is no rollback of partially applied tick
// state.
func (w *World) Cancel() {
	w.cancelled.Store(true)
}

// setNextEventQueue picks the queue holding the earliest next event. Ties
// go to the first-registered queue; the scheduled-updates queue is
// considered first.
func (w *World) setNextEventQueue() {
	var nextQueue EventQueue = w.scheduledUpdates
	earliest := nextQueue.NextEventsTime()

	for _, eq := range w.eventQueues {
		if eq.NextEventsTime() < earliest {
			nextQueue = eq
			earliest = eq.NextEventsTime()
		}
	}

	w.nextEventQueue = nextQueue
	w.nextQueueEventTime = earliest
}

// Update advances the simulation by one update interval: it drains all
// external events due within the interval (running a host-update pass after
// each), moves the hosts by the nominal interval, jumps the clock, runs the
// final host-update pass, and notifies the update listeners. In realtime
// mode the call first sleeps until the wall clock has caught up; a context
// cancellation during that sleep is fatal.
func (w *World) Update(ctx context.Context) {
	runUntil := w.clock.Time() + w.updateInterval

	if w.realtime {
		if err := w.pacer.Pace(ctx, w.clock.Time()); err != nil {
			simFatalf("realtime pacing aborted: %v", err)
		}
	}

	w.setNextEventQueue()

	for w.nextQueueEventTime <= runUntil {
		w.clock.SetTime(w.nextQueueEventTime)
		if ee := w.nextEventQueue.NextEvent(); ee != nil {
			ee.ProcessEvent(w)
		}
		w.updateHosts() // routers see the post-event state before further events
		w.setNextEventQueue()
	}

	// Hosts move by the nominal interval even when events advanced the
	// clock partway into it. Movement is assumed slow relative to the
	// interval; keeping the full step makes ticks uniform.
	w.moveHosts(w.updateInterval)
	w.clock.SetTime(runUntil)

	w.updateHosts()

	for _, ul := range w.updateListeners {
		ul.Updated(w.hosts)
	}
}

// updateHosts runs one update pass over all hosts, in shuffled order when
// randomization is on. The shuffle RNG is seeded with the integer
// simulation time, so the schedule reproduces across runs.
func (w *World) updateHosts() {
	if w.updateOrder == nil {
		for _, h := range w.hosts {
			if w.cancelled.Load() {
				break
			}
			h.Update(w.simulateConnections)
		}
	} else {
		if len(w.updateOrder) != len(w.hosts) {
			simFatalf("number of hosts changed unexpectedly: %d != %d",
				len(w.updateOrder), len(w.hosts))
		}
		rng := rand.New(rand.NewSource(w.clock.IntTime()))
		rng.Shuffle(len(w.updateOrder), func(i, j int) {
			w.updateOrder[i], w.updateOrder[j] = w.updateOrder[j], w.updateOrder[i]
		})
		for _, h := range w.updateOrder {
			if w.cancelled.Load() {
				break
			}
			h.Update(w.simulateConnections)
		}
	}

	if w.simulateConOnce && w.simulateConnections {
		w.simulateConnections = false
	}
}

// moveHosts advances every host by the given time increment, in insertion
// order.
func (w *World) moveHosts(dt float64) {
	for _, h := range w.hosts {
		h.Move(dt)
	}
}

// WarmupMovementModel moves the hosts for the given number of seconds to
// spread them out before the run. The clock must be pre-set to -time; the
// warmup advances in update-interval steps, takes a final fractional step
// to land exactly on zero, and leaves the clock at zero. No events, host
// updates, or listeners run during warmup.
func (w *World) WarmupMovementModel(time float64) {
	if time <= 0 {
		return
	}

	for w.clock.Time() < -w.updateInterval {
		w.moveHosts(w.updateInterval)
		w.clock.Advance(w.updateInterval)
	}

	finalStep := -w.clock.Time()
	w.moveHosts(finalStep)
	w.clock.SetTime(0)
}
