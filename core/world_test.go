package core

import (
	"math"
	"testing"
)

// buildWorld wires hosts and event queues into a world with the given
// config; it installs no update listeners.
func buildWorld(ctx *SimContext, hosts []*DTNHost, queues []EventQueue, cfg WorldConfig) *World {
	return NewWorld(ctx, hosts, nil, queues, cfg)
}

func defaultCfg() WorldConfig {
	cfg := DefaultWorldConfig()
	cfg.SizeX = 100
	cfg.SizeY = 100
	return cfg
}

func TestBasicHandshake(t *testing.T) {
	ctx := NewSimContext()
	rec := &recordingListener{clock: ctx.Clock()}
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 10, TransmitSpeed: 1,
	})
	a := newTestHost(0, Coord{X: 0, Y: 0}, nil, []NetworkInterface{proto}, []ConnectionListener{rec})
	b := newTestHost(1, Coord{X: 5, Y: 0}, nil, []NetworkInterface{proto}, []ConnectionListener{rec})
	w := buildWorld(ctx, []*DTNHost{a, b}, nil, defaultCfg())

	w.Update(t.Context())

	if len(a.Interfaces()[0].Connections()) != 1 {
		t.Fatalf("hosts in range not connected after one update")
	}
	if rec.ups() != 1 || rec.downs() != 0 {
		t.Fatalf("listener saw %d ups / %d downs, want 1/0", rec.ups(), rec.downs())
	}
	checkConnectionConsistency(t, w.Hosts())
}

func TestRangeAsymmetryPreventsConnection(t *testing.T) {
	ctx := NewSimContext()
	protoA := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 20, TransmitSpeed: 1,
	})
	protoB := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 10, TransmitSpeed: 1,
	})
	a := newTestHost(0, Coord{X: 0, Y: 0}, nil, []NetworkInterface{protoA}, nil)
	b := newTestHost(1, Coord{X: 15, Y: 0}, nil, []NetworkInterface{protoB}, nil)
	w := buildWorld(ctx, []*DTNHost{a, b}, nil, defaultCfg())

	for i := 0; i < 3; i++ {
		w.Update(t.Context())
	}
	if len(a.Interfaces()[0].Connections()) != 0 {
		t.Fatalf("connected at distance 15 although the weaker radio reaches 10")
	}
}

func TestFlyByConnectsAndDisconnectsOnce(t *testing.T) {
	ctx := NewSimContext()
	rec := &recordingListener{clock: ctx.Clock()}
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 5, TransmitSpeed: 1,
	})
	a := newTestHost(0, Coord{X: 0, Y: 0}, nil, []NetworkInterface{proto}, []ConnectionListener{rec})
	b := newTestHost(1, Coord{X: -10, Y: 0}, &LinearMovement{Velocity: Coord{X: 1, Y: 0}},
		[]NetworkInterface{proto}, []ConnectionListener{rec})
	w := buildWorld(ctx, []*DTNHost{a, b}, nil, defaultCfg())

	for i := 0; i < 20; i++ {
		w.Update(t.Context())
		checkConnectionConsistency(t, w.Hosts())
	}

	if rec.ups() != 1 || rec.downs() != 1 {
		t.Fatalf("fly-by: %d ups / %d downs, want exactly 1/1", rec.ups(), rec.downs())
	}
	// range is closed at distance 5: contact spans x in [-5, +5]
	if up := rec.events[0]; !up.up || up.t != 5 {
		t.Fatalf("up event = %+v, want up at t=5", up)
	}
	if down := rec.events[1]; down.up || down.t != 16 {
		t.Fatalf("down event = %+v, want down at t=16", down)
	}
	if len(a.Interfaces()[0].Connections()) != 0 {
		t.Fatalf("connection survived the fly-by")
	}
}

func TestScanIntervalDelaysFirstContact(t *testing.T) {
	ctx := NewSimContext()
	rec := &recordingListener{clock: ctx.Clock()}
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 10, TransmitSpeed: 1, ScanInterval: 5,
	})
	a := newTestHost(0, Coord{X: 0, Y: 0}, nil, []NetworkInterface{proto}, []ConnectionListener{rec})
	b := newTestHost(1, Coord{X: 5, Y: 0}, nil, []NetworkInterface{proto}, []ConnectionListener{rec})
	// pin the scan offsets: both interfaces start a scan round at t=0
	a.Interfaces()[0].(*SimpleBroadcastInterface).lastScanTime = 0
	b.Interfaces()[0].(*SimpleBroadcastInterface).lastScanTime = 0
	w := buildWorld(ctx, []*DTNHost{a, b}, nil, defaultCfg())

	for i := 0; i < 5; i++ {
		w.Update(t.Context())
		if rec.ups() != 0 {
			t.Fatalf("connected at t=%v, before any scan pulse", ctx.Clock().Time())
		}
	}
	// t=6 is the first instant past lastScanTime+scanInterval
	w.Update(t.Context())
	if rec.ups() != 1 {
		t.Fatalf("no connection at t=6 although a scan round started")
	}

	// the link persists between scan pulses
	w.Update(t.Context())
	if len(a.Interfaces()[0].Connections()) != 1 {
		t.Fatalf("connection dropped between scan pulses")
	}
}

func TestActivenessWindowTearsDownAndRestores(t *testing.T) {
	ctx := NewSimContext()
	rec := &recordingListener{clock: ctx.Clock()}
	ah, err := NewActivenessHandler(ctx.Clock(), [][2]float64{{0, 10}, {20, math.Inf(1)}})
	if err != nil {
		t.Fatalf("NewActivenessHandler: %v", err)
	}
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 10, TransmitSpeed: 1, Activeness: ah,
	})
	a := newTestHost(0, Coord{X: 0, Y: 0}, nil, []NetworkInterface{proto}, []ConnectionListener{rec})
	b := newTestHost(1, Coord{X: 5, Y: 0}, nil, []NetworkInterface{proto}, []ConnectionListener{rec})
	w := buildWorld(ctx, []*DTNHost{a, b}, nil, defaultCfg())

	connectedAt := map[float64]bool{}
	for i := 0; i < 25; i++ {
		w.Update(t.Context())
		connectedAt[ctx.Clock().Time()] = len(a.Interfaces()[0].Connections()) == 1
	}

	if !connectedAt[5] {
		t.Fatalf("not connected at t=5 inside the active window")
	}
	for _, tm := range []float64{10, 15, 19} {
		if connectedAt[tm] {
			t.Fatalf("still connected at t=%v inside the inactive window", tm)
		}
	}
	if !connectedAt[20] {
		t.Fatalf("not reconnected at t=20 after the window reopened")
	}
	if rec.ups() != 2 || rec.downs() != 1 {
		t.Fatalf("%d ups / %d downs, want 2/1", rec.ups(), rec.downs())
	}
}

// runDeterminismScenario builds a fresh world of moving hosts and returns
// the recorded transition sequence.
func runDeterminismScenario(t *testing.T) []transition {
	t.Helper()
	ctx := NewSimContext()
	rec := &recordingListener{clock: ctx.Clock()}
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 10, TransmitSpeed: 1, ActivenessJitterMax: 3,
	})

	var hosts []*DTNHost
	for i := 0; i < 6; i++ {
		loc := Coord{X: float64(i * 15), Y: 0}
		mv := &LinearMovement{
			Velocity: Coord{X: float64(1 - i%3), Y: float64(i % 2)},
			Bounds:   Coord{X: 100, Y: 100},
		}
		hosts = append(hosts, NewDTNHost(i, "n", loc, mv, []NetworkInterface{proto},
			[]ConnectionListener{rec}))
	}

	cfg := defaultCfg() // randomized update order is the default
	w := buildWorld(ctx, hosts, nil, cfg)
	for i := 0; i < 40; i++ {
		w.Update(t.Context())
		checkConnectionConsistency(t, w.Hosts())
	}
	return rec.events
}

func TestDeterministicTransitionSequence(t *testing.T) {
	first := runDeterminismScenario(t)
	second := runDeterminismScenario(t)

	if len(first) == 0 {
		t.Fatalf("scenario produced no transitions; nothing was compared")
	}
	if len(first) != len(second) {
		t.Fatalf("runs produced %d vs %d transitions", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("transition %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSimulateConnectionsOnceFreezesTopology(t *testing.T) {
	ctx := NewSimContext()
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 10, TransmitSpeed: 1,
	})
	a := newTestHost(0, Coord{X: 0, Y: 0}, nil, []NetworkInterface{proto}, nil)
	// hosts move before the update pass: b is at x=5 for the first pass
	b := newTestHost(1, Coord{X: -5, Y: 0}, &LinearMovement{Velocity: Coord{X: 10, Y: 0}},
		[]NetworkInterface{proto}, nil)
	cfg := defaultCfg()
	cfg.SimulateConnectionsOnce = true
	w := buildWorld(ctx, []*DTNHost{a, b}, nil, cfg)

	w.Update(t.Context())
	if len(a.Interfaces()[0].Connections()) != 1 {
		t.Fatalf("no connection after the first pass")
	}

	// b is far out of range now, but connectivity is frozen
	for i := 0; i < 5; i++ {
		w.Update(t.Context())
	}
	if len(a.Interfaces()[0].Connections()) != 1 {
		t.Fatalf("topology changed although connectivity was frozen after the first pass")
	}
}

func TestNodeByAddress(t *testing.T) {
	ctx := NewSimContext()
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 10, TransmitSpeed: 1,
	})
	var hosts []*DTNHost
	for i := 0; i < 4; i++ {
		hosts = append(hosts, newTestHost(i, Coord{X: float64(30 * i)}, nil,
			[]NetworkInterface{proto}, nil))
	}
	w := buildWorld(ctx, hosts, nil, defaultCfg())

	for _, h := range hosts {
		if got := w.NodeByAddress(h.Address()); got != h {
			t.Fatalf("NodeByAddress(%d) = %v, want %v", h.Address(), got, h)
		}
	}
	expectSimError(t, func() { w.NodeByAddress(-1) })
	expectSimError(t, func() { w.NodeByAddress(4) })
}

func TestConnectionEventForcesLink(t *testing.T) {
	ctx := NewSimContext()
	rec := &recordingListener{clock: ctx.Clock()}
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 1, TransmitSpeed: 1,
	})
	// far apart: only the forced event can connect them
	a := newTestHost(0, Coord{X: 0, Y: 0}, nil, []NetworkInterface{proto}, []ConnectionListener{rec})
	b := newTestHost(1, Coord{X: 90, Y: 90}, nil, []NetworkInterface{proto}, []ConnectionListener{rec})
	queue := NewExternalEventsQueue(
		NewConnectionEvent(0.5, 0, 1, "T", true),
		NewConnectionEvent(2.5, 0, 1, "T", false),
	)
	cfg := defaultCfg()
	cfg.SimulateConnections = false // keep the radio model out of the way
	w := buildWorld(ctx, []*DTNHost{a, b}, []EventQueue{queue}, cfg)

	w.Update(t.Context())
	if len(a.Interfaces()[0].Connections()) != 1 {
		t.Fatalf("forced connection missing after its event time")
	}
	w.Update(t.Context())
	w.Update(t.Context())
	if len(a.Interfaces()[0].Connections()) != 0 {
		t.Fatalf("forced teardown did not remove the connection")
	}
	if rec.ups() != 1 || rec.downs() != 1 {
		t.Fatalf("%d ups / %d downs, want 1/1", rec.ups(), rec.downs())
	}
}

func TestScheduledUpdateRunsExtraPass(t *testing.T) {
	ctx := NewSimContext()
	rec := &recordingListener{clock: ctx.Clock()}
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 10, TransmitSpeed: 1,
	})
	a := newTestHost(0, Coord{X: 0, Y: 0}, nil, []NetworkInterface{proto}, []ConnectionListener{rec})
	b := newTestHost(1, Coord{X: 5, Y: 0}, nil, []NetworkInterface{proto}, []ConnectionListener{rec})
	w := buildWorld(ctx, []*DTNHost{a, b}, nil, defaultCfg())
	w.ScheduleUpdate(0.25)

	w.Update(t.Context())

	// the scheduled pass at t=0.25 already connected the pair
	if len(rec.events) != 1 || rec.events[0].t != 0.25 {
		t.Fatalf("events = %+v, want a single up at t=0.25", rec.events)
	}
}

func TestCancelStopsHostUpdates(t *testing.T) {
	ctx := NewSimContext()
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 10, TransmitSpeed: 1,
	})
	a := newTestHost(0, Coord{X: 0, Y: 0}, nil, []NetworkInterface{proto}, nil)
	b := newTestHost(1, Coord{X: 5, Y: 0}, nil, []NetworkInterface{proto}, nil)
	w := buildWorld(ctx, []*DTNHost{a, b}, nil, defaultCfg())

	w.Cancel()
	w.Update(t.Context())

	if len(a.Interfaces()[0].Connections()) != 0 {
		t.Fatalf("hosts updated after cancellation")
	}
	// time still advances; cancellation is cooperative, not a rollback
	if got := ctx.Clock().Time(); got != 1 {
		t.Fatalf("clock after cancelled update = %v, want 1", got)
	}
}

func TestUpdateListenersRunOncePerUpdate(t *testing.T) {
	ctx := NewSimContext()
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 10, TransmitSpeed: 1,
	})
	hosts := []*DTNHost{newTestHost(0, Coord{}, nil, []NetworkInterface{proto}, nil)}

	calls := 0
	ul := updateCounter{calls: &calls}
	w := NewWorld(ctx, hosts, []UpdateListener{ul}, nil, defaultCfg())

	for i := 0; i < 3; i++ {
		w.Update(t.Context())
	}
	if calls != 3 {
		t.Fatalf("update listener ran %d times, want 3", calls)
	}
}

type updateCounter struct{ calls *int }

func (u updateCounter) Updated(hosts []*DTNHost) { *u.calls++ }

func TestWarmupMovesHostsAndZeroesClock(t *testing.T) {
	ctx := NewSimContext()
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 10, TransmitSpeed: 1,
	})
	h := newTestHost(0, Coord{X: 0, Y: 0}, &LinearMovement{Velocity: Coord{X: 1, Y: 0}},
		[]NetworkInterface{proto}, nil)
	w := buildWorld(ctx, []*DTNHost{h}, nil, defaultCfg())

	ctx.Clock().SetTime(-5.5)
	w.WarmupMovementModel(5.5)

	if got := ctx.Clock().Time(); got != 0 {
		t.Fatalf("clock after warmup = %v, want 0", got)
	}
	if got := h.Location().X; math.Abs(got-5.5) > 1e-9 {
		t.Fatalf("host moved %v during warmup, want 5.5 (full steps plus the fractional one)", got)
	}
}

func TestMovementPassUsesNominalInterval(t *testing.T) {
	ctx := NewSimContext()
	var log []string
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T", TransmitRange: 10, TransmitSpeed: 1,
	})
	h := newTestHost(0, Coord{X: 0, Y: 0}, &LinearMovement{Velocity: Coord{X: 1, Y: 0}},
		[]NetworkInterface{proto}, nil)
	// an event in mid-interval advances the clock partway
	queue := NewExternalEventsQueue(&markerEvent{time: 0.5, name: "mid", log: &log})
	w := buildWorld(ctx, []*DTNHost{h}, []EventQueue{queue}, defaultCfg())

	w.Update(t.Context())

	// hosts still move by the full interval, not the remainder
	if got := h.Location().X; got != 1 {
		t.Fatalf("host moved %v, want the nominal interval 1", got)
	}
}
