package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/signalsfoundry/dtn-simulator/model"
)

// Scenario is the outcome of loading a scenario definition: the world plus
// a few counts worth logging.
type Scenario struct {
	World     *World
	HostCount int
	Groups    []string
}

// LoadScenario reads a JSON scenario from r and builds the world: interface
// prototypes per group, replicated hosts with dense addresses, movement
// models, scheduled events, and the warmup pass. Every host receives the
// connection listeners as it is created, so no transition is missed; the
// update listeners are installed on the world. All settings problems in the
// file are collected and reported together.
func LoadScenario(ctx *SimContext, r io.Reader,
	cListeners []ConnectionListener, uListeners []UpdateListener) (*Scenario, error) {
	var def model.ScenarioDefinition
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	return BuildScenario(ctx, &def, cListeners, uListeners)
}

// BuildScenario builds the world from an in-memory definition.
func BuildScenario(ctx *SimContext, def *model.ScenarioDefinition,
	cListeners []ConnectionListener, uListeners []UpdateListener) (*Scenario, error) {
	var errs *multierror.Error

	if def.World.UpdateInterval <= 0 {
		errs = multierror.Append(errs,
			settingsErrorf("world.update_interval must be positive, got %v", def.World.UpdateInterval))
	}
	if len(def.Groups) == 0 {
		errs = multierror.Append(errs, settingsErrorf("scenario defines no host groups"))
	}

	type groupProto struct {
		def    *model.GroupDefinition
		protos []NetworkInterface
	}
	var groups []groupProto

	for gi := range def.Groups {
		g := &def.Groups[gi]
		if g.Count <= 0 {
			errs = multierror.Append(errs,
				settingsErrorf("group %q: count must be positive, got %d", g.ID, g.Count))
		}
		if len(g.Interfaces) == 0 {
			errs = multierror.Append(errs,
				settingsErrorf("group %q: at least one interface is required", g.ID))
		}
		if g.Movement != nil && g.Movement.Model != "static" && g.Movement.Model != "linear" {
			errs = multierror.Append(errs,
				settingsErrorf("group %q: unknown movement model %q", g.ID, g.Movement.Model))
		}

		var protos []NetworkInterface
		for _, ifd := range g.Interfaces {
			if ifd.TransmitRange == nil {
				errs = multierror.Append(errs,
					settingsErrorf("group %q interface %q: transmit_range is required", g.ID, ifd.Type))
			}
			if ifd.TransmitSpeed == nil {
				errs = multierror.Append(errs,
					settingsErrorf("group %q interface %q: transmit_speed is required", g.ID, ifd.Type))
			}
			if ifd.TransmitRange == nil || ifd.TransmitSpeed == nil {
				continue
			}
			var activeness *ActivenessHandler
			if len(ifd.Active) > 0 {
				var err error
				activeness, err = NewActivenessHandler(ctx.Clock(), ifd.Active)
				if err != nil {
					errs = multierror.Append(errs,
						fmt.Errorf("group %q interface %q: %w", g.ID, ifd.Type, err))
					continue
				}
			}
			proto, err := NewSimpleBroadcastInterface(ctx, InterfaceConfig{
				InterfaceType:       ifd.Type,
				TransmitRange:       *ifd.TransmitRange,
				TransmitSpeed:       *ifd.TransmitSpeed,
				ScanInterval:        ifd.ScanInterval,
				ActivenessJitterMax: ifd.ActivenessJitter,
				Activeness:          activeness,
			})
			if err != nil {
				errs = multierror.Append(errs,
					fmt.Errorf("group %q interface %q: %w", g.ID, ifd.Type, err))
				continue
			}
			protos = append(protos, proto)
		}
		groups = append(groups, groupProto{def: g, protos: protos})
	}

	for _, ev := range def.Events {
		switch ev.Type {
		case "connection", "update":
		default:
			errs = multierror.Append(errs,
				settingsErrorf("unknown event type %q", ev.Type))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	cfg := WorldConfig{
		SizeX:                   def.World.SizeX,
		SizeY:                   def.World.SizeY,
		UpdateInterval:          def.World.UpdateInterval,
		SimulateConnections:     true,
		RandomizeUpdateOrder:    true,
		SimulateConnectionsOnce: def.Optimization.SimulateConnectionsOnce,
		Realtime:                def.Optimization.Realtime,
	}
	if def.Optimization.RandomizeUpdateOrder != nil {
		cfg.RandomizeUpdateOrder = *def.Optimization.RandomizeUpdateOrder
	}

	var hosts []*DTNHost
	var groupIDs []string
	address := 0
	for _, g := range groups {
		groupIDs = append(groupIDs, g.def.ID)
		for i := 0; i < g.def.Count; i++ {
			loc := groupLocation(g.def, i)
			movement := buildMovement(g.def.Movement, cfg)
			hosts = append(hosts, NewDTNHost(address, g.def.ID, loc, movement, g.protos, cListeners))
			address++
		}
	}

	var eventQueues []EventQueue
	scheduledTimes := []float64{}
	var events []ExternalEvent
	for _, ev := range def.Events {
		switch ev.Type {
		case "connection":
			events = append(events, NewConnectionEvent(ev.Time, ev.From, ev.To, ev.Interface, ev.Up))
		case "update":
			scheduledTimes = append(scheduledTimes, ev.Time)
		}
	}
	if len(events) > 0 {
		eventQueues = append(eventQueues, NewExternalEventsQueue(events...))
	}

	w := NewWorld(ctx, hosts, uListeners, eventQueues, cfg)
	for _, t := range scheduledTimes {
		w.ScheduleUpdate(t)
	}

	if def.World.Warmup > 0 {
		ctx.Clock().SetTime(-def.World.Warmup)
		w.WarmupMovementModel(def.World.Warmup)
	}

	return &Scenario{World: w, HostCount: len(hosts), Groups: groupIDs}, nil
}

func groupLocation(g *model.GroupDefinition, i int) Coord {
	if len(g.Locations) == 0 {
		return Coord{}
	}
	if i >= len(g.Locations) {
		i = len(g.Locations) - 1
	}
	return Coord{X: g.Locations[i][0], Y: g.Locations[i][1]}
}

func buildMovement(md *model.MovementDefinition, cfg WorldConfig) MovementModel {
	if md == nil {
		return StaticMovement{}
	}
	switch md.Model {
	case "linear":
		return &LinearMovement{
			Velocity: Coord{X: md.Velocity[0], Y: md.Velocity[1]},
			Bounds:   Coord{X: float64(cfg.SizeX), Y: float64(cfg.SizeY)},
		}
	default:
		return StaticMovement{}
	}
}
