package core

import "fmt"

// Router is the callback surface the connectivity core offers to a routing
// layer. Routing itself is an external collaborator; hosts accept a nil
// router.
type Router interface {
	ConnectionUp(con *Connection)
	ConnectionDown(con *Connection)
	Update()
}

// DTNHost is one mobile node: a location, one or more network interfaces, a
// com bus for loose inter-module coupling, and an optional router. A host's
// address equals its index in the world's host list for the whole run.
type DTNHost struct {
	address    int
	name       string
	location   Coord
	comBus     *ModuleCommunicationBus
	interfaces []NetworkInterface
	movement   MovementModel
	router     Router
}

// NewDTNHost creates a host at the given location. Each prototype interface
// is replicated for this host; the replicas receive the connection
// listeners and are bound to the host (which registers them with the
// connectivity grids).
func NewDTNHost(address int, name string, location Coord, movement MovementModel,
	protoInterfaces []NetworkInterface, cListeners []ConnectionListener) *DTNHost {
	h := &DTNHost{
		address:  address,
		name:     name,
		location: location,
		comBus:   NewModuleCommunicationBus(),
		movement: movement,
	}
	for _, proto := range protoInterfaces {
		ni := proto.Replicate()
		ni.SetConnectionListeners(cListeners)
		ni.SetHost(h)
		h.interfaces = append(h.interfaces, ni)
	}
	return h
}

// Address returns the network address of the host.
func (h *DTNHost) Address() int { return h.address }

// Location returns the host's current location.
func (h *DTNHost) Location() Coord { return h.location }

// SetLocation places the host at the given coordinate.
func (h *DTNHost) SetLocation(c Coord) { h.location = c }

// ComBus returns the host's module communication bus.
func (h *DTNHost) ComBus() *ModuleCommunicationBus { return h.comBus }

// Interfaces returns the host's network interfaces.
func (h *DTNHost) Interfaces() []NetworkInterface { return h.interfaces }

// InterfaceByType returns the host's interface of the given type, or the
// first interface when interfaceType is empty. Nil if no match.
func (h *DTNHost) InterfaceByType(interfaceType string) NetworkInterface {
	if interfaceType == "" && len(h.interfaces) > 0 {
		return h.interfaces[0]
	}
	for _, ni := range h.interfaces {
		if ni.InterfaceType() == interfaceType {
			return ni
		}
	}
	return nil
}

// SetRouter installs the routing callback surface.
func (h *DTNHost) SetRouter(r Router) { h.router = r }

// Router returns the installed router, or nil.
func (h *DTNHost) Router() Router { return h.router }

// connectionUp tells the routing layer a new connection appeared on one of
// the host's interfaces.
func (h *DTNHost) connectionUp(con *Connection) {
	if h.router != nil {
		h.router.ConnectionUp(con)
	}
}

// connectionDown tells the routing layer a connection was torn down.
func (h *DTNHost) connectionDown(con *Connection) {
	if h.router != nil {
		h.router.ConnectionDown(con)
	}
}

// Update refreshes the host for the current simulation time. When
// simulateConnections is set, every interface re-evaluates its links; the
// router, if any, updates afterwards.
func (h *DTNHost) Update(simulateConnections bool) {
	if simulateConnections {
		for _, ni := range h.interfaces {
			ni.Update()
		}
	}
	if h.router != nil {
		h.router.Update()
	}
}

// Move advances the host's location by dt seconds of its movement model.
func (h *DTNHost) Move(dt float64) {
	if h.movement == nil {
		return
	}
	h.location = h.movement.Move(dt, h.location)
}

// ForceConnection creates or destroys a connection to another host without
// range or activeness checks, on the interfaces of the given type (the
// first interface when interfaceType is empty). Missing interfaces are a
// fatal error: forced connections come from external events that name
// concrete hosts.
func (h *DTNHost) ForceConnection(other *DTNHost, interfaceType string, up bool) {
	ni := h.InterfaceByType(interfaceType)
	otherNi := other.InterfaceByType(interfaceType)
	if ni == nil || otherNi == nil {
		simFatalf("hosts %v and %v have no interface of type %q to force a connection on",
			h, other, interfaceType)
	}
	if up {
		ni.CreateConnection(otherNi)
	} else {
		ni.DestroyConnection(otherNi)
	}
}

func (h *DTNHost) String() string {
	return fmt.Sprintf("%s%d", h.name, h.address)
}
