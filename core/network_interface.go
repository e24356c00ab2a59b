package core

import "fmt"

// Com bus property identifiers published by network interfaces.
const (
	// ScanIntervalID carries the scanning interval (float64, seconds).
	ScanIntervalID = "Network.scanInterval"
	// RangeID carries the current effective radio range (float64).
	RangeID = "Network.radioRange"
	// SpeedID carries the transmission speed (int, bits per second).
	SpeedID = "Network.speed"
	// EnergyValueID carries the remaining battery units (float64). The
	// connectivity core only reads it.
	EnergyValueID = "Energy.value"
)

const (
	conUp = iota
	conDown
)

// NetworkInterface is a radio of a DTNHost. Concrete radio variants embed
// InterfaceBase for the shared state and implement the polymorphic
// operations: Update decides which links to keep, Connect performs the
// checked handshake, CreateConnection forces an unchecked link, and
// Replicate produces a fresh interface of the same kind for another host.
type NetworkInterface interface {
	ModuleCommunicationListener

	Update()
	Connect(other NetworkInterface)
	CreateConnection(other NetworkInterface)
	Replicate() NetworkInterface

	SetHost(h *DTNHost)
	Host() *DTNHost
	InterfaceType() string
	TransmitRange() float64
	TransmitSpeed(peer NetworkInterface) int
	Connections() []*Connection
	IsActive() bool
	IsScanning() bool
	IsTransferring() bool
	Location() Coord
	DestroyConnection(other NetworkInterface)
	SetConnectionListeners(ls []ConnectionListener)

	base() *InterfaceBase
}

// InterfaceConfig carries the group-level settings of an interface.
type InterfaceConfig struct {
	// InterfaceType groups interfaces that can talk to each other; two
	// interfaces are compatible iff their types match.
	InterfaceType string
	// TransmitRange is the radio range in world units. Must be >= 0.
	TransmitRange float64
	// TransmitSpeed is the link speed in bits per second. Must be >= 0.
	TransmitSpeed int
	// ScanInterval is the scan cadence in seconds; 0 means continuously
	// scanning.
	ScanInterval float64
	// ActivenessJitterMax bounds the per-interface random offset applied
	// to the activeness schedule.
	ActivenessJitterMax int
	// Activeness decides when the interface may be on; nil means always.
	Activeness *ActivenessHandler
}

func (c InterfaceConfig) validate() error {
	if c.TransmitRange < 0 {
		return settingsErrorf("negative value (%v) not accepted for transmitRange", c.TransmitRange)
	}
	if c.TransmitSpeed < 0 {
		return settingsErrorf("negative value (%v) not accepted for transmitSpeed", c.TransmitSpeed)
	}
	if c.ScanInterval < 0 {
		return settingsErrorf("negative value (%v) not accepted for scanInterval", c.ScanInterval)
	}
	if c.ActivenessJitterMax < 0 {
		return settingsErrorf("negative value (%v) not accepted for activenessOffsetJitter", c.ActivenessJitterMax)
	}
	return nil
}

// InterfaceBase holds the state and behavior shared by all radio variants.
// It is embedded in each concrete interface type; the self field points back
// at the embedding variant so shared code can hand out the full interface
// value (grid registration, connection endpoints).
type InterfaceBase struct {
	ctx  *SimContext
	self NetworkInterface
	host *DTNHost

	interfaceType    string
	transmitRange    float64
	oldTransmitRange float64
	transmitSpeed    int

	scanInterval float64
	lastScanTime float64

	connections []*Connection
	cListeners  []ConnectionListener

	activeness            *ActivenessHandler
	activenessJitterMax   int
	activenessJitterValue int

	optimizer ConnectivityOptimizer
}

func newInterfaceBase(ctx *SimContext, cfg InterfaceConfig) (InterfaceBase, error) {
	if err := cfg.validate(); err != nil {
		return InterfaceBase{}, err
	}
	return InterfaceBase{
		ctx:                 ctx,
		interfaceType:       cfg.InterfaceType,
		transmitRange:       cfg.TransmitRange,
		transmitSpeed:       cfg.TransmitSpeed,
		scanInterval:        cfg.ScanInterval,
		activenessJitterMax: cfg.ActivenessJitterMax,
		activeness:          cfg.Activeness,
	}, nil
}

// replicate copies the configuration into a fresh base for a new host. The
// copy draws its own activeness jitter and initial scan offset from the
// class-wide RNG; connections start empty and the host is unset.
func (b *InterfaceBase) replicate() InterfaceBase {
	nb := InterfaceBase{
		ctx:                 b.ctx,
		interfaceType:       b.interfaceType,
		transmitRange:       b.transmitRange,
		transmitSpeed:       b.transmitSpeed,
		scanInterval:        b.scanInterval,
		activenessJitterMax: b.activenessJitterMax,
		activeness:          b.activeness,
		cListeners:          b.cListeners,
	}
	if b.activenessJitterMax > 0 {
		nb.activenessJitterValue = b.ctx.ifaceRNG.Intn(b.activenessJitterMax)
	}
	// draw lastScanTime of [0, scanInterval) to desynchronize scan rounds
	nb.lastScanTime = b.ctx.ifaceRNG.Float64() * nb.scanInterval
	return nb
}

func (b *InterfaceBase) base() *InterfaceBase { return b }

// SetHost binds the interface to its host. The first interface of a host
// publishes the network properties on the host's com bus and subscribes to
// their changes. Interfaces with a positive range register with the
// connectivity grid of their type.
func (b *InterfaceBase) SetHost(h *DTNHost) {
	b.host = h
	bus := h.ComBus()

	if !bus.ContainsProperty(ScanIntervalID) && !bus.ContainsProperty(RangeID) {
		bus.AddProperty(ScanIntervalID, b.scanInterval)
		bus.AddProperty(RangeID, b.transmitRange)
		bus.AddProperty(SpeedID, b.transmitSpeed)
		bus.Subscribe(ScanIntervalID, b.self)
		bus.Subscribe(RangeID, b.self)
		bus.Subscribe(SpeedID, b.self)
	}

	if b.transmitRange > 0 {
		b.optimizer = b.ctx.grids.gridFor(b.interfaceType, b.transmitRange)
		b.optimizer.AddInterface(b.self)
	} else {
		b.optimizer = nil
	}
}

// Host returns the host this interface is attached to, or nil before
// SetHost.
func (b *InterfaceBase) Host() *DTNHost { return b.host }

// InterfaceType returns the compatibility group of this interface.
func (b *InterfaceBase) InterfaceType() string { return b.interfaceType }

// TransmitRange returns the current effective radio range.
func (b *InterfaceBase) TransmitRange() float64 { return b.transmitRange }

// TransmitSpeed returns the transfer speed towards the given peer.
func (b *InterfaceBase) TransmitSpeed(peer NetworkInterface) int { return b.transmitSpeed }

// Connections returns the currently live connections of this interface.
func (b *InterfaceBase) Connections() []*Connection { return b.connections }

// SetConnectionListeners installs the listeners notified on link
// transitions.
func (b *InterfaceBase) SetConnectionListeners(ls []ConnectionListener) { b.cListeners = ls }

// Location returns the current location of the interface's host.
func (b *InterfaceBase) Location() Coord { return b.host.Location() }

// IsActive reports whether the interface is on at the moment. An
// active->inactive transition publishes range 0 on the com bus (stashing the
// configured range), and the reverse transition restores it; the bus
// notification is what actually mutates transmitRange.
func (b *InterfaceBase) IsActive() bool {
	if b.activeness == nil {
		return true
	}

	active := b.activeness.IsActive(b.activenessJitterValue)
	if active && b.host.ComBus().GetDouble(EnergyValueID, 1) <= 0 {
		// battery drained
		active = false
	}

	if !active && b.transmitRange > 0 {
		b.oldTransmitRange = b.transmitRange
		b.host.ComBus().UpdateProperty(RangeID, 0.0)
	} else if active && b.transmitRange == 0 {
		b.host.ComBus().UpdateProperty(RangeID, b.oldTransmitRange)
	}
	return active
}

// IsScanning reports whether the interface is in a scan pulse right now.
// New connections can only form while scanning; existing ones persist
// between pulses.
func (b *InterfaceBase) IsScanning() bool {
	simTime := b.ctx.clock.Time()

	if !b.self.IsActive() {
		return false
	}

	if b.scanInterval > 0 {
		if simTime < b.lastScanTime {
			return false // not yet time for the first scan
		}
		if simTime > b.lastScanTime+b.scanInterval {
			b.lastScanTime = simTime // next scan round starts
			return true
		}
		return simTime == b.lastScanTime
	}
	// interval 0: continuously scanning
	return true
}

// IsTransferring reports whether any connection of this interface is
// carrying a transfer.
func (b *InterfaceBase) IsTransferring() bool {
	for _, c := range b.connections {
		if c.IsTransferring() {
			return true
		}
	}
	return false
}

// ModuleValueChanged applies a com bus property change to the interface.
// Any key other than the three network properties is a fatal error.
func (b *InterfaceBase) ModuleValueChanged(key string, newValue any) {
	switch key {
	case ScanIntervalID:
		b.scanInterval = newValue.(float64)
	case SpeedID:
		b.transmitSpeed = newValue.(int)
	case RangeID:
		b.transmitRange = newValue.(float64)
	default:
		simFatalf("unexpected com bus key %q", key)
	}
}

// isWithinRange reports whether both interfaces are inside each other's
// radio range. The smaller of the two ranges decides: the weaker radio
// determines the link.
func (b *InterfaceBase) isWithinRange(other NetworkInterface) bool {
	smallerRange := other.TransmitRange()
	if b.transmitRange < smallerRange {
		smallerRange = b.transmitRange
	}
	return b.host.Location().Distance(other.Host().Location()) <= smallerRange
}

// isConnected reports whether a live connection to the other interface
// already exists.
func (b *InterfaceBase) isConnected(other NetworkInterface) bool {
	for _, c := range b.connections {
		if c.OtherInterface(b.self) == other {
			return true
		}
	}
	return false
}

// connect appends the connection on both sides, notifies the connection
// listeners, and informs both routers. Callers have already verified the
// connection preconditions.
func (b *InterfaceBase) connect(con *Connection, other NetworkInterface) {
	b.connections = append(b.connections, con)
	b.notifyConnectionListeners(conUp, other.Host())

	ob := other.base()
	ob.connections = append(ob.connections, con)

	b.host.connectionUp(con)
	other.Host().connectionUp(con)
}

// disconnect marks the connection down, removes it from the peer and
// notifies listeners and routers. The caller removes the connection from
// its own list. A connection missing on the peer means the bidirectionality
// invariant was broken earlier.
func (b *InterfaceBase) disconnect(con *Connection, other NetworkInterface) {
	con.SetUpState(false)
	b.notifyConnectionListeners(conDown, other.Host())

	if !other.base().removeConnection(con) {
		simFatalf("no connection %v found in %v", con, other.Host())
	}

	b.host.connectionDown(con)
	other.Host().connectionDown(con)
}

// DestroyConnection tears down the connection to the other interface, if
// one exists. Both sides are updated together; missing peer state is fatal.
func (b *InterfaceBase) DestroyConnection(other NetworkInterface) {
	otherHost := other.Host()
	for i := 0; i < len(b.connections); {
		if b.connections[i].OtherNode(b.host) == otherHost {
			b.removeConnectionByIndex(i, other)
		} else {
			i++
		}
	}
	// no connection existed: nothing to do
}

// removeConnectionByIndex tears down the connection at the given position
// of this interface's connection list.
func (b *InterfaceBase) removeConnectionByIndex(index int, other NetworkInterface) {
	con := b.connections[index]
	otherHost := other.Host()

	con.SetUpState(false)
	b.notifyConnectionListeners(conDown, otherHost)

	if !other.base().removeConnection(con) {
		simFatalf("no connection %v found in %v", con, otherHost)
	}

	b.host.connectionDown(con)
	otherHost.connectionDown(con)

	b.connections = append(b.connections[:index], b.connections[index+1:]...)
}

func (b *InterfaceBase) removeConnection(con *Connection) bool {
	for i, c := range b.connections {
		if c == con {
			b.connections = append(b.connections[:i], b.connections[i+1:]...)
			return true
		}
	}
	return false
}

func (b *InterfaceBase) notifyConnectionListeners(kind int, otherHost *DTNHost) {
	for _, cl := range b.cListeners {
		switch kind {
		case conUp:
			cl.HostsConnected(b.host, otherHost)
		case conDown:
			cl.HostsDisconnected(b.host, otherHost)
		}
	}
}

func (b *InterfaceBase) String() string {
	return fmt.Sprintf("%s interface of %v", b.interfaceType, b.host)
}
