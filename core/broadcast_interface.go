package core

// SimpleBroadcastInterface is the basic radio variant: a binary in-range
// test, no interference model, one shared medium per interface type.
type SimpleBroadcastInterface struct {
	InterfaceBase
}

// NewSimpleBroadcastInterface creates a prototype interface from group
// settings. Hosts receive replicas of the prototype, not the prototype
// itself.
func NewSimpleBroadcastInterface(ctx *SimContext, cfg InterfaceConfig) (*SimpleBroadcastInterface, error) {
	base, err := newInterfaceBase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ni := &SimpleBroadcastInterface{InterfaceBase: base}
	ni.self = ni
	return ni, nil
}

// Replicate produces a fresh interface with the same configuration. The
// replica draws its own jitter and scan offset, starts with no connections
// and no host.
func (ni *SimpleBroadcastInterface) Replicate() NetworkInterface {
	c := &SimpleBroadcastInterface{InterfaceBase: ni.InterfaceBase.replicate()}
	c.self = c
	return c
}

// Update refreshes the connection state of this interface: an inactive
// interface loses all its links, links whose peer moved out of range are
// torn down, and new in-range peers found through the connectivity grid are
// connected (gated by the scanning duty cycle inside Connect).
func (ni *SimpleBroadcastInterface) Update() {
	if !ni.IsActive() {
		for len(ni.connections) > 0 {
			con := ni.connections[0]
			ni.removeConnectionByIndex(0, con.OtherInterface(ni.self))
		}
		return
	}

	if ni.optimizer == nil {
		return // no radio range, nothing to connect
	}
	ni.optimizer.UpdateLocation(ni.self)

	// first break the connections whose peer left the shared range
	for i := 0; i < len(ni.connections); {
		con := ni.connections[i]
		other := con.OtherInterface(ni.self)
		if !ni.isWithinRange(other) {
			ni.disconnect(con, other)
			ni.connections = append(ni.connections[:i], ni.connections[i+1:]...)
		} else {
			i++
		}
	}

	// then try the current near neighbors
	for _, cand := range ni.optimizer.NearInterfaces(ni.self) {
		ni.Connect(cand)
	}
}

// Connect performs the checked handshake with another interface: matching
// type, this side scanning, the peer active, mutually in range, not already
// connected, and not this interface itself.
func (ni *SimpleBroadcastInterface) Connect(other NetworkInterface) {
	if other.InterfaceType() != ni.interfaceType {
		return
	}
	if ni.IsScanning() && other.IsActive() && ni.isWithinRange(other) &&
		!ni.isConnected(other) && ni.self != other {
		con := NewConnection(ni.host, ni.self, other.Host(), other, ni.TransmitSpeed(other))
		ni.connect(con, other)
	}
}

// CreateConnection forces a connection without any range or activeness
// checks. External events use this to inject links.
func (ni *SimpleBroadcastInterface) CreateConnection(other NetworkInterface) {
	if !ni.isConnected(other) && ni.self != other {
		con := NewConnection(ni.host, ni.self, other.Host(), other, ni.TransmitSpeed(other))
		ni.connect(con, other)
	}
}
