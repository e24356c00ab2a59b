package core

import "fmt"

// Connection is a live symmetric link between two network interfaces. Both
// endpoints hold the same *Connection in their connection lists; the sides
// are always created and destroyed together.
type Connection struct {
	fromNode      *DTNHost
	fromInterface NetworkInterface
	toNode        *DTNHost
	toInterface   NetworkInterface

	up           bool
	transferring bool
	speed        int
}

// NewConnection creates a connection between two interfaces. The connection
// starts in the up state.
func NewConnection(fromNode *DTNHost, fromInterface NetworkInterface,
	toNode *DTNHost, toInterface NetworkInterface, speed int) *Connection {
	return &Connection{
		fromNode:      fromNode,
		fromInterface: fromInterface,
		toNode:        toNode,
		toInterface:   toInterface,
		up:            true,
		speed:         speed,
	}
}

// IsUp reports whether the connection is still live.
func (c *Connection) IsUp() bool { return c.up }

// SetUpState marks the connection up or down.
func (c *Connection) SetUpState(up bool) { c.up = up }

// IsTransferring reports whether a transfer is in progress on this
// connection.
func (c *Connection) IsTransferring() bool { return c.transferring }

// SetTransferring marks the connection as carrying (or no longer carrying)
// a transfer. The routing layer drives this.
func (c *Connection) SetTransferring(t bool) { c.transferring = t }

// Speed returns the transfer speed of the connection in bits per second.
func (c *Connection) Speed() int { return c.speed }

// OtherInterface returns the endpoint on the opposite side of ni.
func (c *Connection) OtherInterface(ni NetworkInterface) NetworkInterface {
	if c.fromInterface == ni {
		return c.toInterface
	}
	return c.fromInterface
}

// OtherNode returns the host on the opposite side of h.
func (c *Connection) OtherNode(h *DTNHost) *DTNHost {
	if c.fromNode == h {
		return c.toNode
	}
	return c.fromNode
}

func (c *Connection) String() string {
	state := "up"
	if !c.up {
		state = "down"
	}
	return fmt.Sprintf("%s<->%s (%s)", c.fromNode, c.toNode, state)
}
