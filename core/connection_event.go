package core

// ConnectionEvent forces a link between two hosts up or down at a given
// time, bypassing range and activeness checks. Useful for replaying contact
// traces through an ExternalEventsQueue.
type ConnectionEvent struct {
	time          float64
	From          int
	To            int
	InterfaceType string
	Up            bool
}

// NewConnectionEvent schedules a forced link change between the hosts with
// the given addresses.
func NewConnectionEvent(t float64, from, to int, interfaceType string, up bool) *ConnectionEvent {
	return &ConnectionEvent{time: t, From: from, To: to, InterfaceType: interfaceType, Up: up}
}

// Time returns the simulation time the event is due.
func (e *ConnectionEvent) Time() float64 { return e.time }

// ProcessEvent resolves both hosts and forces the connection.
func (e *ConnectionEvent) ProcessEvent(w *World) {
	from := w.NodeByAddress(e.From)
	to := w.NodeByAddress(e.To)
	from.ForceConnection(to, e.InterfaceType, e.Up)
}
