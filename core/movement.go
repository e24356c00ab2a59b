package core

// MovementModel produces a host's next location for a time step. Movement
// models are external collaborators of the connectivity core; these two are
// enough to drive the loop end to end.
type MovementModel interface {
	Move(dt float64, current Coord) Coord
}

// StaticMovement leaves the host where it is.
type StaticMovement struct{}

// Move returns the current location unchanged.
func (StaticMovement) Move(dt float64, current Coord) Coord { return current }

// LinearMovement moves a host with a constant velocity, reflecting off the
// world bounds when they are set. Each host owns its model instance since
// reflection flips the velocity in place.
type LinearMovement struct {
	Velocity Coord
	// Bounds is the world size; a zero value disables reflection on that
	// axis.
	Bounds Coord
}

// Move advances the location by velocity*dt and reflects at the bounds.
func (m *LinearMovement) Move(dt float64, current Coord) Coord {
	next := Coord{
		X: current.X + m.Velocity.X*dt,
		Y: current.Y + m.Velocity.Y*dt,
	}
	next.X, m.Velocity.X = reflect(next.X, m.Bounds.X, m.Velocity.X)
	next.Y, m.Velocity.Y = reflect(next.Y, m.Bounds.Y, m.Velocity.Y)
	return next
}

func reflect(pos, bound, vel float64) (float64, float64) {
	if bound <= 0 {
		return pos, vel
	}
	if pos < 0 {
		return -pos, -vel
	}
	if pos > bound {
		return 2*bound - pos, -vel
	}
	return pos, vel
}
