package core

import (
	"fmt"
	"math"
)

// Coord is a location on the 2-D simulation plane.
type Coord struct {
	X float64
	Y float64
}

// Distance returns the euclidean distance to another coordinate.
func (c Coord) Distance(o Coord) float64 {
	return math.Hypot(c.X-o.X, c.Y-o.Y)
}

func (c Coord) String() string {
	return fmt.Sprintf("(%.2f,%.2f)", c.X, c.Y)
}
