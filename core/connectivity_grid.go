package core

import "math"

// ConnectivityOptimizer answers "which interfaces might be near this one"
// in sub-linear time so the connectivity check does not have to consider
// every interface pair.
type ConnectivityOptimizer interface {
	// AddInterface registers an interface with the optimizer.
	AddInterface(ni NetworkInterface)
	// RemoveInterface drops an interface from the optimizer.
	RemoveInterface(ni NetworkInterface)
	// UpdateLocation re-files the interface after its host has moved.
	UpdateLocation(ni NetworkInterface)
	// NearInterfaces returns all candidates close enough to possibly be
	// in range, the querying interface included.
	NearInterfaces(ni NetworkInterface) []NetworkInterface
}

type gridCell struct {
	row int
	col int
}

// ConnectivityGrid partitions the plane into square cells whose side is at
// least the largest transmit range registered for the interface type. Any
// peer in range must then be in the interface's own cell or one of its 8
// neighbors. Cells are half-open: a location exactly on a boundary belongs
// to the cell whose lower bound it meets. The grid is a sparse hash, so it
// needs no world bounds.
//
// Cell members are kept in registration order. Candidate order feeds the
// connection handshake, and the sequence of listener events must reproduce
// bit-identically across runs; map iteration order would not.
type ConnectivityGrid struct {
	cellSize float64
	cells    map[gridCell][]NetworkInterface
	located  map[NetworkInterface]gridCell
	members  []NetworkInterface
}

func newConnectivityGrid(cellSize float64) *ConnectivityGrid {
	return &ConnectivityGrid{
		cellSize: cellSize,
		cells:    make(map[gridCell][]NetworkInterface),
		located:  make(map[NetworkInterface]gridCell),
	}
}

// CellSize returns the side length of the grid cells.
func (g *ConnectivityGrid) CellSize() float64 { return g.cellSize }

func (g *ConnectivityGrid) cellAt(c Coord) gridCell {
	return gridCell{
		row: int(math.Floor(c.Y / g.cellSize)),
		col: int(math.Floor(c.X / g.cellSize)),
	}
}

// AddInterface files the interface under the cell of its current location.
func (g *ConnectivityGrid) AddInterface(ni NetworkInterface) {
	if _, ok := g.located[ni]; ok {
		return
	}
	g.members = append(g.members, ni)
	g.file(ni, g.cellAt(ni.Location()))
}

// RemoveInterface removes the interface from the grid.
func (g *ConnectivityGrid) RemoveInterface(ni NetworkInterface) {
	cell, ok := g.located[ni]
	if !ok {
		return
	}
	g.cells[cell] = removeInterface(g.cells[cell], ni)
	if len(g.cells[cell]) == 0 {
		delete(g.cells, cell)
	}
	delete(g.located, ni)
	g.members = removeInterface(g.members, ni)
}

// UpdateLocation moves the interface to the cell of its host's current
// location. Moving between cells is O(1) in the number of cells.
func (g *ConnectivityGrid) UpdateLocation(ni NetworkInterface) {
	cur := g.cellAt(ni.Location())
	prev, ok := g.located[ni]
	if !ok {
		return
	}
	if prev == cur {
		return
	}
	g.cells[prev] = removeInterface(g.cells[prev], ni)
	if len(g.cells[prev]) == 0 {
		delete(g.cells, prev)
	}
	g.file(ni, cur)
}

// NearInterfaces returns every interface in the cell of ni and the 8
// surrounding cells, in a deterministic order.
func (g *ConnectivityGrid) NearInterfaces(ni NetworkInterface) []NetworkInterface {
	center, ok := g.located[ni]
	if !ok {
		return nil
	}
	var near []NetworkInterface
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			cell := gridCell{row: center.row + dr, col: center.col + dc}
			near = append(near, g.cells[cell]...)
		}
	}
	return near
}

func (g *ConnectivityGrid) file(ni NetworkInterface, cell gridCell) {
	g.cells[cell] = append(g.cells[cell], ni)
	g.located[ni] = cell
}

// resize grows the cell side and re-files every registered interface, in
// registration order.
func (g *ConnectivityGrid) resize(cellSize float64) {
	g.cellSize = cellSize
	g.cells = make(map[gridCell][]NetworkInterface)
	g.located = make(map[NetworkInterface]gridCell)
	for _, ni := range g.members {
		g.file(ni, g.cellAt(ni.Location()))
	}
}

func removeInterface(list []NetworkInterface, ni NetworkInterface) []NetworkInterface {
	for i, other := range list {
		if other == ni {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// gridRegistry hands out one ConnectivityGrid per interface type. The cell
// side of a grid is the maximum transmit range ever registered for that
// type; registering a larger range grows the grid in place.
type gridRegistry struct {
	grids map[string]*ConnectivityGrid
}

func newGridRegistry() *gridRegistry {
	return &gridRegistry{grids: make(map[string]*ConnectivityGrid)}
}

func (r *gridRegistry) gridFor(interfaceType string, transmitRange float64) *ConnectivityGrid {
	g, ok := r.grids[interfaceType]
	if !ok {
		g = newConnectivityGrid(transmitRange)
		r.grids[interfaceType] = g
		return g
	}
	if transmitRange > g.cellSize {
		g.resize(transmitRange)
	}
	return g
}

func (r *gridRegistry) clear() {
	r.grids = make(map[string]*ConnectivityGrid)
}
