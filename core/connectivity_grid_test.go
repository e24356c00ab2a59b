package core

import "testing"

// gridHost places a zero-config host at loc and returns its interface,
// which has been registered with the grid of its type.
func gridHost(t *testing.T, ctx *SimContext, addr int, loc Coord, rng float64) NetworkInterface {
	t.Helper()
	proto := newTestInterface(t, ctx, InterfaceConfig{
		InterfaceType: "T",
		TransmitRange: rng,
		TransmitSpeed: 1,
	})
	h := newTestHost(addr, loc, nil, []NetworkInterface{proto}, nil)
	return h.Interfaces()[0]
}

func TestGridBoundaryIsHalfOpen(t *testing.T) {
	g := newConnectivityGrid(10)
	cell := g.cellAt(Coord{X: 10, Y: 0})
	if cell.col != 1 || cell.row != 0 {
		t.Fatalf("cellAt(10,0) = %+v, want row 0 col 1", cell)
	}
	cell = g.cellAt(Coord{X: 9.999, Y: 10})
	if cell.col != 0 || cell.row != 1 {
		t.Fatalf("cellAt(9.999,10) = %+v, want row 1 col 0", cell)
	}
}

func TestGridNearIncludesNeighborsOnly(t *testing.T) {
	ctx := NewSimContext()
	a := gridHost(t, ctx, 0, Coord{X: 5, Y: 5}, 10)
	b := gridHost(t, ctx, 1, Coord{X: 15, Y: 5}, 10)  // neighbor cell
	c := gridHost(t, ctx, 2, Coord{X: 45, Y: 5}, 10)  // four cells away

	near := ctx.grids.grids["T"].NearInterfaces(a)
	found := map[NetworkInterface]bool{}
	for _, ni := range near {
		found[ni] = true
	}
	if !found[a] || !found[b] {
		t.Fatalf("near set misses own-cell or neighbor interface: %v", near)
	}
	if found[c] {
		t.Fatalf("near set contains interface four cells away")
	}
}

func TestGridUpdateLocationMovesBetweenCells(t *testing.T) {
	ctx := NewSimContext()
	a := gridHost(t, ctx, 0, Coord{X: 5, Y: 5}, 10)
	b := gridHost(t, ctx, 1, Coord{X: 95, Y: 5}, 10)

	g := ctx.grids.grids["T"]
	if near := g.NearInterfaces(a); len(near) != 1 {
		t.Fatalf("near set before move = %v, want only self", near)
	}

	b.Host().SetLocation(Coord{X: 12, Y: 5})
	g.UpdateLocation(b)

	found := false
	for _, ni := range g.NearInterfaces(a) {
		if ni == b {
			found = true
		}
	}
	if !found {
		t.Fatalf("near set does not contain moved interface")
	}
}

func TestGridRegistrySharesGridPerType(t *testing.T) {
	ctx := NewSimContext()
	g1 := ctx.grids.gridFor("T", 10)
	g2 := ctx.grids.gridFor("T", 5)
	if g1 != g2 {
		t.Fatalf("same type got different grids")
	}
	if g1.CellSize() != 10 {
		t.Fatalf("cell size = %v, want 10 (maximum registered range)", g1.CellSize())
	}
	if other := ctx.grids.gridFor("U", 10); other == g1 {
		t.Fatalf("different types share a grid")
	}
}

func TestGridGrowsToLargestRange(t *testing.T) {
	ctx := NewSimContext()
	a := gridHost(t, ctx, 0, Coord{X: 5, Y: 5}, 10)

	g := ctx.grids.gridFor("T", 30)
	if g.CellSize() != 30 {
		t.Fatalf("cell size after growth = %v, want 30", g.CellSize())
	}
	// membership survives the rehash
	if near := g.NearInterfaces(a); len(near) != 1 || near[0] != a {
		t.Fatalf("interface lost during grid growth: %v", near)
	}
}
