package rules

import "github.com/dm-vev/cubeworld/server/world"

// AuthorizeUpdate decides whether a player may change the block at
// (x,y,z) from oldT to newTClient (a client-space type). It returns the
// resulting server-side type and true if the change is authorized, or an
// unspecified Type and false if it is rejected. AuthorizeUpdate is a pure
// function of its arguments: it mutates nothing and may be called
// repeatedly with identical results.
func (e *Engine) AuthorizeUpdate(player Player, x, y, z int, oldT, newTClient world.Type) (world.Type, bool) {
	if oldT == newTClient {
		return 0, false
	}

	newT := newTClient
	if player.TilesetIndex() == 1 {
		switch newT {
		case world.Colored1:
			newT = world.Lava2 // red
		case world.Colored3:
			newT = world.SuperSponge // yellow
		case world.Colored8:
			newT = world.Water2 // blue
		case world.Colored14:
			newT = world.Adminium // grey
		}
	}

	admin := player.IsAdmin()
	switch {
	case oldT != world.Empty && newT != world.Empty:
		// Replacing one block with another.
		if !IsPlayerReplaceable(oldT, admin) || !IsPlayerPlaceable(newT, admin) {
			return 0, false
		}
	case oldT != world.Empty: // newT == Empty
		// Deleting a block.
		if !IsPlayerDeletable(oldT, admin) {
			return 0, false
		}
	case newT != world.Empty: // oldT == Empty
		// Placing a block.
		if !IsPlayerPlaceable(newT, admin) {
			return 0, false
		}
	}

	// A hole left by mining lets an adjacent fluid re-flow into it, unless a
	// sponge within radius 3 would dry it right back up. Per the documented
	// open question, this substitution only ever applies when newT is
	// empty, never during fluid-for-fluid replacement.
	if newT == world.Empty && !e.typeNearby(x, y, z, world.Sponge, spongeRadius) {
		if adj, ok := e.adjacentNonBelowFluid(x, y, z); ok {
			newT = adj
		}
	}

	if IsPlant(newT) && !IsSoil(e.level.Get(x, y-1, z)) {
		return 0, false
	}

	return newT, true
}

// adjacentNonBelowFluid looks at the six axis-neighbours of (x,y,z),
// excluding the one directly below, and returns the first fluid type found.
func (e *Engine) adjacentNonBelowFluid(x, y, z int) (world.Type, bool) {
	for _, d := range neighbourOffsets {
		if d.dy < 0 {
			continue // don't consider the block below
		}
		t := e.level.Get(x+d.dx, y+d.dy, z+d.dz)
		if IsFluid(t) {
			return t, true
		}
	}
	return 0, false
}

type offset struct{ dx, dy, dz int }

// neighbourOffsets are the six axis-aligned directions, in the reference
// implementation's DX/DY/DZ order: -x, -y, -z, +x, +y, +z.
var neighbourOffsets = [6]offset{
	{-1, 0, 0}, {0, -1, 0}, {0, 0, -1},
	{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
}

// typeNearby reports whether the cube of side 2*d-1 centred at (x,y,z)
// contains a block of type t, clipped to the grid.
func (e *Engine) typeNearby(x, y, z int, t world.Type, d int) bool {
	size := e.level.Size()
	x1, x2 := clampLo(x-d+1), clampHi(x+d, size.X)
	y1, y2 := clampLo(y-d+1), clampHi(y+d, size.Y)
	z1, z2 := clampLo(z-d+1), clampHi(z+d, size.Z)

	for xi := x1; xi < x2; xi++ {
		for yi := y1; yi < y2; yi++ {
			for zi := z1; zi < z2; zi++ {
				if e.level.Get(xi, yi, zi) == t {
					return true
				}
			}
		}
	}
	return false
}

func clampLo(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func clampHi(v, max int) int {
	if v > max {
		return max
	}
	return v
}
