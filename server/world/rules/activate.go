package rules

import (
	"math/rand"
	"time"

	"github.com/dm-vev/cubeworld/server/world"
)

// ActivateBlock reconsiders a single cell immediately after it (or a
// neighbour of it) changed, scheduling whatever follow-up event the block's
// type calls for. It never mutates the world itself except in the two
// "instant decay" cases (grass losing light, a plant losing its soil), which
// happen synchronously rather than through a scheduled event because the
// reference implementation applies them the moment the triggering change is
// noticed, not after a delay.
func (e *Engine) ActivateBlock(x, y, z int) {
	if !e.level.IndexValid(x, y, z) {
		return
	}
	t := e.level.Get(x, y, z)

	switch {
	case IsWater(t):
		e.sink.ScheduleFlow(x, y, z, WaterFlowDelay)
	case IsLava(t):
		e.sink.ScheduleFlow(x, y, z, LavaFlowDelay)
	case t == world.Dirt:
		e.sink.ScheduleGrow(x, y, z, randomGrowDelay())
	case t == world.Grass:
		if IsLightBlocker(e.level.Get(x, y+1, z)) {
			e.sink.UpdateBlock(x, y, z, world.Dirt, 0)
		}
	case IsPlant(t):
		if !IsSoil(e.level.Get(x, y-1, z)) {
			e.sink.UpdateBlock(x, y, z, world.Empty, 0)
		}
	}
}

// randomGrowDelay picks a uniform delay in [GrowDelayMin, GrowDelayMax], the
// window the reference implementation uses for dirt-to-grass growth checks.
func randomGrowDelay() time.Duration {
	span := GrowDelayMax - GrowDelayMin
	return GrowDelayMin + time.Duration(rand.Int63n(int64(span)+1))
}

// activateNeighbours calls ActivateBlock on each of the six axis-neighbours
// of (x,y,z), used after a block is placed or removed so adjoining fluid,
// soil, and plant cells re-evaluate their own state.
func (e *Engine) activateNeighbours(x, y, z int) {
	for _, d := range neighbourOffsets {
		e.ActivateBlock(x+d.dx, y+d.dy, z+d.dz)
	}
}

// activateNearby calls ActivateBlock on every cell in the cube of side
// 2*radius+1 centred at (x,y,z), clipped to the grid. Used after a sponge is
// removed, since drying had suppressed activation across that whole volume.
func (e *Engine) activateNearby(x, y, z, radius int) {
	size := e.level.Size()
	x1, x2 := clampLo(x-radius), clampHi(x+radius+1, size.X)
	y1, y2 := clampLo(y-radius), clampHi(y+radius+1, size.Y)
	z1, z2 := clampLo(z-radius), clampHi(z+radius+1, size.Z)

	for xi := x1; xi < x2; xi++ {
		for yi := y1; yi < y2; yi++ {
			for zi := z1; zi < z2; zi++ {
				e.ActivateBlock(xi, yi, zi)
			}
		}
	}
}
