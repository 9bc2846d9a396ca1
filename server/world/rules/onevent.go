package rules

import (
	"github.com/dm-vev/cubeworld/server/world"
	"github.com/dm-vev/cubeworld/server/world/event"
)

// OnEvent reacts to one event popped off the queue. Each branch begins with
// an "is this still relevant?" check and silently returns if the world has
// moved on since the event was scheduled, per the queue's no-cancellation
// contract (spec §4.3/§9).
func (e *Engine) OnEvent(ev event.Event) {
	switch ev.Kind {
	case event.Update:
		e.onUpdate(ev)
	case event.Flow:
		e.onFlow(ev)
	case event.Grow:
		e.onGrow(ev)
	}
}

func (e *Engine) onUpdate(ev event.Event) {
	if e.level.Get(ev.X, ev.Y, ev.Z) != ev.NewType {
		return // superseded by a later update
	}

	switch ev.NewType {
	case world.Sponge:
		e.dryUpNearby(ev.X, ev.Y, ev.Z)
	case world.SuperSponge:
		e.floodSuperSponge(ev.X, ev.Y, ev.Z)
	}

	if ev.OldType == world.Sponge {
		e.activateNearby(ev.X, ev.Y, ev.Z, spongeRadius)
	} else {
		e.ActivateBlock(ev.X, ev.Y, ev.Z)
		e.activateNeighbours(ev.X, ev.Y, ev.Z)
	}
}

// dryUpNearby empties every fluid cell within the sponge's radius-3 cube.
func (e *Engine) dryUpNearby(x, y, z int) {
	size := e.level.Size()
	x1, x2 := clampLo(x-spongeRadius+1), clampHi(x+spongeRadius, size.X)
	y1, y2 := clampLo(y-spongeRadius+1), clampHi(y+spongeRadius, size.Y)
	z1, z2 := clampLo(z-spongeRadius+1), clampHi(z+spongeRadius, size.Z)

	for xi := x1; xi < x2; xi++ {
		for yi := y1; yi < y2; yi++ {
			for zi := z1; zi < z2; zi++ {
				if IsFluid(e.level.Get(xi, yi, zi)) {
					e.sink.UpdateBlock(xi, yi, zi, world.Empty, 0)
				}
			}
		}
	}
}

// floodSuperSponge schedules each fluid axis-neighbour to become a
// SuperSponge after a delay, then immediately consumes this cell.
func (e *Engine) floodSuperSponge(x, y, z int) {
	for _, d := range neighbourOffsets {
		nx, ny, nz := x+d.dx, y+d.dy, z+d.dz
		if IsFluid(e.level.Get(nx, ny, nz)) {
			e.sink.UpdateBlock(nx, ny, nz, world.SuperSponge, SuperSpongeDelay)
		}
	}
	e.sink.UpdateBlock(x, y, z, world.Empty, 0)
}

func (e *Engine) onFlow(ev event.Event) {
	t := e.level.Get(ev.X, ev.Y, ev.Z)
	if !IsFluid(t) {
		return
	}

	for _, d := range neighbourOffsets {
		if d.dy > 0 {
			continue // never target the upward neighbour
		}
		nx, ny, nz := ev.X+d.dx, ev.Y+d.dy, ev.Z+d.dz
		if !e.level.IndexValid(nx, ny, nz) {
			continue
		}
		u := e.level.Get(nx, ny, nz)
		switch {
		case u == world.Empty && !e.typeNearby(nx, ny, nz, world.Sponge, spongeRadius):
			e.sink.UpdateBlock(nx, ny, nz, t, 0)
		case (IsWater(t) && IsLava(u)) || (IsLava(t) && IsWater(u)):
			e.sink.UpdateBlock(nx, ny, nz, world.StoneGrey, 0)
		}
	}
}

func (e *Engine) onGrow(ev event.Event) {
	if e.level.Get(ev.X, ev.Y, ev.Z) == world.Dirt &&
		!IsLightBlocker(e.level.Get(ev.X, ev.Y+1, ev.Z)) {
		e.sink.UpdateBlock(ev.X, ev.Y, ev.Z, world.Grass, 0)
	}
}
