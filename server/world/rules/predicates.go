// Package rules implements the block-rule engine: authorization of
// player-requested mutations, translation of server types to client types,
// and the reactive simulation (fluid flow, plant growth, sponge absorption,
// soil decay) driven by the event queue. Every function here is pure except
// for calls back into the Sink, which the caller supplies.
package rules

import "github.com/dm-vev/cubeworld/server/world"

// IsFluid reports whether t is one of the four fluid block types.
func IsFluid(t world.Type) bool {
	return t >= world.Water1 && t <= world.Lava2
}

// IsWater reports whether t is a (flowing or source) water block.
func IsWater(t world.Type) bool {
	return t >= world.Water1 && t <= world.Water2
}

// IsLava reports whether t is a (flowing or source) lava block.
func IsLava(t world.Type) bool {
	return t >= world.Lava1 && t <= world.Lava2
}

// IsPlant reports whether t is one of the flora types that require soil.
func IsPlant(t world.Type) bool {
	switch t {
	case world.Sapling, world.FlowerYellow, world.FlowerRed, world.Mushroom, world.Toadstool:
		return true
	default:
		return false
	}
}

// IsLightBlocker reports whether t is opaque to the light that keeps grass
// alive: anything except empty space, glass, leaves, or a plant.
func IsLightBlocker(t world.Type) bool {
	return t != world.Empty && t != world.Glass && t != world.Leaves && !IsPlant(t)
}

// IsSoil reports whether t is dirt or grass, the only blocks plants and
// grass may rest on.
func IsSoil(t world.Type) bool {
	return t == world.Dirt || t == world.Grass
}

// IsPlayerPlaceable reports whether a player (admin or not) may place a
// block of type t. Admin-only types (SuperSponge, Water2, Lava2, Adminium)
// require admin == true.
func IsPlayerPlaceable(t world.Type, admin bool) bool {
	switch t {
	case world.StoneGrey, world.Dirt, world.Rock, world.Wood, world.Sapling,
		world.StoneYellow, world.StoneMixed, world.Trunk, world.Leaves,
		world.Sponge, world.Glass,
		world.Colored1, world.Colored2, world.Colored3, world.Colored4,
		world.Colored5, world.Colored6, world.Colored7, world.Colored8,
		world.Colored9, world.Colored10, world.Colored11, world.Colored12,
		world.Colored13, world.Colored14, world.Colored15, world.Colored16,
		world.FlowerYellow, world.FlowerRed, world.Mushroom, world.Toadstool,
		world.Gold:
		return true
	case world.SuperSponge, world.Lava2, world.Water2, world.Adminium:
		return admin
	default:
		return false
	}
}

// IsPlayerDeletable reports whether a player may remove a block of type t:
// grass, ore, or anything placeable.
func IsPlayerDeletable(t world.Type, admin bool) bool {
	switch t {
	case world.Grass, world.Ore1, world.Ore2, world.Ore3:
		return true
	default:
		return IsPlayerPlaceable(t, admin)
	}
}

// IsPlayerReplaceable reports whether a player may overwrite a block of type
// t directly (rather than deleting then placing): only fluids qualify.
func IsPlayerReplaceable(t world.Type, _ bool) bool {
	return IsFluid(t)
}

// ClientBlockType strips the server-only bits, returning the type as the
// client understands it.
func ClientBlockType(t world.Type) world.Type {
	return t.ClientType()
}
