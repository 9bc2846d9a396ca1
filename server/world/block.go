package world

// Type is an 8-bit block identifier. The low 6 bits are the client-visible
// type (0-63); the high bits mark server-only variants, such as SUPER
// distinguishing an enhanced sponge from an ordinary one.
type Type uint8

// Client-visible block types 0-41, numbered exactly as the original level
// format expects.
const (
	Empty       Type = 0
	StoneGrey   Type = 1
	Grass       Type = 2
	Dirt        Type = 3
	Rock        Type = 4
	Wood        Type = 5
	Sapling     Type = 6
	Adminium    Type = 7
	Water1      Type = 8
	Water2      Type = 9
	Lava1       Type = 10
	Lava2       Type = 11
	StoneYellow Type = 12
	StoneMixed  Type = 13
	Ore1        Type = 14
	Ore2        Type = 15
	Ore3        Type = 16
	Trunk       Type = 17
	Leaves      Type = 18
	Sponge      Type = 19
	Glass       Type = 20
	Colored1    Type = 21
	Colored2    Type = 22
	Colored3    Type = 23
	Colored4    Type = 24
	Colored5    Type = 25
	Colored6    Type = 26
	Colored7    Type = 27
	Colored8    Type = 28
	Colored9    Type = 29
	Colored10   Type = 30
	Colored11   Type = 31
	Colored12   Type = 32
	Colored13   Type = 33
	Colored14   Type = 34
	Colored15   Type = 35
	Colored16   Type = 36
	FlowerYellow Type = 37
	FlowerRed   Type = 38
	Mushroom    Type = 39
	Toadstool   Type = 40
	Gold        Type = 41
)

// Super marks a server-only variant of a client-visible type. SuperSponge is
// the only variant currently defined: an enhanced sponge that flood-fills
// toward adjacent fluids before consuming itself.
const (
	Super       Type = 64
	SuperSponge Type = Sponge | Super
)

// ClientType strips the server-only bits, returning the type as the client
// understands it.
func (t Type) ClientType() Type {
	return t & 0x3f
}

// Vec3i is a triple of signed integers representing a position or a size.
type Vec3i struct {
	X, Y, Z int
}
