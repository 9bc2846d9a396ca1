package world

import (
	"log/slog"
	"time"
)

// DefaultSize is the size of a newly generated level: 256 wide, 64 tall,
// 256 deep.
var DefaultSize = Vec3i{X: 256, Y: 64, Z: 256}

// Level is the dense 3D block store backing the simulated world. Exactly one
// goroutine (the server's main loop) may mutate a Level; Level itself does
// not synchronize access.
type Level struct {
	size   Vec3i
	blocks []Type

	Name, Creator string
	Spawn         Vec3i
	RotSpawn      float32

	tickCount uint64
	dirty     bool
	saveTime  time.Time

	log *slog.Logger
}

// New creates an empty Level of the given size, with every cell set to
// Empty. The spawn point defaults to the horizontal centre of the grid, 5
// blocks below the ceiling, matching the original server's convention.
func New(size Vec3i, log *slog.Logger) *Level {
	if log == nil {
		log = slog.Default()
	}
	n := size.X * size.Y * size.Z
	return &Level{
		size:     size,
		blocks:   make([]Type, n),
		Name:     "Level Name Goes Here",
		Creator:  "Level Creator Goes Here",
		Spawn:    Vec3i{X: size.X / 2, Y: size.Y - 5, Z: size.Z / 2},
		saveTime: time.Now(),
		log:      log,
	}
}

// Size returns the fixed dimensions of the level.
func (l *Level) Size() Vec3i { return l.size }

// TickCount returns the number of simulated frames so far.
func (l *Level) TickCount() uint64 { return l.tickCount }

// Dirty reports whether blocks have changed since the last successful Save.
func (l *Level) Dirty() bool { return l.dirty }

// SaveTime returns the wall-clock time of the last successful Save.
func (l *Level) SaveTime() time.Time { return l.saveTime }

// IndexValid reports whether (x, y, z) addresses a cell inside the grid.
func (l *Level) IndexValid(x, y, z int) bool {
	return x >= 0 && x < l.size.X &&
		y >= 0 && y < l.size.Y &&
		z >= 0 && z < l.size.Z
}

func (l *Level) index(x, y, z int) int {
	return x + l.size.X*(z+l.size.Z*y)
}

// Get returns the block type at (x, y, z). Coordinates outside the grid
// always return Empty; Get never fails.
func (l *Level) Get(x, y, z int) Type {
	if !l.IndexValid(x, y, z) {
		return Empty
	}
	return l.blocks[l.index(x, y, z)]
}

// Set stores newT at (x, y, z) and returns the previous type. If the
// coordinates are out of bounds, Set logs a warning, leaves the level
// unchanged, and returns newT. Dirty is set iff the cell's content actually
// changed.
func (l *Level) Set(x, y, z int, newT Type) Type {
	if !l.IndexValid(x, y, z) {
		l.log.Warn("set on out-of-bounds block index", "x", x, "y", y, "z", z)
		return newT
	}
	i := l.index(x, y, z)
	oldT := l.blocks[i]
	if oldT != newT {
		l.blocks[i] = newT
		l.dirty = true
	}
	return oldT
}

// Tick increments the level's frame counter.
func (l *Level) Tick() {
	l.tickCount++
}

// blockCount returns the total number of cells in the grid.
func (l *Level) blockCount() int {
	return l.size.X * l.size.Y * l.size.Z
}
