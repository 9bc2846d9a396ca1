// Package event implements the simulation event queue: a priority queue of
// scheduled world updates ordered by earliest-time-first, with persistence
// to a gzip-compressed text log across restarts.
package event

import (
	"time"

	"github.com/dm-vev/cubeworld/server/world"
)

// Kind identifies the variety of a scheduled event.
type Kind uint8

const (
	Tick Kind = iota
	Save
	Update
	Flow
	Grow
)

func (k Kind) String() string {
	switch k {
	case Tick:
		return "tick"
	case Save:
		return "save"
	case Update:
		return "update"
	case Flow:
		return "flow"
	case Grow:
		return "grow"
	default:
		return "unknown"
	}
}

// Event is a single scheduled unit of simulation work. Only the fields
// relevant to Kind are meaningful: Update uses X/Y/Z/OldType/NewType, Flow
// and Grow use only X/Y/Z, Tick and Save use neither.
type Event struct {
	Time time.Time
	Kind Kind

	X, Y, Z int
	OldType world.Type
	NewType world.Type
}
