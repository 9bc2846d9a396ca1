package server

import (
	"bytes"
	"net"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/dm-vev/cubeworld/server/world/rules"
)

// client is one of the fixed MaxClients connection slots: a socket, its
// read/write buffering state, and the player it carries once HELO
// completes. An empty slot is a nil entry in Server.clients.
type client struct {
	slot int
	conn net.Conn
	// connID correlates this connection's log lines; it is never sent on
	// the wire, which has no room for one (§3 expansion).
	connID uuid.UUID

	in bytes.Buffer
	out outputQueue

	loaded bool
	player *player
}

// player is the in-memory state of a connected, named client. It implements
// rules.Player so the rule engine can authorize its requests and react to
// its chat commands without importing this package.
type player struct {
	name    string
	admin   bool
	tileset int

	pos        mgl32.Vec3
	yaw, pitch float32
}

var _ rules.Player = (*player)(nil)

func (p *player) PlayerName() string    { return p.name }
func (p *player) IsAdmin() bool         { return p.admin }
func (p *player) SetAdmin(v bool)       { p.admin = v }
func (p *player) TilesetIndex() int     { return p.tileset }
func (p *player) SetTilesetIndex(v int) { p.tileset = v }
