package server

import (
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/dm-vev/cubeworld/server/world"
	"github.com/dm-vev/cubeworld/server/world/event"
	"github.com/dm-vev/cubeworld/server/world/rules"
)

func newTestServerProper(t *testing.T) *Server {
	t.Helper()
	lvl := world.New(world.Vec3i{X: 16, Y: 16, Z: 16}, nil)
	q := event.NewQueue(0, nil)
	s := &Server{
		conf:     defaultConfig(),
		log:      slog.Default(),
		level:    lvl,
		queue:    q,
		clients:  make([]*client, 4),
		acceptCh: make(chan net.Conn, 4),
		incoming: make(chan readEvent, 4),
	}
	s.engine = rules.NewEngine(lvl, s, "", nil)
	return s
}

func TestUpdateBlockImmediateBroadcastsOnVisibleChange(t *testing.T) {
	s := newTestServerProper(t)

	server, clientConn := net.Pipe()
	defer server.Close()
	defer clientConn.Close()
	c := &client{slot: 0, conn: server, loaded: true, player: &player{name: "alice"}}
	s.clients[0] = c

	readDone := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := clientConn.Read(buf)
		readDone <- buf[:n]
	}()

	s.UpdateBlock(1, 1, 1, world.StoneGrey, 0)

	select {
	case got := <-readDone:
		if len(got) == 0 || got[0] != MsgMODN {
			t.Fatalf("expected a MODN broadcast, got %x", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for MODN broadcast")
	}
	if s.level.Get(1, 1, 1) != world.StoneGrey {
		t.Fatalf("block not actually updated")
	}
}

func TestUpdateBlockDelayedSchedulesEvent(t *testing.T) {
	s := newTestServerProper(t)
	s.UpdateBlock(2, 2, 2, world.Water1, 300*time.Millisecond)

	if s.queue.Count() != 1 {
		t.Fatalf("expected one scheduled event, got %d", s.queue.Count())
	}
	ev := s.queue.Pop()
	if ev.Kind != event.Update || ev.NewType != world.Water1 {
		t.Fatalf("unexpected scheduled event: %+v", ev)
	}
	if s.level.Get(2, 2, 2) != world.Water1 {
		t.Fatalf("level must be set immediately even when the reaction is delayed")
	}
}

func TestScheduleFlowAndGrow(t *testing.T) {
	s := newTestServerProper(t)
	s.ScheduleFlow(1, 1, 1, 300*time.Millisecond)
	s.ScheduleGrow(2, 2, 2, 5*time.Second)

	if s.queue.Count() != 2 {
		t.Fatalf("expected 2 scheduled events, got %d", s.queue.Count())
	}
}

func TestHandleModRRejectionRestoresClientView(t *testing.T) {
	s := newTestServerProper(t)
	s.level.Set(3, 3, 3, world.Adminium)

	server, clientConn := net.Pipe()
	defer server.Close()
	defer clientConn.Close()
	c := &client{slot: 0, conn: server, loaded: true, player: &player{name: "bob"}}
	s.clients[0] = c

	readDone := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := clientConn.Read(buf)
		readDone <- buf[:n]
	}()

	s.handleModR(c, modrMsg{X: 3, Y: 3, Z: 3, OldT: byte(world.Adminium), NewT: byte(world.Empty)})

	select {
	case got := <-readDone:
		if len(got) == 0 || got[0] != MsgMODN {
			t.Fatalf("expected rejection MODN, got %x", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for rejection MODN")
	}
	if s.level.Get(3, 3, 3) != world.Adminium {
		t.Fatalf("rejected mutation must leave the block unchanged")
	}
}

func TestDispatchMessageIgnoresReservedTags(t *testing.T) {
	s := newTestServerProper(t)
	c := &client{slot: 0}
	s.clients[0] = c
	s.dispatchMessage(c, MsgReserved9, make([]byte, 6))
	if s.clients[0] == nil {
		t.Fatalf("reserved message must not disconnect the client")
	}
}

func TestParseMessagesHandlesPartialReads(t *testing.T) {
	s := newTestServerProper(t)
	server, _ := net.Pipe()
	defer server.Close()
	c := &client{slot: 0, conn: server}
	s.clients[0] = c

	built := buildChat(0, "hi")
	c.in.Write(built[:3]) // partial
	s.parseMessages(c)
	if c.in.Len() != 3 {
		t.Fatalf("partial message must not be dispatched; buffer has %d bytes, want 3", c.in.Len())
	}

	c.player = &player{name: "carl"}
	c.in.Write(built[3:]) // complete it
	s.parseMessages(c)
	// No panic and the buffer should be fully consumed.
	if c.in.Len() != 0 {
		t.Fatalf("buffer should be empty after a complete message, has %d bytes left", c.in.Len())
	}
}
