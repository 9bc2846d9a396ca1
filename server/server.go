package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/dm-vev/cubeworld/server/world"
	"github.com/dm-vev/cubeworld/server/world/event"
	"github.com/dm-vev/cubeworld/server/world/rules"
)

const protocolVersion byte = 1

// Server owns the loaded Level, the event queue, the rule engine, the
// listening socket, and the fixed array of client slots. Exactly one
// goroutine — the one running Run's main loop — ever touches any of this
// state; every other goroutine in the process (the accept loop, the
// per-connection readers) only ever forwards data onto channels that the
// main loop consumes.
type Server struct {
	conf Config
	log  *slog.Logger

	level  *world.Level
	queue  *event.Queue
	engine *rules.Engine

	listener net.Listener
	clients  []*client

	acceptCh chan net.Conn
	incoming chan readEvent
}

type readEvent struct {
	slot int
	data []byte
	err  error
}

var _ rules.Sink = (*Server)(nil)

// New constructs a Server from conf, loading the world and restoring the
// event queue. A level that cannot be loaded (including a missing file) is
// returned as an error; New never creates one (see InitWorld). It does not
// yet listen; call Run to do that.
func New(conf Config) (*Server, error) {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}

	lvl, err := world.Load(conf.WorldPath, conf.WorldSize, conf.Log)
	if err != nil {
		return nil, fmt.Errorf("server: load level: %w", err)
	}

	q := event.NewQueue(event.DefaultCapacity, conf.Log)
	if err := q.Read(conf.EventLogPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			conf.Log.Warn("restore event queue failed, continuing with an empty queue", "err", err)
		}
	}

	s := &Server{
		conf:     conf,
		log:      conf.Log,
		level:    lvl,
		queue:    q,
		clients:  make([]*client, conf.MaxClients),
		acceptCh: make(chan net.Conn, conf.MaxClients),
		incoming: make(chan readEvent, conf.MaxClients*4),
	}
	s.engine = rules.NewEngine(lvl, s, conf.AdminSecret, conf.Log)

	now := time.Now()
	q.Push(event.Event{Kind: event.Tick, Time: now.Add(conf.TickInterval)})
	q.Push(event.Event{Kind: event.Save, Time: now.Add(conf.SaveInterval)})

	return s, nil
}

// InitWorld creates a brand new level at path and saves it, for first-time
// setup. Loading a level that doesn't exist yet is a fatal startup error
// (§4.5), so an operator must run this once (or copy in a level file)
// before the first Run.
func InitWorld(conf Config) error {
	lvl := world.New(conf.WorldSize, conf.Log)
	return lvl.Save(conf.WorldPath)
}

// Run binds the listener and drives the main loop until ctx is cancelled or
// a fatal error occurs. On return, the world and event queue are persisted
// if dirty, matching the graceful-shutdown contract of §5.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.conf.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.conf.ListenAddr, err)
	}
	s.listener = ln
	s.log.Info("listening", "addr", s.conf.ListenAddr)

	go s.acceptLoop()

	s.mainLoop(ctx)

	_ = ln.Close()
	s.shutdown()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.acceptCh <- conn
	}
}

// mainLoop is the sole mutator of Level, the event queue, and client slots.
// It substitutes the reference implementation's single select()-over-fds
// loop with a goroutine-per-connection-reader-plus-channel design: each
// wakeup handles at most one of {new connection, inbound bytes, next-event
// deadline}, then opportunistically drains pending output before looping
// back to peek the next event (see DESIGN.md, "Reactor substitution").
func (s *Server) mainLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		wait := time.Second
		if ev, ok := s.queue.Peek(); ok {
			if d := time.Until(ev.Time); d > 0 {
				wait = d
			} else {
				wait = 0
			}
		}
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case conn := <-s.acceptCh:
			timer.Stop()
			s.handleAccept(conn)
		case re := <-s.incoming:
			timer.Stop()
			s.handleRead(re)
		case <-timer.C:
		}

		s.drainOutputs()

		if ev, ok := s.queue.Peek(); ok && !time.Now().Before(ev.Time) {
			due := s.queue.Pop()
			s.dispatchEvent(due)
		}
	}
}

func (s *Server) drainOutputs() {
	for _, c := range s.clients {
		if c == nil || !c.out.hasPending() {
			continue
		}
		if err := c.out.drain(c.conn); err != nil {
			s.disconnect(c, err)
		}
	}
}

func (s *Server) dispatchEvent(ev event.Event) {
	switch ev.Kind {
	case event.Tick:
		s.onTick(ev)
	case event.Save:
		s.onSave(ev)
	default:
		s.engine.OnEvent(ev)
	}
}

func (s *Server) onTick(ev event.Event) {
	s.level.Tick()
	s.broadcastPositions()
	s.broadcast(buildTick())

	next := ev.Time.Add(s.conf.TickInterval)
	now := time.Now()
	if next.Before(now) {
		s.log.Warn("tick deadline missed, rescheduling from now", "behind", now.Sub(next))
		next = now.Add(s.conf.TickInterval)
	}
	s.queue.Push(event.Event{Kind: event.Tick, Time: next})
}

func (s *Server) onSave(ev event.Event) {
	if s.level.Dirty() {
		if err := s.level.Save(s.conf.WorldPath); err != nil {
			s.log.Warn("save level failed, will retry next cycle", "err", err)
		}
	}
	if s.queue.IsDirty() {
		if err := s.queue.Write(s.conf.EventLogPath); err != nil {
			s.log.Warn("save event queue failed, will retry next cycle", "err", err)
		}
	}
	s.queue.Push(event.Event{Kind: event.Save, Time: time.Now().Add(s.conf.SaveInterval)})
}

func (s *Server) shutdown() {
	if s.level.Dirty() {
		if err := s.level.Save(s.conf.WorldPath); err != nil {
			s.log.Error("final save failed", "err", err)
		}
	}
	if s.queue.IsDirty() {
		if err := s.queue.Write(s.conf.EventLogPath); err != nil {
			s.log.Error("final event queue save failed", "err", err)
		}
	}
	for _, c := range s.clients {
		if c != nil {
			_ = c.conn.Close()
		}
	}
}

// --- connection lifecycle ---

func (s *Server) freeSlot() int {
	for i, c := range s.clients {
		if c == nil {
			return i
		}
	}
	return -1
}

func (s *Server) handleAccept(conn net.Conn) {
	slot := s.freeSlot()
	if slot < 0 {
		s.log.Warn("rejecting connection: all client slots full", "remote", conn.RemoteAddr())
		_ = conn.Close()
		return
	}
	c := &client{slot: slot, conn: conn, connID: uuid.New()}
	s.clients[slot] = c
	s.log.Info("client connected", "slot", slot, "conn", c.connID, "remote", conn.RemoteAddr())
	go s.readLoop(c)
}

// readLoop is the one piece of state the reader goroutine owns: a growing
// read buffer is not needed here, since bytes are forwarded upward and
// reassembled by the main loop, which alone decides what constitutes a
// complete message.
func (s *Server) readLoop(c *client) {
	buf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			s.incoming <- readEvent{slot: c.slot, data: data}
		}
		if err != nil {
			s.incoming <- readEvent{slot: c.slot, err: err}
			return
		}
	}
}

func (s *Server) handleRead(re readEvent) {
	if re.slot < 0 || re.slot >= len(s.clients) {
		return
	}
	c := s.clients[re.slot]
	if c == nil {
		return // already disconnected
	}
	if re.err != nil {
		s.disconnect(c, re.err)
		return
	}
	c.in.Write(re.data)
	s.parseMessages(c)
}

func (s *Server) parseMessages(c *client) {
	for {
		buf := c.in.Bytes()
		if len(buf) == 0 {
			return
		}
		length, ok := msgLen(buf[0])
		if !ok {
			s.log.Warn("unknown message type, disconnecting client", "slot", c.slot, "tag", buf[0])
			s.disconnect(c, fmt.Errorf("unknown message tag %d", buf[0]))
			return
		}
		if len(buf) < length {
			return // wait for more bytes
		}
		msg := c.in.Next(length)
		s.dispatchMessage(c, msg[0], msg[1:])
	}
}

func (s *Server) disconnect(c *client, err error) {
	if s.clients[c.slot] != c {
		return
	}
	s.log.Info("client disconnected", "slot", c.slot, "conn", c.connID, "err", err)
	_ = c.conn.Close()
	name := ""
	if c.player != nil {
		name = c.player.name
	}
	s.clients[c.slot] = nil
	if name != "" {
		s.broadcast(buildDisc(byte(c.slot)))
	}
}

func (s *Server) broadcast(msg []byte) {
	for _, c := range s.clients {
		if c != nil && c.loaded {
			c.out.write(c.conn, msg)
		}
	}
}

func (s *Server) broadcastExcept(slot int, msg []byte) {
	for i, c := range s.clients {
		if i != slot && c != nil && c.loaded {
			c.out.write(c.conn, msg)
		}
	}
}

func (s *Server) broadcastPositions() {
	for i, c := range s.clients {
		if c == nil || !c.loaded || c.player == nil {
			continue
		}
		p := c.player
		msg := buildPlyu(byte(i),
			encodeCoord(p.pos.X()), encodeCoord(p.pos.Y()), encodeCoord(p.pos.Z()),
			encodeYaw(p.yaw), encodePitch(p.pitch))
		s.broadcastExcept(i, msg)
	}
}

// --- message handlers ---

func (s *Server) dispatchMessage(c *client, tag byte, body []byte) {
	switch tag {
	case MsgHELO:
		s.handleHelo(c, decodeHelo(body))
	case MsgMODR:
		s.handleModR(c, decodeModR(body))
	case MsgPLYU:
		s.handlePlyu(c, decodePlyu(body))
	case MsgCHAT:
		s.handleChat(c, decodeChat(body))
	case MsgDISC:
		s.disconnect(c, errClientDisconnect)
	case MsgReserved9, MsgReserved10, MsgReserved11:
		s.log.Warn("ignoring reserved message", "slot", c.slot, "msg", describeReserved(tag, body))
	default:
		s.log.Debug("ignoring known-but-unexpected message from client", "slot", c.slot, "tag", tag)
	}
}

var errClientDisconnect = errors.New("client requested disconnect")

func (s *Server) handleHelo(c *client, msg heloMsg) {
	if c.player != nil {
		s.log.Debug("duplicate HELO ignored", "slot", c.slot)
		return
	}
	spawn := s.level.Spawn
	c.player = &player{
		name: msg.Name,
		pos:  mgl32.Vec3{float32(spawn.X), float32(spawn.Y), float32(spawn.Z)},
		yaw:  s.level.RotSpawn,
	}
	s.log.Info("player joining", "slot", c.slot, "name", msg.Name)
	s.sendWorld(c)
}

func (s *Server) sendWorld(c *client) {
	size := s.level.Size()
	c.out.write(c.conn, buildHelo(protocolVersion, "cubeworld", "", 0))
	c.out.write(c.conn, buildSize(int16(size.X), int16(size.Y), int16(size.Z)))

	data, err := s.level.Bytes()
	if err != nil {
		s.log.Warn("compress world for transmit failed", "slot", c.slot, "err", err)
		s.disconnect(c, err)
		return
	}

	const chunkSize = widthA
	total := len(data)
	if total == 0 {
		c.out.write(c.conn, buildData(0, nil, 100))
	}
	for off := 0; off < total; off += chunkSize {
		end := off + chunkSize
		if end > total {
			end = total
		}
		chunk := data[off:end]
		c.out.write(c.conn, buildData(int16(len(chunk)), chunk, byte(end*100/total)))
	}

	c.loaded = true
	c.out.write(c.conn, buildStrt())
	p := c.player
	s.broadcastExcept(c.slot, buildPlyc(byte(c.slot), p.name,
		encodeCoord(p.pos.X()), encodeCoord(p.pos.Y()), encodeCoord(p.pos.Z()),
		encodeYaw(p.yaw), encodePitch(p.pitch)))
}

func (s *Server) handleModR(c *client, msg modrMsg) {
	if c.player == nil {
		return
	}
	x, y, z := int(msg.X), int(msg.Y), int(msg.Z)
	oldT := world.Type(msg.OldT)
	reqT := world.Type(msg.NewT)

	newT, ok := s.engine.AuthorizeUpdate(c.player, x, y, z, oldT, reqT)
	if !ok {
		// Rejected: tell the client its optimistic local change didn't
		// happen, by echoing back the block's actual current type.
		current := s.level.Get(x, y, z)
		c.out.write(c.conn, buildModN(msg.X, msg.Y, msg.Z, byte(rules.ClientBlockType(current))))
		return
	}
	s.UpdateBlock(x, y, z, newT, 0)
}

func (s *Server) handlePlyu(c *client, msg plyuMsg) {
	if c.player == nil {
		return
	}
	c.player.pos[0] = decodeCoord(msg.X)
	c.player.pos[1] = decodeCoord(msg.Y)
	c.player.pos[2] = decodeCoord(msg.Z)
	c.player.yaw = decodeYaw(msg.Yaw)
	c.player.pitch = decodePitch(msg.Pitch)
}

func (s *Server) handleChat(c *client, msg chatMsg) {
	if c.player == nil {
		return
	}
	res := s.engine.OnChat(c.player, msg.Text)
	if res.Private != "" {
		c.out.write(c.conn, buildChat(byte(c.slot), res.Private))
	}
	if res.Broadcast != "" {
		s.broadcast(buildChat(byte(c.slot), res.Broadcast))
	}
}

// --- rules.Sink ---

// UpdateBlock implements rules.Sink. The level is always set immediately and
// a MODN broadcast if the client-visible type changed; only the *reaction* —
// the rule engine's UPDATE event — is deferred when delay is positive, since
// rule-engine chains (e.g. the SuperSponge flood-fill) rely on the
// block already holding newT by the time that event's precondition checks it.
func (s *Server) UpdateBlock(x, y, z int, newT world.Type, delay time.Duration) {
	oldT := s.level.Set(x, y, z, newT)
	if rules.ClientBlockType(oldT) != rules.ClientBlockType(newT) {
		s.broadcast(buildModN(int16(x), int16(y), int16(z), byte(rules.ClientBlockType(newT))))
	}

	if delay > 0 {
		s.queue.Push(event.Event{
			Kind: event.Update, Time: time.Now().Add(delay),
			X: x, Y: y, Z: z, OldType: oldT, NewType: newT,
		})
		return
	}

	s.engine.OnEvent(event.Event{
		Kind: event.Update, Time: time.Now(),
		X: x, Y: y, Z: z, OldType: oldT, NewType: newT,
	})
}

// ScheduleFlow implements rules.Sink.
func (s *Server) ScheduleFlow(x, y, z int, delay time.Duration) {
	s.queue.Push(event.Event{Kind: event.Flow, Time: time.Now().Add(delay), X: x, Y: y, Z: z})
}

// ScheduleGrow implements rules.Sink.
func (s *Server) ScheduleGrow(x, y, z int, delay time.Duration) {
	s.queue.Push(event.Event{Kind: event.Grow, Time: time.Now().Add(delay), X: x, Y: y, Z: z})
}
