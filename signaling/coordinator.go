package signaling

import (
	"errors"
	"log/slog"

	"github.com/go4org/hashtriemap"
	"github.com/samber/lo"

	"roomcast"
	"roomcast/registry"
)

// Sink delivers outbound envelopes to one connected client.
//
// Deliver must not block: the coordinator calls it while fanning out
// notifications and a stalled peer must never hold up room operations for
// anyone else. Implementations queue or drop.
type Sink interface {
	Deliver(Msg)
}

// Coordinator wires connection lifecycle events to the room registry and the
// relay router, and emits presence notifications back to the affected
// connections. It holds no transport details: the transport registers each
// connection with Connect, feeds inbound envelopes through Handle, and calls
// Disconnect exactly once when the connection dies, for any reason.
type Coordinator struct {
	reg *registry.Registry
	// map connection id to its outbound sink.
	sinks  hashtriemap.HashTrieMap[roomcast.ClientID, Sink]
	router *Router
	log    *slog.Logger
}

// Uses Default logger if logger is nil.
func NewCoordinator(reg *registry.Registry, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	c := &Coordinator{reg: reg, log: log}
	c.router = &Router{reg: reg, lookup: c.sink}
	return c
}

// Connect registers a new connection and its outbound sink.
func (c *Coordinator) Connect(id roomcast.ClientID, sink Sink) {
	c.sinks.Store(id, sink)
	c.log.Debug("client connected", "id", id)
}

// Disconnect is the implicit leave: it removes the connection from its room,
// notifies the remaining members, and releases the name binding. It never
// touches the departing connection's own sink, so it is safe to call after
// the outbound path is already broken.
func (c *Coordinator) Disconnect(id roomcast.ClientID) {
	c.sinks.Delete(id)
	left := c.reg.Remove(id)
	c.notifyLeft(id, left)
	c.log.Debug("client disconnected", "id", id)
}

// Handle dispatches one inbound envelope. Malformed or unknown envelopes are
// logged and dropped; they never affect other connections.
func (c *Coordinator) Handle(id roomcast.ClientID, msg Msg) {
	switch msg.Type {
	case CheckRoom:
		c.checkRoom(id, msg)
	case CreateRoom:
		c.createRoom(id, msg)
	case JoinRoom:
		c.joinRoom(id, msg)
	case Signal:
		c.signal(id, msg)
	default:
		c.log.Debug("dropping unexpected message", "id", id, "type", msg.Type)
	}
}

func (c *Coordinator) checkRoom(id roomcast.ClientID, msg Msg) {
	c.deliver(id, msgRoomStatus(msg.RoomId, c.reg.Exists(msg.RoomId)))
}

func (c *Coordinator) createRoom(id roomcast.ClientID, msg Msg) {
	left, err := c.reg.CreateRoom(msg.RoomId, id, msg.Name)
	switch {
	case errors.Is(err, registry.ErrInvalidRoomID):
		c.log.Debug("create rejected, invalid room id", "id", id)
		c.deliver(id, msgCreateDenied(msg.RoomId, "invalid room id"))
		return
	case errors.Is(err, registry.ErrRoomExists):
		c.log.Debug("create rejected, room taken", "id", id, "room", msg.RoomId)
		c.deliver(id, msgCreateDenied(msg.RoomId, "room already exists"))
		return
	}
	c.notifyLeft(id, left)
	c.deliver(id, msgRoomCreated(msg.RoomId))
	c.deliver(id, msgRoomUsers([]Peer{}))
	c.log.Info("room created", "room", msg.RoomId, "creator", id)
}

func (c *Coordinator) joinRoom(id roomcast.ClientID, msg Msg) {
	others, left, err := c.reg.JoinRoom(msg.RoomId, id, msg.Name)
	if err != nil {
		c.log.Debug("join rejected", "id", id, "room", msg.RoomId, "error", err)
		c.deliver(id, msgRoomNotFound(msg.RoomId))
		return
	}
	c.notifyLeft(id, left)
	// The joiner's list is the pre-join snapshot; prior members then learn
	// of the arrival. The joiner never appears in its own list.
	c.deliver(id, msgRoomUsers(lo.Map(others, func(m registry.Member, _ int) Peer {
		return Peer{Id: m.ID, Name: m.Name}
	})))
	joined := msgPeerJoined(Peer{Id: id, Name: c.reg.Name(id)})
	for _, other := range others {
		c.deliver(other.ID, joined)
	}
	c.log.Info("room joined", "room", msg.RoomId, "member", id, "peers", len(others))
}

func (c *Coordinator) signal(id roomcast.ClientID, msg Msg) {
	if len(msg.Payload) == 0 {
		c.log.Debug("dropping signal without payload", "id", id)
		return
	}
	c.router.Relay(id, msg)
}

// notifyLeft tells the remaining members of a departed room that the member
// is gone. No-op for a nil departure.
func (c *Coordinator) notifyLeft(id roomcast.ClientID, left *registry.Departure) {
	if left == nil {
		return
	}
	gone := msgPeerLeft(id)
	for _, member := range left.Remaining {
		c.deliver(member, gone)
	}
	if len(left.Remaining) == 0 {
		c.log.Info("room deleted", "room", left.Room)
	}
}

func (c *Coordinator) deliver(id roomcast.ClientID, msg Msg) {
	sink, ok := c.sinks.Load(id)
	if !ok {
		return
	}
	sink.Deliver(msg)
}

func (c *Coordinator) sink(id roomcast.ClientID) (Sink, bool) {
	return c.sinks.Load(id)
}
