package signaling

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/coder/websocket"

	"roomcast"
	"roomcast/internal"
)

// WebsocketScheme is the websocket scheme (ws or wss)
type WebsocketScheme string

const (
	// Websocket (non-secure)
	SchemeWs WebsocketScheme = "ws"
	// Websocket secure
	SchemeWss WebsocketScheme = "wss"
)

// Handlers receives the server-sent events of one connection. Nil handlers
// are skipped.
type Handlers struct {
	OnRoomStatus   func(roomId roomcast.RoomID, exists bool)
	OnRoomCreated  func(roomId roomcast.RoomID)
	OnCreateDenied func(roomId roomcast.RoomID, reason string)
	OnRoomNotFound func(roomId roomcast.RoomID)
	OnRoomUsers    func(peers []Peer)
	OnPeerJoined   func(peer Peer)
	OnPeerLeft     func(id roomcast.ClientID)
	OnSignal       func(from roomcast.ClientID, payload []byte)
}

// Client is the Go-side counterpart of the websocket signaling server: one
// socket, envelope in, envelope out. The negotiation payloads it carries are
// opaque to it.
type Client struct {
	conn *websocket.Conn
	log  *slog.Logger
}

// host is the address of the signaling server.
//
// a nil log will use slog.Default().
func NewClient(host string, scheme WebsocketScheme, log *slog.Logger, opts websocket.DialOptions) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	const timeout = time.Second * 5
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	u := url.URL{
		Host:   host,
		Scheme: string(scheme),
		Path:   "ws",
	}
	conn, _, err := websocket.Dial(ctx, u.String(), &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %v %v", u.String(), err)
	}
	return &Client{conn: conn, log: log}, nil
}

// NewRoomID returns a short random room id suitable for CreateRoom. Room ids
// are always chosen by the caller, never by the server.
func NewRoomID() roomcast.RoomID {
	return internal.SixCharRoomID()
}

const clientWriteTimeout = time.Second * 5

// CheckRoom asks whether roomId exists; the answer arrives via OnRoomStatus.
func (c *Client) CheckRoom(roomId roomcast.RoomID) error {
	return WriteMsg(c.conn, Msg{Type: CheckRoom, RoomId: roomId}, clientWriteTimeout)
}

// CreateRoom creates roomId with this connection as its only member.
func (c *Client) CreateRoom(roomId roomcast.RoomID, name string) error {
	return WriteMsg(c.conn, Msg{Type: CreateRoom, RoomId: roomId, Name: name}, clientWriteTimeout)
}

// JoinRoom joins an existing room, implicitly leaving the previous one.
func (c *Client) JoinRoom(roomId roomcast.RoomID, name string) error {
	return WriteMsg(c.conn, Msg{Type: JoinRoom, RoomId: roomId, Name: name}, clientWriteTimeout)
}

// Send forwards an opaque payload to one peer.
func (c *Client) Send(to roomcast.ClientID, payload []byte) error {
	return WriteMsg(c.conn, Msg{Type: Signal, To: to, Payload: payload}, clientWriteTimeout)
}

// Broadcast forwards an opaque payload to every other member of the current
// room.
func (c *Client) Broadcast(payload []byte) error {
	return WriteMsg(c.conn, Msg{Type: Signal, Payload: payload}, clientWriteTimeout)
}

// Listen blocks the thread, dispatching server events to h until the socket
// closes or a read fails.
func (c *Client) Listen(h Handlers) error {
	defer c.conn.Close(websocket.StatusGoingAway, "disconnecting")
	for {
		msg, err := ReadMsg(c.conn, readTimeout)
		if err != nil {
			return err
		}
		switch msg.Type {
		case RoomStatus:
			if h.OnRoomStatus != nil {
				h.OnRoomStatus(msg.RoomId, msg.Exists)
			}
		case RoomCreated:
			if h.OnRoomCreated != nil {
				h.OnRoomCreated(msg.RoomId)
			}
		case CreateDenied:
			if h.OnCreateDenied != nil {
				h.OnCreateDenied(msg.RoomId, msg.Reason)
			}
		case RoomNotFound:
			if h.OnRoomNotFound != nil {
				h.OnRoomNotFound(msg.RoomId)
			}
		case RoomUsers:
			if h.OnRoomUsers != nil {
				h.OnRoomUsers(msg.Peers)
			}
		case PeerJoined:
			if h.OnPeerJoined != nil {
				h.OnPeerJoined(msg.Peer)
			}
		case PeerLeft:
			if h.OnPeerLeft != nil {
				h.OnPeerLeft(msg.PeerId)
			}
		case Signal:
			if h.OnSignal != nil {
				h.OnSignal(msg.From, msg.Payload)
			}
		default:
			c.log.Debug("ignoring unexpected message", "type", msg.Type)
		}
	}
}

// Close tears the socket down.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
