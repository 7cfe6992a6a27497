package signaling

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/shamaton/msgpack/v2"

	"roomcast"
)

//go:generate stringer -type=MsgType
type MsgType int

const (
	Invalid MsgType = iota
	// Client -> Server Msg{CheckRoom: RoomId}
	//
	// Asks whether a room currently exists. Pure lookup, no side effects.
	CheckRoom
	// Server -> Client Msg{RoomStatus: RoomId, Exists}
	//
	// Reply to CheckRoom.
	RoomStatus
	// Client -> Server Msg{CreateRoom: RoomId, Name}
	//
	// Creates a room with the caller as its only member and binds the
	// caller's display name. Room ids are chosen by the caller.
	CreateRoom
	// Server -> Client Msg{RoomCreated: RoomId}
	//
	// Confirms CreateRoom. Followed by an empty RoomUsers message.
	RoomCreated
	// Server -> Client Msg{CreateDenied: RoomId, Reason}
	//
	// CreateRoom failed: the id is empty or already in use.
	CreateDenied
	// Client -> Server Msg{JoinRoom: RoomId, Name}
	//
	// Joins an existing room, implicitly leaving the previous one.
	JoinRoom
	// Server -> Client Msg{RoomNotFound: RoomId}
	//
	// JoinRoom failed: no such room. Nothing was created or mutated.
	RoomNotFound
	// Server -> Client Msg{RoomUsers: Peers}
	//
	// The members already present when the caller entered a room. The
	// caller itself is never in the list.
	RoomUsers
	// Server -> Room Msg{PeerJoined: Peer}
	//
	// Sent to every prior member when a new peer enters their room.
	PeerJoined
	// Server -> Room Msg{PeerLeft: PeerId}
	//
	// Sent to the remaining members when a peer leaves or disconnects.
	PeerLeft
	// Client -> Server -> Client Msg{Signal: To,Payload}
	//
	// Opaque negotiation payload. With To set it is forwarded to exactly
	// that peer; with To unset it is forwarded to every other member of
	// the sender's room. The server stamps From and never inspects the
	// payload.
	Signal
)

// Peer is a room member as seen on the wire.
type Peer struct {
	Id   roomcast.ClientID
	Name string
}

// Msg is the single envelope shape for every message on the socket. Which
// fields are meaningful depends on Type; see the MsgType constants.
type Msg struct {
	Type    MsgType
	RoomId  roomcast.RoomID
	Exists  bool
	Name    string
	Peer    Peer
	PeerId  roomcast.ClientID
	Peers   []Peer
	From    roomcast.ClientID
	To      roomcast.ClientID
	Payload []byte
	Reason  string
}

func msgRoomStatus(roomId roomcast.RoomID, exists bool) Msg {
	return Msg{Type: RoomStatus, RoomId: roomId, Exists: exists}
}

func msgRoomCreated(roomId roomcast.RoomID) Msg {
	return Msg{Type: RoomCreated, RoomId: roomId}
}

func msgCreateDenied(roomId roomcast.RoomID, reason string) Msg {
	return Msg{Type: CreateDenied, RoomId: roomId, Reason: reason}
}

func msgRoomNotFound(roomId roomcast.RoomID) Msg {
	return Msg{Type: RoomNotFound, RoomId: roomId}
}

func msgRoomUsers(peers []Peer) Msg {
	return Msg{Type: RoomUsers, Peers: peers}
}

func msgPeerJoined(peer Peer) Msg {
	return Msg{Type: PeerJoined, Peer: peer}
}

func msgPeerLeft(id roomcast.ClientID) Msg {
	return Msg{Type: PeerLeft, PeerId: id}
}

// Marshal Msg as array and write to Conn.
// Error if marshal or write fails.
func WriteMsg(conn *websocket.Conn, msg Msg, timeout time.Duration) error {
	b, err := msgpack.MarshalAsArray(msg)
	if err != nil {
		return fmt.Errorf("signaling.writeMsg: failed to marshal %T %v", msg, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// write to socket, return if error or timeout.
	err = conn.Write(ctx, websocket.MessageBinary, b)
	if err != nil {
		return fmt.Errorf("signaling.writeMsg: failed to write %T %v", msg, err)
	}
	return nil
}

// Read one Msg from Conn and unmarshal it.
// Error if read or unmarshal fails.
func ReadMsg(conn *websocket.Conn, timeout time.Duration) (Msg, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	t, b, err := conn.Read(ctx)
	if err != nil {
		return Msg{}, fmt.Errorf("signaling.readMsg: %v", err)
	}
	// only binary payloads are valid envelopes.
	if t != websocket.MessageBinary {
		return Msg{}, fmt.Errorf("signaling.readMsg: message type is not binary")
	}
	msg := new(Msg)
	err = msgpack.UnmarshalAsArray(b, msg)
	if err != nil {
		return Msg{}, fmt.Errorf("signaling.readMsg: failed to unmarshal message as array")
	}

	return *msg, nil
}
