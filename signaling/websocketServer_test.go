package signaling

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"

	"roomcast"
)

// events funnels one client's callbacks into channels so the test can wait
// on them.
type events struct {
	status   chan Msg
	created  chan roomcast.RoomID
	denied   chan Msg
	notFound chan roomcast.RoomID
	users    chan []Peer
	joined   chan Peer
	left     chan roomcast.ClientID
	signals  chan Msg
}

func newEvents() *events {
	return &events{
		status:   make(chan Msg, 4),
		created:  make(chan roomcast.RoomID, 4),
		denied:   make(chan Msg, 4),
		notFound: make(chan roomcast.RoomID, 4),
		users:    make(chan []Peer, 4),
		joined:   make(chan Peer, 4),
		left:     make(chan roomcast.ClientID, 4),
		signals:  make(chan Msg, 4),
	}
}

func (e *events) handlers() Handlers {
	return Handlers{
		OnRoomStatus:   func(roomId roomcast.RoomID, exists bool) { e.status <- Msg{RoomId: roomId, Exists: exists} },
		OnRoomCreated:  func(roomId roomcast.RoomID) { e.created <- roomId },
		OnCreateDenied: func(roomId roomcast.RoomID, reason string) { e.denied <- Msg{RoomId: roomId, Reason: reason} },
		OnRoomNotFound: func(roomId roomcast.RoomID) { e.notFound <- roomId },
		OnRoomUsers:    func(peers []Peer) { e.users <- peers },
		OnPeerJoined:   func(peer Peer) { e.joined <- peer },
		OnPeerLeft:     func(id roomcast.ClientID) { e.left <- id },
		OnSignal:       func(from roomcast.ClientID, payload []byte) { e.signals <- Msg{From: from, Payload: payload} },
	}
}

func recv[T any](t *testing.T, ch chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

func dialTestClient(t *testing.T, host string) (*Client, *events) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cl, err := NewClient(host, SchemeWs, log, websocket.DialOptions{})
	require.NoError(t, err)
	ev := newEvents()
	go cl.Listen(ev.handlers())
	return cl, ev
}

func TestWebsocketServer_EndToEnd(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(log, websocket.AcceptOptions{})
	ts := httptest.NewServer(srv.Mux)
	defer ts.Close()
	host := strings.TrimPrefix(ts.URL, "http://")

	alice, aliceEv := dialTestClient(t, host)
	defer alice.Close()

	// a fresh server knows no rooms
	req.NoError(alice.CheckRoom("r1"))
	status := recv(t, aliceEv.status, "room status")
	req.False(status.Exists)

	// Alice creates r1 and gets the confirmation plus an empty peer list
	req.NoError(alice.CreateRoom("r1", "Alice"))
	req.Equal(roomcast.RoomID("r1"), recv(t, aliceEv.created, "room created"))
	req.Empty(recv(t, aliceEv.users, "alice peer list"))

	req.NoError(alice.CheckRoom("r1"))
	req.True(recv(t, aliceEv.status, "room status").Exists)

	// Bob joins and sees Alice; Alice sees Bob arrive
	bob, bobEv := dialTestClient(t, host)
	defer bob.Close()
	req.NoError(bob.JoinRoom("r1", "Bob"))

	bobPeers := recv(t, bobEv.users, "bob peer list")
	req.Len(bobPeers, 1)
	req.Equal("Alice", bobPeers[0].Name)
	aliceID := bobPeers[0].Id

	bobJoined := recv(t, aliceEv.joined, "peer joined")
	req.Equal("Bob", bobJoined.Name)

	// Bob signals Alice directly; the envelope arrives from-stamped
	req.NoError(bob.Send(aliceID, []byte("offer")))
	sig := recv(t, aliceEv.signals, "targeted signal")
	req.Equal(bobJoined.Id, sig.From)
	req.Equal([]byte("offer"), sig.Payload)

	// Alice broadcasts; Bob receives it
	req.NoError(alice.Broadcast([]byte("candidate")))
	sig = recv(t, bobEv.signals, "broadcast signal")
	req.Equal(aliceID, sig.From)
	req.Equal([]byte("candidate"), sig.Payload)

	// Bob's disconnect reaches Alice as a departure
	req.NoError(bob.Close())
	req.Equal(bobJoined.Id, recv(t, aliceEv.left, "peer left"))
}

func TestWebsocketServer_JoinMissingRoom(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(log, websocket.AcceptOptions{})
	ts := httptest.NewServer(srv.Mux)
	defer ts.Close()
	host := strings.TrimPrefix(ts.URL, "http://")

	bob, bobEv := dialTestClient(t, host)
	defer bob.Close()

	req.NoError(bob.JoinRoom("nowhere", "Bob"))
	req.Equal(roomcast.RoomID("nowhere"), recv(t, bobEv.notFound, "room not found"))

	// the failed join created nothing
	req.NoError(bob.CheckRoom("nowhere"))
	req.False(recv(t, bobEv.status, "room status").Exists)
}

func TestWebsocketServer_CreateDenied(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(log, websocket.AcceptOptions{})
	ts := httptest.NewServer(srv.Mux)
	defer ts.Close()
	host := strings.TrimPrefix(ts.URL, "http://")

	alice, aliceEv := dialTestClient(t, host)
	defer alice.Close()
	req.NoError(alice.CreateRoom("r1", "Alice"))
	recv(t, aliceEv.created, "room created")

	bob, bobEv := dialTestClient(t, host)
	defer bob.Close()
	req.NoError(bob.CreateRoom("r1", "Bob"))
	denied := recv(t, bobEv.denied, "create denied")
	req.Equal(roomcast.RoomID("r1"), denied.RoomId)
	req.Equal("room already exists", denied.Reason)
}

func TestWebsocketServer_LastLeaverDeletesRoom(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(log, websocket.AcceptOptions{})
	ts := httptest.NewServer(srv.Mux)
	defer ts.Close()
	host := strings.TrimPrefix(ts.URL, "http://")

	alice, aliceEv := dialTestClient(t, host)
	req.NoError(alice.CreateRoom("r1", "Alice"))
	recv(t, aliceEv.created, "room created")
	req.NoError(alice.Close())

	// poll through a second connection until the disconnect lands
	carol, carolEv := dialTestClient(t, host)
	defer carol.Close()
	deadline := time.Now().Add(5 * time.Second)
	for {
		req.NoError(carol.CheckRoom("r1"))
		if !recv(t, carolEv.status, "room status").Exists {
			break
		}
		req.True(time.Now().Before(deadline), "room was never deleted")
		time.Sleep(20 * time.Millisecond)
	}
}
