package signaling

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"roomcast"
	"roomcast/registry"
)

const (
	// Close if a single write takes longer than this.
	writeTimeout = time.Second * 2
	// Idle connections are kept alive by the ping loop; a read only fails
	// after the peer has been silent past this.
	readTimeout  = time.Second * 75
	pingInterval = time.Second * 25
	// Outbound envelopes queued per connection before drops start.
	outboundBuffer = 32
)

// Serverside implementation of the websocket signaling server. One endpoint,
// GET /ws: each accepted socket becomes one connection handle with a fresh
// id, and every event travels in a Msg envelope on that socket.
type WebsocketServer struct {
	opts  websocket.AcceptOptions
	coord *Coordinator
	Mux   *http.ServeMux
	log   *slog.Logger
}

// Uses Default logger if logger is nil.
func NewWebsocketServer(coord *Coordinator, log *slog.Logger, opts websocket.AcceptOptions) *WebsocketServer {
	if log == nil {
		log = slog.Default()
	}
	s := new(WebsocketServer)
	s.coord = coord
	s.log = log
	s.opts = opts
	s.Mux = new(http.ServeMux)
	s.Mux.HandleFunc("GET /ws", s.session)
	return s
}

// NewServer assembles a server over a fresh registry and coordinator.
func NewServer(log *slog.Logger, opts websocket.AcceptOptions) *WebsocketServer {
	return NewWebsocketServer(NewCoordinator(registry.New(), log), log, opts)
}

// GET /ws
func (s *WebsocketServer) session(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &s.opts)
	if err != nil {
		s.log.Debug("failed to accept connection", "error", err)
		return
	}
	// incase it leaks somehow
	defer conn.CloseNow()

	// randomly generated connection id
	var id roomcast.ClientID = uuid.New()

	cc := &clientConn{
		conn: conn,
		out:  make(chan Msg, outboundBuffer),
		done: make(chan struct{}),
		log:  s.log,
	}
	go cc.writeLoop()
	defer close(cc.done)

	// Ping loop
	go func() {
		for {
			time.Sleep(pingInterval)
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				s.log.Debug("shutting down ping loop", "id", id, "error", err)
				return
			}
		}
	}()

	s.coord.Connect(id, cc)
	// implicit leave runs even when the socket is already broken.
	defer s.coord.Disconnect(id)

	lim := rate.NewLimiter(10, 20)
	for {
		if !lim.Allow() {
			conn.Close(websocket.StatusPolicyViolation, "rate limit")
			s.log.Debug("connection closed for ratelimit hit", "id", id)
			return
		}
		msg, err := ReadMsg(conn, readTimeout)
		if err != nil {
			s.log.Debug("connection shutting down", "id", id, "error", err)
			return
		}
		s.coord.Handle(id, msg)
	}
}

// clientConn is one connection's outbound path. Deliver never blocks; the
// writer goroutine drains the queue so a stalled socket only loses its own
// messages.
type clientConn struct {
	conn *websocket.Conn
	out  chan Msg
	done chan struct{}
	log  *slog.Logger
}

func (c *clientConn) Deliver(msg Msg) {
	select {
	case c.out <- msg:
	default:
		c.log.Debug("outbound queue full, dropping", "type", msg.Type)
	}
}

func (c *clientConn) writeLoop() {
	for {
		select {
		case msg := <-c.out:
			if err := WriteMsg(c.conn, msg, writeTimeout); err != nil {
				c.log.Debug("shutting down write loop", "error", err)
				return
			}
		case <-c.done:
			return
		}
	}
}
