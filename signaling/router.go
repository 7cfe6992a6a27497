package signaling

import (
	"github.com/google/uuid"

	"roomcast"
	"roomcast/registry"
)

// Router fans signaling envelopes out to their recipients. It is stateless:
// delivery is best-effort against the connected set at the moment of the
// call, with no buffering and no retries.
type Router struct {
	reg    *registry.Registry
	lookup func(roomcast.ClientID) (Sink, bool)
}

// Relay forwards msg's payload with From stamped. A set To addresses exactly
// one recipient; a recipient that is gone is dropped silently, the sender has
// no reliable way to act on that mid-negotiation anyway. An unset To is a
// broadcast to every other member of the sender's room.
func (r *Router) Relay(from roomcast.ClientID, msg Msg) {
	out := Msg{Type: Signal, From: from, To: msg.To, Payload: msg.Payload}
	if msg.To != uuid.Nil {
		if sink, ok := r.lookup(msg.To); ok {
			sink.Deliver(out)
		}
		return
	}
	for _, peer := range r.reg.RoomPeers(from) {
		if sink, ok := r.lookup(peer); ok {
			sink.Deliver(out)
		}
	}
}
