// Package registry tracks rooms, their members, and display-name bindings.
//
// The registry is the only shared mutable state in the coordinator. All of it
// lives behind one mutex and every operation is a short in-memory critical
// section: callers receive copies and perform any delivery work outside the
// lock.
package registry

import (
	"errors"
	"sync"

	"roomcast"
	"roomcast/internal"
)

var (
	// ErrInvalidRoomID rejects an empty room id before any mutation.
	ErrInvalidRoomID = errors.New("registry: invalid room id")
	// ErrRoomNotFound is returned when joining a room that does not exist.
	ErrRoomNotFound = errors.New("registry: room not found")
	// ErrRoomExists is returned when creating a room id already in use.
	ErrRoomExists = errors.New("registry: room already exists")
)

// Member is a room member with its display name resolved.
type Member struct {
	ID   roomcast.ClientID
	Name string
}

// Departure reports a room a member just left: which room, and who is still
// in it. Remaining is empty when the member was the last one and the room was
// torn down.
type Departure struct {
	Room      roomcast.RoomID
	Remaining []roomcast.ClientID
}

// Registry maps room ids to member sets and member ids to their current room
// and display name. A member belongs to at most one room; a room with zero
// members does not exist.
type Registry struct {
	mu      sync.Mutex
	rooms   map[roomcast.RoomID]map[roomcast.ClientID]struct{}
	current map[roomcast.ClientID]roomcast.RoomID
	names   map[roomcast.ClientID]string
}

func New() *Registry {
	return &Registry{
		rooms:   make(map[roomcast.RoomID]map[roomcast.ClientID]struct{}),
		current: make(map[roomcast.ClientID]roomcast.RoomID),
		names:   make(map[roomcast.ClientID]string),
	}
}

// CreateRoom creates roomID with creator as its only member and binds the
// creator's name. Fails without side effects if the id is empty or taken.
// The returned Departure describes the creator's previous room, if any.
func (r *Registry) CreateRoom(roomID roomcast.RoomID, creator roomcast.ClientID, name string) (*Departure, error) {
	if roomID == "" {
		return nil, ErrInvalidRoomID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; ok {
		return nil, ErrRoomExists
	}
	left := r.leaveLocked(creator)
	if name != "" {
		r.names[creator] = name
	}
	r.rooms[roomID] = map[roomcast.ClientID]struct{}{creator: {}}
	r.current[creator] = roomID
	return left, nil
}

// JoinRoom adds member to roomID, binding its name and implicitly leaving any
// previous room. It returns the member set as it was before the join, names
// resolved, so the caller can inform the joiner and notify the others. The
// joiner never appears in its own peer list.
func (r *Registry) JoinRoom(roomID roomcast.RoomID, member roomcast.ClientID, name string) ([]Member, *Departure, error) {
	if roomID == "" {
		return nil, nil, ErrInvalidRoomID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	// Rejoining the current room refreshes the name and peer list without a
	// departure. leaveLocked would otherwise tear the room down if member
	// were its only occupant.
	var left *Departure
	if r.current[member] != roomID {
		left = r.leaveLocked(member)
	} else {
		delete(members, member)
	}
	if name != "" {
		r.names[member] = name
	}
	others := make([]Member, 0, len(members))
	for id := range members {
		others = append(others, Member{ID: id, Name: r.nameLocked(id)})
	}
	members[member] = struct{}{}
	r.current[member] = roomID
	return others, left, nil
}

// Leave removes member from roomID. Idempotent: leaving a room or member that
// is not present is a no-op and returns nil.
func (r *Registry) Leave(roomID roomcast.RoomID, member roomcast.ClientID) *Departure {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current[member] != roomID {
		return nil
	}
	return r.leaveLocked(member)
}

// Remove is the disconnect path: leaves the member's current room (if any)
// and releases its name binding.
func (r *Registry) Remove(member roomcast.ClientID) *Departure {
	r.mu.Lock()
	defer r.mu.Unlock()
	left := r.leaveLocked(member)
	delete(r.names, member)
	return left
}

// leaveLocked removes member from its current room, deleting the room the
// instant it empties. Returns nil if the member was in no room.
func (r *Registry) leaveLocked(member roomcast.ClientID) *Departure {
	roomID, ok := r.current[member]
	if !ok {
		return nil
	}
	delete(r.current, member)
	members := r.rooms[roomID]
	delete(members, member)
	if len(members) == 0 {
		delete(r.rooms, roomID)
		return &Departure{Room: roomID}
	}
	remaining := make([]roomcast.ClientID, 0, len(members))
	for id := range members {
		remaining = append(remaining, id)
	}
	return &Departure{Room: roomID, Remaining: remaining}
}

// Exists reports whether roomID is present. Pure lookup.
func (r *Registry) Exists(roomID roomcast.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[roomID]
	return ok
}

// MembersOf returns the member ids of roomID, empty if the room is absent.
func (r *Registry) MembersOf(roomID roomcast.RoomID) []roomcast.ClientID {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.rooms[roomID]
	out := make([]roomcast.ClientID, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// CurrentRoom returns the room member currently belongs to.
func (r *Registry) CurrentRoom(member roomcast.ClientID) (roomcast.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roomID, ok := r.current[member]
	return roomID, ok
}

// RoomPeers returns the other members of member's current room, empty if the
// member is in no room.
func (r *Registry) RoomPeers(member roomcast.ClientID) []roomcast.ClientID {
	r.mu.Lock()
	defer r.mu.Unlock()
	roomID, ok := r.current[member]
	if !ok {
		return nil
	}
	members := r.rooms[roomID]
	out := make([]roomcast.ClientID, 0, len(members)-1)
	for id := range members {
		if id != member {
			out = append(out, id)
		}
	}
	return out
}

// SetName binds a display name to member.
func (r *Registry) SetName(member roomcast.ClientID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[member] = name
}

// Name returns member's display name, or a derived placeholder if none was
// ever bound.
func (r *Registry) Name(member roomcast.ClientID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nameLocked(member)
}

func (r *Registry) nameLocked(member roomcast.ClientID) string {
	if name, ok := r.names[member]; ok && name != "" {
		return name
	}
	return internal.PlaceholderName(member)
}
