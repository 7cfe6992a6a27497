package roomcast

import (
	"github.com/google/uuid"
)

// RoomID names a room. Room ids are caller-supplied and must be non-empty.
type RoomID string

// ClientID identifies one connection for its whole lifetime.
// Assigned by the server at accept time, never reused while live.
type ClientID = uuid.UUID
