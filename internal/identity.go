package internal

import (
	"crypto/rand"

	"roomcast"
)

// SixCharRoomID returns a short random room id, convenient for invite links.
func SixCharRoomID() roomcast.RoomID {
	return roomcast.RoomID(rand.Text()[:6])
}

func GenerateUniqueRoomID(isUnique func(roomId roomcast.RoomID) bool) roomcast.RoomID {
	id := SixCharRoomID()
	for !isUnique(id) {
		id = SixCharRoomID()
	}
	return id
}

// PlaceholderName derives a display name for members that never sent one.
func PlaceholderName(id roomcast.ClientID) string {
	return "User " + id.String()[:8]
}
