package messaging

import "strings"

// RoomID is the two user ids sorted and joined with "-", so both sides agree on it.
func RoomID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "-" + b
}

// canJoin reports whether userID is one of the two parties of room.
func canJoin(room, userID string) bool {
	if userID == "" || len(room) <= len(userID)+1 {
		return false
	}
	return strings.HasPrefix(room, userID+"-") || strings.HasSuffix(room, "-"+userID)
}
