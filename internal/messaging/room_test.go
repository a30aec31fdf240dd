package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomIDIsOrderIndependent(t *testing.T) {
	assert.Equal(t, RoomID("b", "a"), RoomID("a", "b"))
	assert.Equal(t, "a-b", RoomID("b", "a"))
}

func TestCanJoin(t *testing.T) {
	room := RoomID("11111111-aaaa", "22222222-bbbb")
	assert.True(t, canJoin(room, "11111111-aaaa"))
	assert.True(t, canJoin(room, "22222222-bbbb"))
	assert.False(t, canJoin(room, "33333333-cccc"))
	assert.False(t, canJoin(room, ""))
	assert.False(t, canJoin("11111111-aaaa", "11111111-aaaa"))
}
