package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomCodesUniqueAndShort(t *testing.T) {
	s := NewMemoryStorage()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room, err := s.CreateRoom()
		require.NoError(t, err)
		assert.Len(t, room.Code, 4)
		assert.False(t, seen[room.Code], "duplicate code %s", room.Code)
		seen[room.Code] = true
		assert.Equal(t, RoomWaiting, room.Status)
	}
}

func TestRoomLookupAndStatus(t *testing.T) {
	s := NewMemoryStorage()
	room, err := s.CreateRoom()
	require.NoError(t, err)

	byCode, err := s.GetRoomByCode(room.Code)
	require.NoError(t, err)
	assert.Equal(t, room.ID, byCode.ID)

	_, err = s.GetRoomByCode("ZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := s.UpdateRoomStatus(room.ID, RoomPlaying)
	require.NoError(t, err)
	assert.Equal(t, RoomPlaying, updated.Status)
}

func TestPlayerLifecycle(t *testing.T) {
	s := NewMemoryStorage()
	room, _ := s.CreateRoom()

	p1, err := s.AddPlayer(&Player{RoomID: room.ID, SessionID: "s1", Name: "alice", IsHost: true})
	require.NoError(t, err)
	p2, err := s.AddPlayer(&Player{RoomID: room.ID, SessionID: "s2", Name: "bob"})
	require.NoError(t, err)

	// 按加入先后排序返回
	players, err := s.GetPlayersInRoom(room.ID)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, p1.ID, players[0].ID)
	assert.Equal(t, p2.ID, players[1].ID)

	_, err = s.UpdatePlayerRole(p1.ID, RoleMage)
	require.NoError(t, err)
	_, err = s.UpdatePlayerReady(p1.ID, true)
	require.NoError(t, err)
	got, err := s.GetPlayerBySessionID("s1")
	require.NoError(t, err)
	assert.Equal(t, RoleMage, got.Role)
	assert.True(t, got.IsReady)

	require.NoError(t, s.RemovePlayer("s1"))
	_, err = s.GetPlayerBySessionID("s1")
	assert.ErrorIs(t, err, ErrNotFound)
	players, _ = s.GetPlayersInRoom(room.ID)
	assert.Len(t, players, 1)

	// 删除不存在的会话不是错误
	assert.NoError(t, s.RemovePlayer("nope"))
}
