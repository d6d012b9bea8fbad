package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recvFrame 非阻塞取一帧；广播是同步入队的，帧要么已在队列里要么没发
func recvFrame(t *testing.T, c *ClientConn) []byte {
	t.Helper()
	select {
	case b := <-c.send:
		return b
	default:
		t.Fatal("expected a frame in the send queue")
		return nil
	}
}

func TestGameStateBroadcastScopedToRoom(t *testing.T) {
	reg := NewSessionRegistry()
	c1, c2, outsider := newTestConn(), newTestConn(), newTestConn()
	reg.Bind(c1, 1, "s-alice")
	reg.Bind(c2, 1, "s-bob")
	reg.Bind(outsider, 2, "s-other")

	roster := []*Player{
		{ID: 1, RoomID: 1, SessionID: "s-alice", Name: "alice", Role: RoleSwordsman},
		{ID: 2, RoomID: 1, SessionID: "s-bob", Name: "bob", Role: RoleMage},
	}
	g := NewGame(1, roster, reg)
	g.broadcastState()

	// 房间成员每 Tick 各收到一帧全量快照
	for _, c := range []*ClientConn{c1, c2} {
		b := recvFrame(t, c)
		assert.Contains(t, string(b), `"type":"game_state"`)
		assert.Contains(t, string(b), `"s-alice"`)
	}
	// 其他房间的连接一帧都不会收到
	select {
	case b := <-outsider.send:
		t.Fatalf("connection in another room received a frame: %s", b)
	default:
	}
}

func TestRoomUpdateBroadcastScopedToRoom(t *testing.T) {
	store := NewMemoryStorage()
	reg := NewSessionRegistry()
	room1, err := store.CreateRoom()
	require.NoError(t, err)
	room2, err := store.CreateRoom()
	require.NoError(t, err)
	_, err = store.AddPlayer(&Player{RoomID: room1.ID, SessionID: "s1", Name: "alice", IsHost: true})
	require.NoError(t, err)

	member, outsider := newTestConn(), newTestConn()
	reg.Bind(member, room1.ID, "s1")
	reg.Bind(outsider, room2.ID, "s2")

	broadcastRoomUpdate(reg, store, room1.ID)

	b := recvFrame(t, member)
	assert.Contains(t, string(b), `"type":"room_update"`)
	assert.Contains(t, string(b), `"alice"`)
	select {
	case <-outsider.send:
		t.Fatal("roster update leaked to another room")
	default:
	}
}
