package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn() *ClientConn {
	return &ClientConn{send: make(chan []byte, 64)}
}

func TestRegistryBindAndMembers(t *testing.T) {
	reg := NewSessionRegistry()
	c1, c2, c3 := newTestConn(), newTestConn(), newTestConn()

	reg.Bind(c1, 1, "s1")
	reg.Bind(c2, 1, "s2")
	reg.Bind(c3, 2, "s3")

	assert.Len(t, reg.MembersOf(1), 2)
	assert.Len(t, reg.MembersOf(2), 1)
	assert.Empty(t, reg.MembersOf(3))
}

func TestRegistryRebindMovesRoom(t *testing.T) {
	reg := NewSessionRegistry()
	c := newTestConn()

	reg.Bind(c, 1, "s1")
	reg.Bind(c, 2, "s1") // 重复绑定覆盖旧归属

	assert.Empty(t, reg.MembersOf(1))
	assert.Len(t, reg.MembersOf(2), 1)
}

func TestRegistryUnbind(t *testing.T) {
	reg := NewSessionRegistry()
	c := newTestConn()
	reg.Bind(c, 7, "s9")

	roomID, sessionID, ok := reg.Unbind(c)
	require.True(t, ok)
	assert.Equal(t, 7, roomID)
	assert.Equal(t, "s9", sessionID)
	// 解绑立即生效：后续广播查询不会再看到该连接
	assert.Empty(t, reg.MembersOf(7))

	// 未绑定过的连接解绑不是错误
	_, _, ok = reg.Unbind(newTestConn())
	assert.False(t, ok)
}
