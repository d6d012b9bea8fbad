package server

import "sync"

// binding 连接归属：属于哪个房间、对应哪个会话
type binding struct {
	roomID    int
	sessionID string
}

// SessionRegistry 维护“连接 → (房间, 会话)”关系，供按房间定向广播使用
// 绑定/解绑与广播读取必须同步一致：解绑后的连接不能再收到任何帧
type SessionRegistry struct {
	mu    sync.RWMutex
	conns map[*ClientConn]binding
	rooms map[int]map[*ClientConn]struct{}
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		conns: make(map[*ClientConn]binding),
		rooms: make(map[int]map[*ClientConn]struct{}),
	}
}

// Bind 绑定连接到 (roomID, sessionID)；幂等，重复绑定覆盖旧归属
func (reg *SessionRegistry) Bind(c *ClientConn, roomID int, sessionID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if old, ok := reg.conns[c]; ok {
		reg.dropFromRoom(c, old.roomID)
	}
	reg.conns[c] = binding{roomID: roomID, sessionID: sessionID}
	set, ok := reg.rooms[roomID]
	if !ok {
		set = make(map[*ClientConn]struct{})
		reg.rooms[roomID] = set
	}
	set[c] = struct{}{}
}

// Unbind 解除绑定并返回原归属；未绑定过不是错误（连接可能还没 join 就断了）
func (reg *SessionRegistry) Unbind(c *ClientConn) (roomID int, sessionID string, ok bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	b, ok := reg.conns[c]
	if !ok {
		return 0, "", false
	}
	delete(reg.conns, c)
	reg.dropFromRoom(c, b.roomID)
	return b.roomID, b.sessionID, true
}

// MembersOf 返回当前绑定到该房间的全部连接（副本，调用方可安全遍历）
func (reg *SessionRegistry) MembersOf(roomID int) []*ClientConn {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	set := reg.rooms[roomID]
	out := make([]*ClientConn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (reg *SessionRegistry) dropFromRoom(c *ClientConn, roomID int) {
	if set, ok := reg.rooms[roomID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(reg.rooms, roomID)
		}
	}
}
