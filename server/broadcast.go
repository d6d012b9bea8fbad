package server

// 广播层：把一致性快照序列化后，只投递给注册表中属于该房间的连接。
// 单个连接投递失败/队列满只影响它自己（Enqueue 满则丢），绝不拖慢 Tick。

// broadcastState 每 Tick 恰好广播一次全量对局快照（固定节拍，非增量）
func (g *Game) broadcastState() {
	if g.reg == nil {
		return
	}
	b := encodeMessage("game_state", g.Snapshot())
	if b == nil {
		return
	}
	for _, c := range g.reg.MembersOf(g.roomID) {
		c.Enqueue(b)
	}
}

// broadcastRoomUpdate 大厅花名册广播：每次成功的大厅变更后调用一次
func broadcastRoomUpdate(reg *SessionRegistry, store Storage, roomID int) {
	room, err := store.GetRoom(roomID)
	if err != nil {
		Log.Warnf("room update broadcast skipped: room=%d err=%v", roomID, err)
		return
	}
	players, err := store.GetPlayersInRoom(roomID)
	if err != nil {
		Log.Warnf("room update broadcast skipped: room=%d err=%v", roomID, err)
		return
	}
	b := encodeMessage("room_update", RoomUpdateMessage{Players: players, Room: room})
	if b == nil {
		return
	}
	for _, c := range reg.MembersOf(roomID) {
		c.Enqueue(b)
	}
}
