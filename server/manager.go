package server

import "sync"

// GameManager 对局监督者：房间 → 对局循环的唯一登记处
// 循环只在这里启动；停止靠循环自身的状态检查，登记项由循环退出时摘除
type GameManager struct {
	mu    sync.RWMutex
	games map[int]*Game
	store Storage
}

func NewGameManager(store Storage) *GameManager {
	return &GameManager{games: make(map[int]*Game), store: store}
}

// Start 为房间启动对局循环；同一房间重复启动是无操作
func (m *GameManager) Start(g *Game) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[g.roomID]; ok {
		return
	}
	m.games[g.roomID] = g
	go g.run(func() { m.onLoopExit(g) })
	Log.Infof("game loop started: room=%d players=%d", g.roomID, len(g.players))
}

// onLoopExit 循环收尾：摘除登记项；分出胜负的对局把房间记录归档为 finished
// （空房触发的停止请求路径下，大厅已先行归档，这里不再重复）
func (m *GameManager) onLoopExit(g *Game) {
	m.remove(g.roomID)
	if g.status != GamePlaying {
		if _, err := m.store.UpdateRoomStatus(g.roomID, RoomFinished); err != nil {
			Log.Warnf("finish room failed: room=%d err=%v", g.roomID, err)
		}
	}
}

// Get 取房间当前对局；没有进行中的对局返回 nil
func (m *GameManager) Get(roomID int) *Game {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.games[roomID]
}

// RequestStop 请求房间对局退出（如末位玩家离开）；循环在下个 Tick 自行收尾
func (m *GameManager) RequestStop(roomID int) {
	if g := m.Get(roomID); g != nil {
		g.RequestStop()
	}
}

func (m *GameManager) remove(roomID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, roomID)
}
