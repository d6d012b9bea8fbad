package server

import (
	"errors"

	"github.com/google/uuid"
)

// Lobby 大厅状态机：入房、选职业、准备、开局与离场
// 所有校验失败都只回给发起方一条 error 消息，不广播、不致命
type Lobby struct {
	store Storage
	reg   *SessionRegistry
	games *GameManager
}

func NewLobby(store Storage, reg *SessionRegistry, games *GameManager) *Lobby {
	return &Lobby{store: store, reg: reg, games: games}
}

// Join 连接加入房间：已知会话或同名玩家按重连处理（只重绑不建新记录），
// 新玩家仅在房间 waiting 且未满员时创建，首位加入者为房主
func (l *Lobby) Join(c *ClientConn, code, name, sessionID string) (int, string, error) {
	room, err := l.store.GetRoomByCode(code)
	if err != nil {
		return 0, "", errors.New("Room not found")
	}

	// 重连路径：先按会话找，找不到再按名字找（原有客户端只带名字）
	if sessionID != "" {
		if p, perr := l.store.GetPlayerBySessionID(sessionID); perr == nil && p.RoomID == room.ID {
			l.reg.Bind(c, room.ID, p.SessionID)
			broadcastRoomUpdate(l.reg, l.store, room.ID)
			return room.ID, p.SessionID, nil
		}
	}
	existing, err := l.store.GetPlayersInRoom(room.ID)
	if err != nil {
		return 0, "", err
	}
	for _, p := range existing {
		if p.Name == name {
			l.reg.Bind(c, room.ID, p.SessionID)
			broadcastRoomUpdate(l.reg, l.store, room.ID)
			return room.ID, p.SessionID, nil
		}
	}

	if room.Status != RoomWaiting {
		return 0, "", errors.New("Game already in progress")
	}
	if len(existing) >= MaxPlayersPerRoom {
		return 0, "", errors.New("Room is full")
	}

	sid := uuid.NewString()
	player, err := l.store.AddPlayer(&Player{
		RoomID:    room.ID,
		SessionID: sid,
		Name:      name,
		Role:      "", // 职业必须显式选择
		IsHost:    len(existing) == 0,
	})
	if err != nil {
		return 0, "", err
	}
	l.reg.Bind(c, room.ID, sid)
	Log.Infof("player joined: room=%s name=%s host=%v", code, name, player.IsHost)
	broadcastRoomUpdate(l.reg, l.store, room.ID)
	return room.ID, sid, nil
}

// SelectRole 选择职业：准备中不可换；同房他人已占用则拒绝；重选自己的职业视为成功的无操作
func (l *Lobby) SelectRole(roomID int, sessionID, role string) error {
	if !ValidRole(role) {
		return errors.New("invalid role")
	}
	p, err := l.store.GetPlayerBySessionID(sessionID)
	if err != nil {
		return errors.New("player not found")
	}
	if p.IsReady {
		return errors.New("cannot change role while ready")
	}
	if p.Role == role {
		return nil // 无变更，不广播
	}
	others, err := l.store.GetPlayersInRoom(roomID)
	if err != nil {
		return err
	}
	for _, o := range others {
		if o.ID != p.ID && o.Role == role {
			return errors.New("role taken")
		}
	}
	if _, err := l.store.UpdatePlayerRole(p.ID, role); err != nil {
		return err
	}
	broadcastRoomUpdate(l.reg, l.store, roomID)
	return nil
}

// SetReady 切换准备状态；置为准备要求已有职业；每次切换后评估自动开局条件
func (l *Lobby) SetReady(roomID int, sessionID string, ready bool) error {
	p, err := l.store.GetPlayerBySessionID(sessionID)
	if err != nil {
		return errors.New("player not found")
	}
	if ready && p.Role == "" {
		return errors.New("choose a role first")
	}
	if _, err := l.store.UpdatePlayerReady(p.ID, ready); err != nil {
		return err
	}
	broadcastRoomUpdate(l.reg, l.store, roomID)
	l.maybeStart(roomID)
	return nil
}

// StartGame 房主手动开局；条件不满足时带原因拒绝
func (l *Lobby) StartGame(roomID int, sessionID string) error {
	p, err := l.store.GetPlayerBySessionID(sessionID)
	if err != nil {
		return errors.New("player not found")
	}
	if !p.IsHost {
		return errors.New("only the host can start the game")
	}
	players, err := l.store.GetPlayersInRoom(roomID)
	if err != nil {
		return err
	}
	if ok, reason := canStart(players); !ok {
		return errors.New(reason)
	}
	return l.begin(roomID, players)
}

// maybeStart 自动开局：全员准备、全员有职业且职业互异时与手动开局走同一流程
func (l *Lobby) maybeStart(roomID int) {
	players, err := l.store.GetPlayersInRoom(roomID)
	if err != nil {
		return
	}
	if ok, _ := canStart(players); ok {
		if err := l.begin(roomID, players); err != nil {
			Log.Errorf("auto start failed: room=%d err=%v", roomID, err)
		}
	}
}

// canStart 开局守卫：人数 ≥1、全员准备、全员有职业、职业互异
func canStart(players []*Player) (bool, string) {
	if len(players) == 0 {
		return false, "no players in room"
	}
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if p.Role == "" {
			return false, "all players need a role"
		}
		if !p.IsReady {
			return false, "all players must be ready"
		}
		if seen[p.Role] {
			return false, "duplicate roles in room"
		}
		seen[p.Role] = true
	}
	return true, ""
}

// begin 开局流程：房间置 playing，生成对局状态并交给监督者起循环
func (l *Lobby) begin(roomID int, players []*Player) error {
	if _, err := l.store.UpdateRoomStatus(roomID, RoomPlaying); err != nil {
		return err
	}
	l.games.Start(NewGame(roomID, players, l.reg))
	broadcastRoomUpdate(l.reg, l.store, roomID)
	return nil
}

// Disconnect 连接断开：解绑、关闭发送队列（结束写协程）、删玩家记录；
// 对局中该会话按“阵亡且保留”处理；房间清空则置 finished 并请求对局收尾；
// 房主离开则顺位提升最早加入者
func (l *Lobby) Disconnect(c *ClientConn) {
	// 解绑在前、关闭在后：解绑后广播查询不再返回该连接，关闭不会截断在途帧
	defer c.Close()
	roomID, sessionID, ok := l.reg.Unbind(c)
	if !ok {
		return
	}
	p, err := l.store.GetPlayerBySessionID(sessionID)
	if err != nil {
		return // 记录已不存在（如重复断开）
	}
	if err := l.store.RemovePlayer(sessionID); err != nil {
		Log.Warnf("remove player failed: session=%s err=%v", sessionID, err)
	}
	if g := l.games.Get(roomID); g != nil {
		g.RequestLeave(sessionID)
	}
	remaining, err := l.store.GetPlayersInRoom(roomID)
	if err != nil {
		return
	}
	if len(remaining) == 0 {
		if _, err := l.store.UpdateRoomStatus(roomID, RoomFinished); err != nil {
			Log.Warnf("finish room failed: room=%d err=%v", roomID, err)
		}
		l.games.RequestStop(roomID)
		Log.Infof("room emptied: room=%d", roomID)
		return
	}
	if p.IsHost {
		// 最早加入的在场玩家顺位成为房主，避免房间失去开局权
		if _, err := l.store.UpdatePlayerHost(remaining[0].ID, true); err != nil {
			Log.Warnf("host promotion failed: room=%d err=%v", roomID, err)
		}
	}
	broadcastRoomUpdate(l.reg, l.store, roomID)
}
