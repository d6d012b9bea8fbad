package server

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// timeNow 可替换时钟（测试注入）
var timeNow = time.Now

// 对局内状态（与持久化的房间状态相互独立）
const (
	GamePlaying = "playing"
	GameWon     = "won"
	GameLost    = "lost"
)

// 关卡阶段：庭院 → 地牢 → Boss → 通关，严格单向推进
const (
	PhaseCourtyard = "courtyard"
	PhaseDungeon   = "dungeon"
	PhaseBoss      = "boss"
	PhaseCleared   = "cleared"
)

// BossWaveSentinel Boss 阶段的波次哨兵值（非地牢波次）
const BossWaveSentinel = 99

// 世界与战斗常量
const (
	worldWidth  = 800.0
	worldHeight = 600.0
	boundMargin = 20.0 // 位置裁剪边距：[20, w-20] × [20, h-20]

	playerMaxHealth = 100.0
	contactRadius   = 30.0                   // 敌人贴身伤害判定半径
	attackWindow    = 200 * time.Millisecond // 攻击后摇 = 冷却窗口

	bossMeleeDamage = 8.0 // Boss 吃到的近战伤害被削减（刻意的难度不对称）

	spawnEdgeX = 60.0 // 开局玩家沿左边缘纵向等距排开
)

// 敌人类型：goblin 弱/快，orc 中等，boss 慢/厚
const (
	EnemyGoblin = "goblin"
	EnemyOrc    = "orc"
	EnemyBoss   = "boss"
)

type enemyStats struct {
	Speed         float64 // 每 Tick 追击步长
	MaxHealth     float64
	ContactDamage float64 // 贴身时每 Tick 对目标的伤害
}

var enemyTable = map[string]enemyStats{
	EnemyGoblin: {Speed: 2.0, MaxHealth: 50, ContactDamage: 0.5},
	EnemyOrc:    {Speed: 1.7, MaxHealth: 120, ContactDamage: 1.0},
	EnemyBoss:   {Speed: 1.2, MaxHealth: 500, ContactDamage: 2.0},
}

// RuntimePlayer 对局内玩家状态：只在对局存续期间存在，不落库
// 死亡（血量归零）的玩家保留在映射里，用于波次与败北结算，绝不移除
type RuntimePlayer struct {
	PlayerID  int
	SessionID string
	Name      string
	Role      string

	X, Y      float64
	Health    float64
	MaxHealth float64
	Facing    string

	// 攻击冷却用截止时间戳表达，每 Tick 判断，避免回调定时器与主循环抢状态
	AttackUntil time.Time

	// 本 Tick 待结算的输入意图（由输入队列在 Tick 开头写入）
	intentX, intentY float64
	wantAttack       bool
}

// Alive 血量大于零即存活
func (p *RuntimePlayer) Alive() bool { return p.Health > 0 }

// Enemy 对局内敌人，由波次生成器创建，血量归零在 Tick 末尾统一移除
type Enemy struct {
	ID        string
	Type      string
	X, Y      float64
	Health    float64
	MaxHealth float64
}

// Game 单个房间的权威对局状态，唯一写者是该房间的 Tick 循环
type Game struct {
	roomID int

	players map[string]*RuntimePlayer // sessionId → 状态
	enemies []*Enemy

	width, height float64
	status        string
	wave          int
	phase         string
	phaseStart    time.Time

	inputChan chan PlayerInput
	leaveChan chan string
	stopChan  chan struct{}

	rng     *rand.Rand // 出怪落点用，按对局独立持有
	metrics *GameMetrics

	reg *SessionRegistry
}

// NewGame 开局：按花名册生成对局状态，玩家沿左边缘等距出生，满血朝右
func NewGame(roomID int, roster []*Player, reg *SessionRegistry) *Game {
	now := timeNow()
	g := &Game{
		roomID:     roomID,
		players:    make(map[string]*RuntimePlayer, len(roster)),
		width:      worldWidth,
		height:     worldHeight,
		status:     GamePlaying,
		wave:       0,
		phase:      PhaseCourtyard,
		phaseStart: now,
		inputChan:  make(chan PlayerInput, 256), // 缓冲足够大，网络读不阻塞 Tick
		leaveChan:  make(chan string, 16),
		stopChan:   make(chan struct{}, 1),
		rng:        rand.New(rand.NewSource(now.UnixNano())),
		metrics:    &GameMetrics{},
		reg:        reg,
	}
	n := len(roster)
	for i, p := range roster {
		g.players[p.SessionID] = &RuntimePlayer{
			PlayerID:  p.ID,
			SessionID: p.SessionID,
			Name:      p.Name,
			Role:      p.Role,
			X:         spawnEdgeX,
			Y:         g.height * float64(i+1) / float64(n+1),
			Health:    playerMaxHealth,
			MaxHealth: playerMaxHealth,
			Facing:    "right",
		}
	}
	return g
}

// QueueInput 入站输入仅入队，等下一个 Tick 统一结算；队列满则丢弃保实时
func (g *Game) QueueInput(in PlayerInput) {
	select {
	case g.inputChan <- in:
		g.metrics.IncAccepted()
	default:
		g.metrics.IncChanFullDiscarded()
	}
}

// RequestLeave 请求在 Tick 线程中把该会话标记为死亡（保留在映射中）
func (g *Game) RequestLeave(sessionID string) {
	select {
	case g.leaveChan <- sessionID:
	default:
	}
}

// RequestStop 请求循环在下一个 Tick 自行退出（不打断正在进行的 Tick）
func (g *Game) RequestStop() {
	select {
	case g.stopChan <- struct{}{}:
	default:
	}
}

// spawnWave 在右半场随机落点生成一批同类型敌人
func (g *Game) spawnWave(enemyType string, count int) {
	st := enemyTable[enemyType]
	for i := 0; i < count; i++ {
		g.enemies = append(g.enemies, &Enemy{
			ID:        uuid.NewString(),
			Type:      enemyType,
			X:         g.width/2 + g.rng.Float64()*(g.width/2-boundMargin*2) + boundMargin,
			Y:         boundMargin + g.rng.Float64()*(g.height-boundMargin*2),
			Health:    st.MaxHealth,
			MaxHealth: st.MaxHealth,
		})
	}
}

// Snapshot 拷贝出一份只读快照供广播/序列化，不暴露内部指针
func (g *Game) Snapshot() GameStateMessage {
	now := timeNow()
	players := make([]PlayerSnapshot, 0, len(g.players))
	for _, p := range g.players {
		players = append(players, PlayerSnapshot{
			ID:          p.PlayerID,
			SessionID:   p.SessionID,
			Name:        p.Name,
			Role:        p.Role,
			Position:    Vec2{X: p.X, Y: p.Y},
			Health:      p.Health,
			MaxHealth:   p.MaxHealth,
			IsDead:      !p.Alive(),
			Facing:      p.Facing,
			IsAttacking: now.Before(p.AttackUntil),
		})
	}
	enemies := make([]EnemySnapshot, 0, len(g.enemies))
	for _, e := range g.enemies {
		enemies = append(enemies, EnemySnapshot{
			ID:        e.ID,
			Type:      e.Type,
			Position:  Vec2{X: e.X, Y: e.Y},
			Health:    e.Health,
			MaxHealth: e.MaxHealth,
		})
	}
	return GameStateMessage{
		Players:     players,
		Enemies:     enemies,
		Projectiles: []ProjectileSnapshot{}, // 协议保留：客户端按空数组处理
		Status:      g.status,
		Wave:        g.wave,
		Phase:       g.phase,
	}
}
