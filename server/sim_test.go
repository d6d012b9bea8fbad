package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGame 直接构造对局并同步驱动 step，不启动真实循环
func newTestGame(names ...string) *Game {
	roster := make([]*Player, 0, len(names))
	for i, n := range names {
		roster = append(roster, &Player{
			ID:        i + 1,
			RoomID:    1,
			SessionID: "s-" + n,
			Name:      n,
			Role:      Roles[i],
		})
	}
	return NewGame(1, roster, NewSessionRegistry())
}

func addEnemy(g *Game, typ string, x, y float64) *Enemy {
	st := enemyTable[typ]
	e := &Enemy{ID: "e-" + typ, Type: typ, X: x, Y: y, Health: st.MaxHealth, MaxHealth: st.MaxHealth}
	g.enemies = append(g.enemies, e)
	return e
}

func TestMovementNormalizedAndClamped(t *testing.T) {
	g := newTestGame("alice")
	p := g.players["s-alice"]
	p.X, p.Y = 400, 300
	now := timeNow()

	// 超长向量与单位向量效果一致：一步只走固定步长
	g.QueueInput(PlayerInput{SessionID: "s-alice", X: 1000, Y: 0})
	g.step(now)
	assert.InDelta(t, 405, p.X, 1e-9)
	assert.InDelta(t, 300, p.Y, 1e-9)

	// 连续贴边推进不越界
	p.X = g.width - boundMargin - 2
	for i := 0; i < 10; i++ {
		g.QueueInput(PlayerInput{SessionID: "s-alice", X: 50, Y: 0})
		now = now.Add(tickInterval)
		g.step(now)
		assert.LessOrEqual(t, p.X, g.width-boundMargin)
		assert.GreaterOrEqual(t, p.X, boundMargin)
	}
	assert.Equal(t, g.width-boundMargin, p.X)
}

func TestFacingFollowsHorizontalSign(t *testing.T) {
	g := newTestGame("alice")
	p := g.players["s-alice"]
	p.X, p.Y = 400, 300
	now := timeNow()

	g.QueueInput(PlayerInput{SessionID: "s-alice", X: -1, Y: 0})
	g.step(now)
	assert.Equal(t, "left", p.Facing)

	// 纯竖直移动不改变朝向
	g.QueueInput(PlayerInput{SessionID: "s-alice", X: 0, Y: 1})
	g.step(now.Add(tickInterval))
	assert.Equal(t, "left", p.Facing)

	g.QueueInput(PlayerInput{SessionID: "s-alice", X: 1, Y: 1})
	g.step(now.Add(2 * tickInterval))
	assert.Equal(t, "right", p.Facing)
}

func TestAttackCooldownWindow(t *testing.T) {
	g := newTestGame("alice")
	g.phase = PhaseDungeon
	g.wave = 1
	p := g.players["s-alice"]
	p.X, p.Y = 400, 300
	e := addEnemy(g, EnemyGoblin, 420, 300) // 近战半径内

	t0 := timeNow()
	g.QueueInput(PlayerInput{SessionID: "s-alice", Attack: true})
	g.step(t0)
	assert.InDelta(t, 30, e.Health, 1e-9, "first attack lands")

	// 冷却窗口内每 Tick 连续按攻击都不再生效
	for i := 1; i <= 3; i++ {
		g.QueueInput(PlayerInput{SessionID: "s-alice", Attack: true})
		g.step(t0.Add(time.Duration(i) * 50 * time.Millisecond))
	}
	assert.InDelta(t, 30, e.Health, 1e-9, "attacks during cooldown ignored")

	// 窗口过后再次生效
	g.QueueInput(PlayerInput{SessionID: "s-alice", Attack: true})
	g.step(t0.Add(attackWindow))
	assert.InDelta(t, 10, e.Health, 1e-9)
}

func TestMeleeOutOfRangeMisses(t *testing.T) {
	g := newTestGame("alice")
	g.phase = PhaseDungeon
	g.wave = 1
	p := g.players["s-alice"]
	p.X, p.Y = 100, 100
	e := addEnemy(g, EnemyGoblin, 400, 400)

	g.QueueInput(PlayerInput{SessionID: "s-alice", Attack: true})
	g.step(timeNow())
	assert.Equal(t, e.MaxHealth, e.Health)
}

func TestBossTakesReducedMeleeDamage(t *testing.T) {
	g := newTestGame("alice")
	g.phase = PhaseBoss
	g.wave = BossWaveSentinel
	p := g.players["s-alice"]
	p.X, p.Y = 400, 300
	e := addEnemy(g, EnemyBoss, 430, 300)

	g.QueueInput(PlayerInput{SessionID: "s-alice", Attack: true})
	g.step(timeNow())
	assert.InDelta(t, e.MaxHealth-bossMeleeDamage, e.Health, 1e-9)
}

func TestEnemyRemovedExactlyAtZeroHealth(t *testing.T) {
	g := newTestGame("alice")
	g.phase = PhaseDungeon
	g.wave = 1
	p := g.players["s-alice"]
	p.X, p.Y = 400, 300
	e := addEnemy(g, EnemyGoblin, 420, 300)
	e.Health = 25
	e.MaxHealth = 50

	g.QueueInput(PlayerInput{SessionID: "s-alice", Attack: true})
	g.step(timeNow())
	// 伤害后血量 5 > 0，本 Tick 末尾不移除
	require.Len(t, g.enemies, 1)
	assert.InDelta(t, 5, g.enemies[0].Health, 1e-9)

	g.QueueInput(PlayerInput{SessionID: "s-alice", Attack: true})
	g.step(timeNow().Add(attackWindow))
	assert.Empty(t, g.enemies, "removed at end of the tick health reached <= 0")
}

func TestEnemyChasesNearestLivingPlayer(t *testing.T) {
	g := newTestGame("alice", "bob")
	g.phase = PhaseDungeon
	g.wave = 1
	near := g.players["s-alice"]
	far := g.players["s-bob"]
	near.X, near.Y = 300, 300
	far.X, far.Y = 100, 100
	e := addEnemy(g, EnemyGoblin, 400, 300)

	g.step(timeNow())
	assert.InDelta(t, 398, e.X, 1e-9, "moved toward nearest player at goblin speed")
	assert.InDelta(t, 300, e.Y, 1e-9)

	// 最近的玩家阵亡后改追另一名存活玩家
	near.Health = 0
	before := dist(e.X, e.Y, far.X, far.Y)
	g.step(timeNow().Add(tickInterval))
	assert.Less(t, dist(e.X, e.Y, far.X, far.Y), before)
}

func TestEnemyIdleWithoutLivingTargets(t *testing.T) {
	g := newTestGame("alice")
	g.phase = PhaseDungeon
	g.wave = 1
	g.players["s-alice"].Health = 0
	e := addEnemy(g, EnemyGoblin, 400, 300)

	g.step(timeNow())
	// 判负会停循环，但本 Tick 内敌人不应移动
	assert.Equal(t, 400.0, e.X)
	assert.Equal(t, 300.0, e.Y)
}

func TestContactDamageAndLoss(t *testing.T) {
	g := newTestGame("alice")
	g.phase = PhaseDungeon
	g.wave = 1
	p := g.players["s-alice"]
	p.X, p.Y = 400, 300
	p.Health = 0.4
	addEnemy(g, EnemyGoblin, 405, 300) // 贴身范围内

	g.step(timeNow())
	assert.Equal(t, 0.0, p.Health, "health clamped to exactly zero")
	assert.Equal(t, GameLost, g.status, "lost on the tick alive count reaches zero")

	// 判负后阶段不再推进
	phase := g.phase
	g.step(timeNow().Add(tickInterval))
	assert.Equal(t, phase, g.phase)
	assert.Equal(t, GameLost, g.status)
}

func TestPhaseSequenceDoorPath(t *testing.T) {
	g := newTestGame("alice")
	p := g.players["s-alice"]
	now := timeNow()
	g.phaseStart = now

	// 远离门且未超时：停留庭院，不出怪
	p.X, p.Y = 100, 300
	g.step(now)
	assert.Equal(t, PhaseCourtyard, g.phase)
	assert.Equal(t, 0, g.wave)
	assert.Empty(t, g.enemies)

	// 走到门口触发进地牢，第一波弱怪
	p.X, p.Y = g.width-110, g.height/2
	g.step(now.Add(tickInterval))
	assert.Equal(t, PhaseDungeon, g.phase)
	assert.Equal(t, 1, g.wave)
	require.Len(t, g.enemies, wave1GoblinCount)
	for _, e := range g.enemies {
		assert.Equal(t, EnemyGoblin, e.Type)
	}

	// 清掉第一波 → 第二波更强更少
	for _, e := range g.enemies {
		e.Health = 0
	}
	g.step(now.Add(2 * tickInterval)) // 本 Tick 末尾移除
	g.step(now.Add(3 * tickInterval)) // 下一 Tick 生成第二波
	assert.Equal(t, PhaseDungeon, g.phase)
	assert.Equal(t, 2, g.wave)
	require.Len(t, g.enemies, wave2OrcCount)
	for _, e := range g.enemies {
		assert.Equal(t, EnemyOrc, e.Type)
	}

	// 清掉第二波 → Boss 阶段（波次为哨兵值，单个 Boss）
	for _, e := range g.enemies {
		e.Health = 0
	}
	g.step(now.Add(4 * tickInterval))
	g.step(now.Add(5 * tickInterval))
	assert.Equal(t, PhaseBoss, g.phase)
	assert.Equal(t, BossWaveSentinel, g.wave)
	require.Len(t, g.enemies, 1)
	assert.Equal(t, EnemyBoss, g.enemies[0].Type)

	// Boss 倒下 → 通关判胜
	g.enemies[0].Health = 0
	g.step(now.Add(6 * tickInterval))
	g.step(now.Add(7 * tickInterval))
	assert.Empty(t, g.enemies)
	assert.Equal(t, PhaseCleared, g.phase)
	assert.Equal(t, GameWon, g.status)
}

func TestCourtyardTimeoutForcesDungeon(t *testing.T) {
	g := newTestGame("alice")
	g.players["s-alice"].X = 100 // 远离门
	now := timeNow()
	g.phaseStart = now.Add(-tuning.Snapshot().CourtyardTimeout)

	g.step(now)
	assert.Equal(t, PhaseDungeon, g.phase)
	assert.Equal(t, 1, g.wave)
}

func TestBossDefeatByRepeatedMelee(t *testing.T) {
	g := newTestGame("alice")
	g.phase = PhaseBoss
	g.wave = BossWaveSentinel
	p := g.players["s-alice"]
	p.X, p.Y = 400, 300
	boss := addEnemy(g, EnemyBoss, 420, 300)
	boss.Health = bossMeleeDamage * 3 // 三刀的量

	now := timeNow()
	for i := 0; g.status == GamePlaying && i < 10; i++ {
		g.QueueInput(PlayerInput{SessionID: "s-alice", Attack: true})
		g.step(now.Add(time.Duration(i) * attackWindow))
		// Boss 贴身掉血，必要时把玩家回满，专注验证胜利路径
		p.Health = playerMaxHealth
	}
	assert.Empty(t, g.enemies)
	assert.Equal(t, PhaseCleared, g.phase)
	assert.Equal(t, GameWon, g.status)
}

func TestDisconnectedPlayerStaysAsDeadEntry(t *testing.T) {
	g := newTestGame("alice", "bob")
	g.phase = PhaseDungeon
	g.wave = 1
	addEnemy(g, EnemyGoblin, 700, 500)

	g.RequestLeave("s-alice")
	g.step(timeNow())

	require.Len(t, g.players, 2, "runtime entry never removed mid-round")
	assert.Equal(t, 0.0, g.players["s-alice"].Health)
	assert.Equal(t, GamePlaying, g.status, "one player still alive")
}

func TestUnknownSessionInputIsNoop(t *testing.T) {
	g := newTestGame("alice")
	p := g.players["s-alice"]
	x, y := p.X, p.Y

	g.QueueInput(PlayerInput{SessionID: "ghost", X: 1, Y: 1, Attack: true})
	g.step(timeNow())

	assert.Equal(t, x, p.X)
	assert.Equal(t, y, p.Y)
	assert.Equal(t, GamePlaying, g.status)
}

func TestDeadPlayerInputIgnored(t *testing.T) {
	g := newTestGame("alice", "bob")
	dead := g.players["s-alice"]
	dead.Health = 0
	x := dead.X

	g.QueueInput(PlayerInput{SessionID: "s-alice", X: 1, Y: 0, Attack: true})
	g.step(timeNow())
	assert.Equal(t, x, dead.X)
	assert.True(t, dead.AttackUntil.IsZero())
}

func TestSnapshotShape(t *testing.T) {
	g := newTestGame("alice")
	g.phase = PhaseDungeon
	g.wave = 1
	addEnemy(g, EnemyOrc, 500, 200)

	snap := g.Snapshot()
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "alice", snap.Players[0].Name)
	assert.False(t, snap.Players[0].IsDead)
	require.Len(t, snap.Enemies, 1)
	assert.Equal(t, EnemyOrc, snap.Enemies[0].Type)
	assert.NotNil(t, snap.Projectiles, "projectiles serialized as empty array, not null")
	assert.Empty(t, snap.Projectiles)
	assert.Equal(t, PhaseDungeon, snap.Phase)
	assert.Equal(t, 1, snap.Wave)
}
