package server

import (
	"math"
	"time"
)

const (
	// TicksPerSecond 世界推进频率（20 TPS）
	TicksPerSecond = 20

	// 地牢波次规模：第一波弱怪多，第二波强怪少
	wave1GoblinCount = 6
	wave2OrcCount    = 3
)

var tickInterval = time.Duration(1000/TicksPerSecond) * time.Millisecond // 50ms

// run 对局主循环：固定节拍推进世界，状态离开 playing 后自行终止
// 外部停止请求（房间清空）也走同一条退出路径，避免广播与销毁竞态
func (g *Game) run(onExit func()) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	defer onExit()
	for range ticker.C {
		select {
		case <-g.stopChan:
			Log.Infof("game loop stopped on request: room=%d", g.roomID)
			return
		default:
		}
		// 核心循环：结算输入 → 推进世界 → 广播快照
		start := timeNow()
		g.step(start)
		g.metrics.AddTick(time.Since(start).Nanoseconds())
		if g.status != GamePlaying {
			Log.Infof("game over: room=%d status=%s wave=%d phase=%s", g.roomID, g.status, g.wave, g.phase)
			return
		}
	}
}

// step 单个 Tick 的全部结算，唯一的状态写入口
func (g *Game) step(now time.Time) {
	cfg := tuning.Snapshot() // 一个 Tick 只读一份配置，杜绝帧内参数混用

	g.drainControl()
	g.drainInputs()
	g.advancePhase(now, cfg)
	g.runEnemyAI()
	g.resolvePlayers(now, cfg)
	g.removeDeadEnemies() // 统一在 Tick 末尾移除，帧内结算与顺序无关
	g.resolveOutcome()
	g.broadcastState()
}

// drainControl 处理离开请求：中途掉线的玩家血量清零但保留在映射中，
// 否则波次完成与败北判定的人数口径会被破坏
func (g *Game) drainControl() {
	for {
		select {
		case sid := <-g.leaveChan:
			if p, ok := g.players[sid]; ok {
				p.Health = 0
			}
		default:
			return
		}
	}
}

// drainInputs 非阻塞取空输入队列；同帧内同一玩家以最新移动意图为准，
// 攻击意图一旦出现即保留。未知会话的输入按无操作吞掉，循环绝不因此中断
func (g *Game) drainInputs() {
	for {
		select {
		case in := <-g.inputChan:
			p, ok := g.players[in.SessionID]
			if !ok || !p.Alive() {
				continue
			}
			p.intentX, p.intentY = in.X, in.Y
			if in.Attack {
				p.wantAttack = true
			}
		default:
			return
		}
	}
}

// advancePhase 阶段状态机：庭院 → 地牢（两波）→ Boss → 通关，严格单向
func (g *Game) advancePhase(now time.Time, cfg TuningSnapshot) {
	switch g.phase {
	case PhaseCourtyard:
		// 任一存活玩家靠近地牢门，或庭院超时强制推进
		if g.anyAliveNearDoor(cfg.DoorRadius) || now.Sub(g.phaseStart) >= cfg.CourtyardTimeout {
			g.phase = PhaseDungeon
			g.wave = 1
			g.phaseStart = now
			g.spawnWave(EnemyGoblin, wave1GoblinCount)
			Log.Infof("phase -> dungeon: room=%d wave=1", g.roomID)
		}
	case PhaseDungeon:
		if len(g.enemies) == 0 {
			if g.wave == 1 {
				g.wave = 2
				g.spawnWave(EnemyOrc, wave2OrcCount)
				Log.Infof("wave -> 2: room=%d", g.roomID)
			} else {
				g.phase = PhaseBoss
				g.wave = BossWaveSentinel
				g.phaseStart = now
				g.spawnWave(EnemyBoss, 1)
				Log.Infof("phase -> boss: room=%d", g.roomID)
			}
		}
	case PhaseBoss:
		if len(g.enemies) == 0 {
			g.phase = PhaseCleared
			g.status = GameWon
			Log.Infof("phase -> cleared: room=%d", g.roomID)
		}
	}
}

func (g *Game) anyAliveNearDoor(radius float64) bool {
	doorX, doorY := g.width-110, g.height/2
	for _, p := range g.players {
		if p.Alive() && dist(p.X, p.Y, doorX, doorY) <= radius {
			return true
		}
	}
	return false
}

// runEnemyAI 每个敌人追击最近的存活玩家；无人存活则原地不动
func (g *Game) runEnemyAI() {
	for _, e := range g.enemies {
		var target *RuntimePlayer
		nearest := math.Inf(1)
		for _, p := range g.players {
			if !p.Alive() {
				continue
			}
			if d := dist(p.X, p.Y, e.X, e.Y); d < nearest {
				nearest = d
				target = p
			}
		}
		if target == nil {
			continue
		}
		st := enemyTable[e.Type]
		dx, dy := target.X-e.X, target.Y-e.Y
		if l := math.Hypot(dx, dy); l > 0 {
			e.X += dx / l * st.Speed
			e.Y += dy / l * st.Speed
		}
		// 贴身持续伤害（按类型缩放），死亡裁定留给结算阶段
		if nearest < contactRadius {
			target.Health -= st.ContactDamage
		}
	}
}

// resolvePlayers 结算玩家移动与攻击意图；死亡玩家的输入全部忽略
func (g *Game) resolvePlayers(now time.Time, cfg TuningSnapshot) {
	for _, p := range g.players {
		ix, iy, attack := p.intentX, p.intentY, p.wantAttack
		p.intentX, p.intentY, p.wantAttack = 0, 0, false
		if !p.Alive() {
			continue
		}
		if ix != 0 || iy != 0 {
			// 归一化后按固定步长推进：客户端给多大的向量都跑不出一个身位
			l := math.Hypot(ix, iy)
			ix, iy = ix/l, iy/l
			p.X = clamp(p.X+ix*cfg.PlayerSpeed, boundMargin, g.width-boundMargin)
			p.Y = clamp(p.Y+iy*cfg.PlayerSpeed, boundMargin, g.height-boundMargin)
			if ix > 0 {
				p.Facing = "right"
			} else if ix < 0 {
				p.Facing = "left"
			}
			// 纯竖直移动不改朝向
		}
		if attack && !now.Before(p.AttackUntil) {
			p.AttackUntil = now.Add(attackWindow)
			for _, e := range g.enemies {
				if dist(p.X, p.Y, e.X, e.Y) < cfg.MeleeRange {
					dmg := cfg.MeleeDamage
					if e.Type == EnemyBoss {
						dmg = bossMeleeDamage
					}
					e.Health -= dmg
				}
			}
		}
	}
}

// removeDeadEnemies 血量归零的敌人统一出场，并计入击杀指标
func (g *Game) removeDeadEnemies() {
	alive := g.enemies[:0]
	for _, e := range g.enemies {
		if e.Health > 0 {
			alive = append(alive, e)
		} else {
			g.metrics.IncEnemiesKilled()
		}
	}
	g.enemies = alive
}

// resolveOutcome 血量钳到零；全员倒下（且至少有一人）判负
func (g *Game) resolveOutcome() {
	aliveCount := 0
	for _, p := range g.players {
		if p.Health <= 0 {
			p.Health = 0
		} else {
			aliveCount++
		}
	}
	if aliveCount == 0 && len(g.players) > 0 && g.status == GamePlaying {
		g.status = GameLost
	}
}

func dist(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
