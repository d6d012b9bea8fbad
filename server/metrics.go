package server

import "sync/atomic"

// GameMetrics 对局运行期关键指标（监控与调试用）
type GameMetrics struct {
	TickCount         int64 // 已推进的 Tick 数
	InputsAccepted    int64 // 入队成功的输入数
	ChanFullDiscarded int64 // 因队列满被丢弃的输入数
	EnemiesKilled     int64 // 击杀的敌人总数
	TotalTickNs       int64 // Tick 累计耗时（纳秒）
}

func (m *GameMetrics) IncAccepted()          { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *GameMetrics) IncChanFullDiscarded() { atomic.AddInt64(&m.ChanFullDiscarded, 1) }
func (m *GameMetrics) IncEnemiesKilled()     { atomic.AddInt64(&m.EnemiesKilled, 1) }

func (m *GameMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *GameMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":          tick,
		"inputs_accepted":     atomic.LoadInt64(&m.InputsAccepted),
		"chan_full_discarded": atomic.LoadInt64(&m.ChanFullDiscarded),
		"enemies_killed":      atomic.LoadInt64(&m.EnemiesKilled),
		"avg_tick_ms":         avgMs,
	}
}
