package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// TuningSnapshot 一次 Tick 内使用的整套玩法参数（帧内一致）
type TuningSnapshot struct {
	PlayerSpeed      float64       // 玩家每 Tick 步长
	MeleeRange       float64       // 近战判定半径
	MeleeDamage      float64       // 近战单次伤害（Boss 另有削减值）
	DoorRadius       float64       // 地牢门触发半径
	CourtyardTimeout time.Duration // 庭院滞留上限，超时强制进地牢
}

var defaultTuning = TuningSnapshot{
	PlayerSpeed:      5,
	MeleeRange:       60,
	MeleeDamage:      20,
	DoorRadius:       70,
	CourtyardTimeout: 60 * time.Second,
}

// Tuning 可热更的玩法参数；Tick 循环每帧只读一份快照，更新不与结算竞态
type Tuning struct {
	mu  sync.RWMutex
	cur TuningSnapshot
}

func (t *Tuning) Snapshot() TuningSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cur
}

func (t *Tuning) Update(fn func(*TuningSnapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.cur)
}

var tuning = &Tuning{cur: defaultTuning}

// HandleAdminConfig 玩法参数的读取与热更新
// GET /admin/config 返回当前参数
// POST /admin/config 以 JSON 载荷更新部分字段
func (a *App) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	type cfg struct {
		PlayerSpeed         *float64 `json:"playerSpeed,omitempty"`
		MeleeRange          *float64 `json:"meleeRange,omitempty"`
		MeleeDamage         *float64 `json:"meleeDamage,omitempty"`
		DoorRadius          *float64 `json:"doorRadius,omitempty"`
		CourtyardTimeoutSec *int     `json:"courtyardTimeoutSec,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		cur := tuning.Snapshot()
		sec := int(cur.CourtyardTimeout / time.Second)
		out := cfg{
			PlayerSpeed:         &cur.PlayerSpeed,
			MeleeRange:          &cur.MeleeRange,
			MeleeDamage:         &cur.MeleeDamage,
			DoorRadius:          &cur.DoorRadius,
			CourtyardTimeoutSec: &sec,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		tuning.Update(func(t *TuningSnapshot) {
			if body.PlayerSpeed != nil {
				t.PlayerSpeed = *body.PlayerSpeed
			}
			if body.MeleeRange != nil {
				t.MeleeRange = *body.MeleeRange
			}
			if body.MeleeDamage != nil {
				t.MeleeDamage = *body.MeleeDamage
			}
			if body.DoorRadius != nil {
				t.DoorRadius = *body.DoorRadius
			}
			if body.CourtyardTimeoutSec != nil {
				t.CourtyardTimeout = time.Duration(*body.CourtyardTimeoutSec) * time.Second
			}
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		cur := tuning.Snapshot()
		Log.Infof("tuning updated: speed=%.1f melee=[%.0f,%.0f] door=%.0f courtyard=%s",
			cur.PlayerSpeed, cur.MeleeRange, cur.MeleeDamage, cur.DoorRadius, cur.CourtyardTimeout)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出指定房间对局的运行指标
// GET /metrics?room=CODE
func (a *App) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("room")
	room, err := a.Store.GetRoomByCode(code)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	g := a.Games.Get(room.ID)
	if g == nil {
		http.Error(w, "no active game", http.StatusNotFound)
		return
	}
	// 对局内部状态只归 Tick 循环，这里仅输出原子计数器与房间记录状态
	payload := map[string]any{
		"room":    code,
		"status":  room.Status,
		"metrics": g.metrics.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
