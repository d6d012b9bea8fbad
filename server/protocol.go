package server

import "encoding/json"

// 入站消息：统一信封，payload 按 type 再解
// 示例：{"type":"input","payload":{"x":1,"y":0,"attack":false}}
type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	SessionID string `json:"sessionId,omitempty"`
}

type selectRolePayload struct {
	Role string `json:"role"`
}

type readyPayload struct {
	IsReady bool `json:"isReady"`
}

type inputPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Attack bool    `json:"attack"`
}

// Vec2 二维坐标（出站快照用）
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlayerSnapshot 出站玩家状态（每 Tick 全量广播）
type PlayerSnapshot struct {
	ID          int     `json:"id"`
	SessionID   string  `json:"sessionId"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	Position    Vec2    `json:"position"`
	Health      float64 `json:"health"`
	MaxHealth   float64 `json:"maxHealth"`
	IsDead      bool    `json:"isDead"`
	Facing      string  `json:"facing"`
	IsAttacking bool    `json:"isAttacking"`
}

// EnemySnapshot 出站敌人状态
type EnemySnapshot struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Position  Vec2    `json:"position"`
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth"`
}

// ProjectileSnapshot 投射物（协议保留字段，当前版本不产生投射物）
type ProjectileSnapshot struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Position Vec2   `json:"position"`
}

// GameStateMessage game_state 消息载荷
type GameStateMessage struct {
	Players     []PlayerSnapshot     `json:"players"`
	Enemies     []EnemySnapshot      `json:"enemies"`
	Projectiles []ProjectileSnapshot `json:"projectiles"`
	Status      string               `json:"status"`
	Wave        int                  `json:"wave"`
	Phase       string               `json:"phase"`
}

// RoomUpdateMessage room_update 消息载荷（大厅花名册）
type RoomUpdateMessage struct {
	Players []*Player `json:"players"`
	Room    *Room     `json:"room"`
}

// serverMessage 出站信封
type serverMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func encodeMessage(typ string, payload interface{}) []byte {
	b, err := json.Marshal(serverMessage{Type: typ, Payload: payload})
	if err != nil {
		Log.Errorf("encode %s message: %v", typ, err)
		return nil
	}
	return b
}

func encodeError(message string) []byte {
	return encodeMessage("error", map[string]string{"message": message})
}
