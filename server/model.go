package server

import "time"

// 房间生命周期状态（持久化记录）
const (
	RoomWaiting  = "waiting"
	RoomPlaying  = "playing"
	RoomFinished = "finished"
)

// Room 房间的持久化记录：短码加入、状态由大厅与对局引擎驱动
type Room struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"unique;not null" json:"code"`
	Status    string    `gorm:"not null;default:waiting" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// 职业为固定封闭集合，房间内不可重复
const (
	RoleSwordsman = "swordsman"
	RoleBeast     = "beast"
	RoleArcher    = "archer"
	RoleMage      = "mage"
	RoleHealer    = "healer"
)

// Roles 全部可选职业（顺序与客户端贴图一致）
var Roles = []string{RoleSwordsman, RoleBeast, RoleArcher, RoleMage, RoleHealer}

// ValidRole 判断是否为合法职业名
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Player 玩家的持久化记录；SessionID 用于断线重连时找回身份
// Role 为空串表示尚未选择职业
type Player struct {
	ID        int    `gorm:"primaryKey" json:"id"`
	RoomID    int    `gorm:"index;not null" json:"roomId"`
	SessionID string `gorm:"index;not null" json:"sessionId"`
	Name      string `gorm:"not null" json:"name"`
	Role      string `json:"role"`
	IsHost    bool   `gorm:"default:false" json:"isHost"`
	IsReady   bool   `gorm:"default:false" json:"isReady"`
}

// MaxPlayersPerRoom 单房间人数上限
const MaxPlayersPerRoom = 5
