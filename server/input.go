package server

// PlayerInput 客户端输入（意图）：移动向量（无需预归一化）+ 是否攻击
// 由服务端在 Tick 中权威解释，位置与伤害只在 Tick 线程里变化
type PlayerInput struct {
	SessionID string
	X, Y      float64
	Attack    bool
}
