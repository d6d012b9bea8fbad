package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
// 关闭与入队用锁互斥：Tick 广播协程可能与断开路径并发触碰同一连接
type ClientConn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃；已关闭则直接丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		// 为了实时性，丢弃该帧；下一 Tick 还有全量快照，慢客户端不拖累别人
	}
}

// SendError 仅发给当前连接的错误提示（校验失败等，不广播）
func (c *ClientConn) SendError(message string) {
	c.Enqueue(encodeError(message))
}

// Close 关闭发送队列（结束写协程）与底层连接；幂等，可重复调用
func (c *ClientConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	if c.ws != nil {
		_ = c.ws.Close()
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *ClientConn) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：连接建立后由 join 消息完成房间绑定
func (a *App) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}
	client := NewClientConn(ws)
	go client.writePump()
	go a.readPump(client)
}

// readPump 读取并分发客户端消息；解析失败只丢弃该帧，连接保持
func (a *App) readPump(c *ClientConn) {
	defer c.ws.Close()
	defer a.Lobby.Disconnect(c)
	c.ws.SetReadLimit(1 << 20) // 1MB
	c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error { c.ws.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	// 连接当前归属；join 成功后填充，后续消息直接使用（注册表另存一份供广播）
	var roomID int
	var sessionID string

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			Log.Debugf("malformed frame dropped: %v", err)
			continue
		}

		if msg.Type == "join" {
			var p joinPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				Log.Debugf("malformed join dropped: %v", err)
				continue
			}
			rid, sid, jerr := a.Lobby.Join(c, p.Code, p.Name, p.SessionID)
			if jerr != nil {
				c.SendError(jerr.Error())
				continue
			}
			roomID, sessionID = rid, sid
			continue
		}
		if sessionID == "" {
			continue // 尚未入房的连接只认 join
		}

		switch msg.Type {
		case "select_role":
			var p selectRolePayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				continue
			}
			if err := a.Lobby.SelectRole(roomID, sessionID, p.Role); err != nil {
				c.SendError(err.Error())
			}
		case "ready":
			var p readyPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				continue
			}
			if err := a.Lobby.SetReady(roomID, sessionID, p.IsReady); err != nil {
				c.SendError(err.Error())
			}
		case "start_game":
			if err := a.Lobby.StartGame(roomID, sessionID); err != nil {
				c.SendError(err.Error())
			}
		case "input":
			var p inputPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				continue
			}
			// 对局输入只入队，等该房间的 Tick 统一结算
			if g := a.Games.Get(roomID); g != nil {
				g.QueueInput(PlayerInput{SessionID: sessionID, X: p.X, Y: p.Y, Attack: p.Attack})
			}
		default:
			Log.Debugf("unknown message type dropped: %s", msg.Type)
		}
	}
}
