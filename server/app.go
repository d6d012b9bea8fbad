package server

import "net/http"

// App 组装整套服务：仓储、会话注册表、对局监督者与大厅
type App struct {
	Store Storage
	Reg   *SessionRegistry
	Games *GameManager
	Lobby *Lobby
}

func NewApp(store Storage) *App {
	reg := NewSessionRegistry()
	games := NewGameManager(store)
	return &App{
		Store: store,
		Reg:   reg,
		Games: games,
		Lobby: NewLobby(store, reg, games),
	}
}

// Routes 注册全部 HTTP 入口
func (a *App) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", a.HandleWS)
	mux.HandleFunc("/api/rooms", a.HandleCreateRoom)
	mux.HandleFunc("/api/rooms/join", a.HandleJoinRoom)
	mux.HandleFunc("/api/rooms/", a.HandleGetRoom) // GET /api/rooms/{code}
	mux.HandleFunc("/admin/config", a.HandleAdminConfig)
	mux.HandleFunc("/metrics", a.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}
