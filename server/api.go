package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// 薄 REST 层：建房、HTTP 入房与房间查询（客户端进大厅前的引导接口）

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// HandleCreateRoom POST /api/rooms → 201 {code, roomId}
func (a *App) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	room, err := a.Store.CreateRoom()
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	Log.Infof("room created: code=%s id=%d", room.Code, room.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"code": room.Code, "roomId": room.ID})
}

// HandleJoinRoom POST /api/rooms/join {code,name} → {roomId, sessionId, playerId}
// 房间不存在 404；对局已开始或满员 400
func (a *App) HandleJoinRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" || len(body.Name) > 12 {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}
	room, err := a.Store.GetRoomByCode(body.Code)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Room not found")
		return
	}
	if room.Status != RoomWaiting {
		writeMessage(w, http.StatusBadRequest, "Game already in progress")
		return
	}
	existing, err := a.Store.GetPlayersInRoom(room.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "storage error")
		return
	}
	if len(existing) >= MaxPlayersPerRoom {
		writeMessage(w, http.StatusBadRequest, "Room is full")
		return
	}
	sid := uuid.NewString()
	player, err := a.Store.AddPlayer(&Player{
		RoomID:    room.ID,
		SessionID: sid,
		Name:      body.Name,
		IsHost:    len(existing) == 0,
	})
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"roomId":    room.ID,
		"sessionId": sid,
		"playerId":  player.ID,
	})
}

// HandleGetRoom GET /api/rooms/{code} → 房间记录或 404
func (a *App) HandleGetRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	code := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	if code == "" || strings.Contains(code, "/") {
		writeMessage(w, http.StatusNotFound, "Room not found")
		return
	}
	room, err := a.Store.GetRoomByCode(code)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Room not found")
		return
	}
	writeJSON(w, http.StatusOK, room)
}
