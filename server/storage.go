package server

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound 存储层统一的“记录不存在”错误
var ErrNotFound = errors.New("record not found")

// Storage 房间/玩家仓储接口：纯 CRUD，领域规则都在大厅与引擎里
type Storage interface {
	CreateRoom() (*Room, error)
	GetRoomByCode(code string) (*Room, error)
	GetRoom(id int) (*Room, error)
	UpdateRoomStatus(id int, status string) (*Room, error)

	AddPlayer(p *Player) (*Player, error)
	GetPlayersInRoom(roomID int) ([]*Player, error)
	UpdatePlayerRole(id int, role string) (*Player, error)
	UpdatePlayerReady(id int, ready bool) (*Player, error)
	UpdatePlayerHost(id int, host bool) (*Player, error)
	RemovePlayer(sessionID string) error
	GetPlayerBySessionID(sessionID string) (*Player, error)
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newRoomCode 生成 4 位可手输的短码，并保证与现有短码不冲突
func newRoomCode(exists func(string) bool) string {
	var b strings.Builder
	for {
		b.Reset()
		for i := 0; i < 4; i++ {
			b.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
		}
		if !exists(b.String()) {
			return b.String()
		}
	}
}

// MemoryStorage 进程内仓储（默认实现，未配置数据库时使用）
type MemoryStorage struct {
	mu      sync.Mutex
	roomSeq int
	playSeq int
	rooms   map[int]*Room
	players map[int]*Player
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		rooms:   make(map[int]*Room),
		players: make(map[int]*Player),
	}
}

func (s *MemoryStorage) CreateRoom() (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := newRoomCode(func(c string) bool {
		for _, r := range s.rooms {
			if r.Code == c {
				return true
			}
		}
		return false
	})
	s.roomSeq++
	room := &Room{ID: s.roomSeq, Code: code, Status: RoomWaiting, CreatedAt: timeNow()}
	s.rooms[room.ID] = room
	cp := *room
	return &cp, nil
}

func (s *MemoryStorage) GetRoomByCode(code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.Code == code {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) GetRoom(id int) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStorage) UpdateRoomStatus(id int, status string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Status = status
	cp := *r
	return &cp, nil
}

func (s *MemoryStorage) AddPlayer(p *Player) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playSeq++
	np := *p
	np.ID = s.playSeq
	s.players[np.ID] = &np
	cp := np
	return &cp, nil
}

func (s *MemoryStorage) GetPlayersInRoom(roomID int) ([]*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Player
	for _, p := range s.players {
		if p.RoomID == roomID {
			cp := *p
			out = append(out, &cp)
		}
	}
	// map 遍历无序，按加入先后（自增 ID）排序，保证房主判定与出生点稳定
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStorage) UpdatePlayerRole(id int, role string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Role = role
	cp := *p
	return &cp, nil
}

func (s *MemoryStorage) UpdatePlayerReady(id int, ready bool) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.IsReady = ready
	cp := *p
	return &cp, nil
}

func (s *MemoryStorage) UpdatePlayerHost(id int, host bool) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.IsHost = host
	cp := *p
	return &cp, nil
}

func (s *MemoryStorage) RemovePlayer(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.players {
		if p.SessionID == sessionID {
			delete(s.players, id)
			return nil
		}
	}
	return nil
}

func (s *MemoryStorage) GetPlayerBySessionID(sessionID string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.SessionID == sessionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}
