package server

import (
	"errors"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// DBStorage 基于 GORM/MySQL 的仓储实现；通过 MYSQL_DSN 环境变量启用
type DBStorage struct {
	db *gorm.DB
}

// NewStorageFromEnv 根据环境选择仓储：配置了 MYSQL_DSN 用数据库，否则用内存
func NewStorageFromEnv() (Storage, error) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		Log.Info("MYSQL_DSN not set, using in-memory storage")
		return NewMemoryStorage(), nil
	}
	return NewDBStorage(dsn)
}

func NewDBStorage(dsn string) (*DBStorage, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	if err := db.AutoMigrate(&Room{}, &Player{}); err != nil {
		return nil, err
	}
	Log.Info("MySQL storage connected")
	return &DBStorage{db: db}, nil
}

func (s *DBStorage) CreateRoom() (*Room, error) {
	code := newRoomCode(func(c string) bool {
		var n int64
		s.db.Model(&Room{}).Where("code = ?", c).Count(&n)
		return n > 0
	})
	room := &Room{Code: code, Status: RoomWaiting, CreatedAt: timeNow()}
	if err := s.db.Create(room).Error; err != nil {
		return nil, err
	}
	return room, nil
}

func (s *DBStorage) GetRoomByCode(code string) (*Room, error) {
	var room Room
	err := s.db.Where("code = ?", code).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *DBStorage) GetRoom(id int) (*Room, error) {
	var room Room
	err := s.db.First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *DBStorage) UpdateRoomStatus(id int, status string) (*Room, error) {
	if err := s.db.Model(&Room{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return nil, err
	}
	return s.GetRoom(id)
}

func (s *DBStorage) AddPlayer(p *Player) (*Player, error) {
	np := *p
	np.ID = 0
	if err := s.db.Create(&np).Error; err != nil {
		return nil, err
	}
	return &np, nil
}

func (s *DBStorage) GetPlayersInRoom(roomID int) ([]*Player, error) {
	var out []*Player
	if err := s.db.Where("room_id = ?", roomID).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DBStorage) UpdatePlayerRole(id int, role string) (*Player, error) {
	if err := s.db.Model(&Player{}).Where("id = ?", id).Update("role", role).Error; err != nil {
		return nil, err
	}
	return s.getPlayer(id)
}

func (s *DBStorage) UpdatePlayerReady(id int, ready bool) (*Player, error) {
	if err := s.db.Model(&Player{}).Where("id = ?", id).Update("is_ready", ready).Error; err != nil {
		return nil, err
	}
	return s.getPlayer(id)
}

func (s *DBStorage) UpdatePlayerHost(id int, host bool) (*Player, error) {
	if err := s.db.Model(&Player{}).Where("id = ?", id).Update("is_host", host).Error; err != nil {
		return nil, err
	}
	return s.getPlayer(id)
}

func (s *DBStorage) RemovePlayer(sessionID string) error {
	return s.db.Where("session_id = ?", sessionID).Delete(&Player{}).Error
}

func (s *DBStorage) GetPlayerBySessionID(sessionID string) (*Player, error) {
	var p Player
	err := s.db.Where("session_id = ?", sessionID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *DBStorage) getPlayer(id int) (*Player, error) {
	var p Player
	err := s.db.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
