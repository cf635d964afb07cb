package settings

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store interface {
	LoadAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

type MemStore struct {
	mu   sync.Mutex
	Data map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{Data: make(map[string]string)}
}

func (s *MemStore) LoadAll(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		out[k] = v
	}
	return out, nil
}

func (s *MemStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Data[key] = value
	return nil
}

type Row struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (Row) TableName() string {
	return "jar_settings"
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Row{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) LoadAll(ctx context.Context) (map[string]string, error) {
	var rows []Row
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string) error {
	row := Row{Key: key, Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}
