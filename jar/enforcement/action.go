package enforcement

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	KindMute = "mute"

	// Mute issued when warnings reach the threshold.
	WarningMuteDuration = 10 * time.Minute
	// Mute issued by a Mute Token.
	TokenMuteDuration = 5 * time.Minute
)

// An active timed restriction. At most one exists per user.
type PunitiveAction struct {
	UserID    string `gorm:"primaryKey"`
	GuildID   string `gorm:"not null"`
	Kind      string `gorm:"not null"`
	Reason    string
	IssuedAt  time.Time
	ExpiresAt time.Time `gorm:"index"`
}

func (PunitiveAction) TableName() string {
	return "jar_punitive_actions"
}

// Persistence for active actions, so that a restart re-arms reversals instead of stranding muted users.
type Store interface {
	// Inserts or replaces the action for the user.
	Put(ctx context.Context, a *PunitiveAction) error
	Delete(ctx context.Context, userID string) error
	List(ctx context.Context) ([]PunitiveAction, error)
}

type MemStore struct {
	mu      sync.Mutex
	actions map[string]PunitiveAction
}

func NewMemStore() *MemStore {
	return &MemStore{actions: make(map[string]PunitiveAction)}
}

func (s *MemStore) Put(ctx context.Context, a *PunitiveAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[a.UserID] = *a
	return nil
}

func (s *MemStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.actions, userID)
	return nil
}

func (s *MemStore) List(ctx context.Context) ([]PunitiveAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PunitiveAction, 0, len(s.actions))
	for _, a := range s.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&PunitiveAction{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Put(ctx context.Context, a *PunitiveAction) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"guild_id", "kind", "reason", "issued_at", "expires_at"}),
	}).Create(a).Error
}

func (s *GormStore) Delete(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&PunitiveAction{}).Error
}

func (s *GormStore) List(ctx context.Context) ([]PunitiveAction, error) {
	var out []PunitiveAction
	if err := s.db.WithContext(ctx).Order("expires_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
