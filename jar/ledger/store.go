package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Persistence for user records. Save must write the record, its full inventory, and any new purchase records as one unit.
type Store interface {
	// Returns (nil, nil) when the user has no record.
	Load(ctx context.Context, userID string) (*UserRecord, error)
	Save(ctx context.Context, rec *UserRecord, purchases []PurchaseRecord) error
	Top(ctx context.Context, by Ranking, limit int) ([]UserRecord, error)
	Purchases(ctx context.Context, userID string) ([]PurchaseRecord, error)
}

var ErrSimulatedFailure = errors.New("simulated store failure")

type MemStore struct {
	mu        sync.Mutex
	users     map[string]*UserRecord
	purchases []PurchaseRecord
	nextID    uint

	// when positive, the next N Save calls fail; used to exercise retries in tests
	FailSaves int
}

func NewMemStore() *MemStore {
	return &MemStore{
		users: make(map[string]*UserRecord),
	}
}

func (s *MemStore) Load(ctx context.Context, userID string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

func (s *MemStore) Save(ctx context.Context, rec *UserRecord, purchases []PurchaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves > 0 {
		s.FailSaves--
		return ErrSimulatedFailure
	}
	s.users[rec.UserID] = rec.Clone()
	for _, p := range purchases {
		s.nextID++
		p.ID = s.nextID
		s.purchases = append(s.purchases, p)
	}
	return nil
}

func (s *MemStore) Top(ctx context.Context, by Ranking, limit int) ([]UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]UserRecord, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, *rec.Clone())
	}
	var less func(a, b UserRecord) bool
	switch by {
	case RankCoins:
		less = func(a, b UserRecord) bool { return a.Coins > b.Coins }
	case RankSwearCount:
		less = func(a, b UserRecord) bool { return a.SwearCount > b.SwearCount }
	default:
		return nil, fmt.Errorf("unknown ranking: %s", by)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) Purchases(ctx context.Context, userID string) ([]PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []PurchaseRecord
	for _, p := range s.purchases {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}
