package lexicon

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
)

// Persistent backing for the lexicons. Implementations do not merge defaults; that happens when a Snapshot is built.
type Store interface {
	LoadAll(ctx context.Context) (*Contents, error)
	AddWord(ctx context.Context, list, word string) error
	// Returns false if the word was not in the list
	RemoveWord(ctx context.Context, list, word string) (bool, error)
	SetPositive(ctx context.Context, word string, reward int) error
	RemovePositive(ctx context.Context, word string) (bool, error)
}

type MemStore struct {
	mu       sync.Mutex
	Words    map[string]map[string]bool
	Positive map[string]int
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		Words:    make(map[string]map[string]bool),
		Positive: make(map[string]int),
	}
}

func (s *MemStore) LoadAll(ctx context.Context) (*Contents, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Contents{
		Words:    make(map[string][]string, len(s.Words)),
		Positive: make(map[string]int, len(s.Positive)),
	}
	for list, set := range s.Words {
		for w := range set {
			out.Words[list] = append(out.Words[list], w)
		}
	}
	for w, r := range s.Positive {
		out.Positive[w] = r
	}
	return &out, nil
}

func (s *MemStore) AddWord(ctx context.Context, list, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.Words[list]
	if !ok {
		set = make(map[string]bool)
		s.Words[list] = set
	}
	set[word] = true
	return nil
}

func (s *MemStore) RemoveWord(ctx context.Context, list, word string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.Words[list]
	if !ok || !set[word] {
		return false, nil
	}
	delete(set, word)
	return true, nil
}

func (s *MemStore) SetPositive(ctx context.Context, word string, reward int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Positive[word] = reward
	return nil
}

func (s *MemStore) RemovePositive(ctx context.Context, word string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.Positive[word]; !ok {
		return false, nil
	}
	delete(s.Positive, word)
	return true, nil
}

// On-disk JSON seed format. Example:
//
//	{"swear": ["heck"], "nsfw": ["lewd"], "gif-filter": ["cringe"], "positive": {"kudos": 10}}
type FileJSON struct {
	Swear     []string       `json:"swear"`
	NSFW      []string       `json:"nsfw"`
	GifFilter []string       `json:"gif-filter"`
	Positive  map[string]int `json:"positive"`
}

func ReadFileJSON(p string) (*FileJSON, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	var out FileJSON
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
