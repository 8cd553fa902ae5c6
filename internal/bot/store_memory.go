package bot

import (
	"context"
	"sync"
)

// MemoryStore keeps bots in process memory. Used by tests and by standalone
// runs without a database.
type MemoryStore struct {
	mu   sync.RWMutex
	bots map[string]*Bot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bots: make(map[string]*Bot)}
}

func (s *MemoryStore) SaveBot(_ context.Context, b *Bot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bots[b.ID] = b.Clone()
	return nil
}

func (s *MemoryStore) AppendTransaction(_ context.Context, botID string, tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bots[botID]; ok {
		b.Transactions = append(b.Transactions, tx)
	}
	return nil
}

func (s *MemoryStore) AppendEvent(_ context.Context, botID string, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bots[botID]; ok {
		b.Events = append(b.Events, ev)
	}
	return nil
}

func (s *MemoryStore) GetBot(_ context.Context, id string) (*Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bots[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

func (s *MemoryStore) ListBots(_ context.Context, userID string) ([]*Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Bot
	for _, b := range s.bots {
		if b.UserID == userID {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) ListActiveBots(_ context.Context) ([]*Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Bot
	for _, b := range s.bots {
		if b.Status == StatusActive {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}
