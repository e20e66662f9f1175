package store

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps boards in process memory. Used when no DATABASE_URL is
// configured and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	boards map[string]Board
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		boards: make(map[string]Board),
		now:    time.Now,
	}
}

func (s *MemoryStore) CreateBoard(_ context.Context, b Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.boards[b.ID]; ok {
		return ErrDuplicate
	}
	now := s.now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	b.State = slices.Clone(b.State)
	s.boards[b.ID] = b
	return nil
}

func (s *MemoryStore) GetBoard(_ context.Context, id string) (Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[id]
	if !ok {
		return Board{}, ErrNotFound
	}
	b.State = slices.Clone(b.State)
	return b, nil
}

func (s *MemoryStore) ListBoards(_ context.Context) ([]Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Board, 0, len(s.boards))
	for _, b := range s.boards {
		b.State = nil
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b Board) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) SaveState(_ context.Context, id, name string, state json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[id]
	if !ok {
		return ErrNotFound
	}
	b.Name = name
	b.State = slices.Clone(state)
	b.UpdatedAt = s.now().UTC()
	s.boards[id] = b
	return nil
}

func (s *MemoryStore) DeleteBoard(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.boards[id]; !ok {
		return ErrNotFound
	}
	delete(s.boards, id)
	return nil
}
