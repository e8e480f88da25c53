package linkcode

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// MemoryStore используется без REDIS_ADDR и в тестах
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]entry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string]entry), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, code string, userID uuid.UUID, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.codes[code]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	s.codes[code] = entry{userID: userID, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Take(_ context.Context, code string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.codes[code]
	if !ok {
		return uuid.Nil, false, nil
	}
	delete(s.codes, code)
	if !s.now().Before(e.expiresAt) {
		return uuid.Nil, false, nil
	}
	return e.userID, true, nil
}
