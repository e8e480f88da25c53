package state

import (
	"sync"
	"time"
)

// Manager управляет состояниями пользователей
type Manager struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	states map[int64]entry // telegramID -> состояние
}

// NewManager создаёт новый менеджер состояний
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		ttl:    ttl,
		now:    time.Now,
		states: make(map[int64]entry),
	}
}

// GetState получает текущее состояние пользователя; просроченное считается StateNone
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	e, exists := sm.states[telegramID]
	if !exists {
		return StateNone
	}
	if sm.now().After(e.expiresAt) {
		delete(sm.states, telegramID)
		return StateNone
	}
	return e.state
}

// SetState устанавливает состояние пользователя
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		// Если состояние None, удаляем запись
		delete(sm.states, telegramID)
		return
	}

	sm.states[telegramID] = entry{state: state, expiresAt: sm.now().Add(sm.ttl)}
}

// ClearState очищает состояние пользователя
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, telegramID)
}
