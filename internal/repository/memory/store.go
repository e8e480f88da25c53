// Package memory хранилище в памяти процесса для тестов и запуска без Postgres (STORE=memory).
// Транзакции сериализуются одним замком на всё хранилище; откат восстанавливает снимок.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
	"github.com/Freeeeeet/slot_swapper/internal/model"
)

type txKey struct{}

type Store struct {
	sem         chan struct{}
	lockTimeout time.Duration

	mu   sync.Mutex // только для clock
	last time.Time

	users map[uuid.UUID]*model.User
	slots map[uuid.UUID]*model.Slot
	swaps map[uuid.UUID]*model.SwapRequest
}

func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		sem:         make(chan struct{}, 1),
		lockTimeout: lockTimeout,
		users:       make(map[uuid.UUID]*model.User),
		slots:       make(map[uuid.UUID]*model.Slot),
		swaps:       make(map[uuid.UUID]*model.SwapRequest),
	}
}

// Users, Slots, Swaps - представления хранилища под интерфейсы сервисов
func (s *Store) Users() *UserStore    { return &UserStore{s: s} }
func (s *Store) Slots() *SlotStore    { return &SlotStore{s: s} }
func (s *Store) Swaps() *SwapRegistry { return &SwapRegistry{s: s} }

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

func withTxMarker(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, struct{}{})
}

// clock строго возрастающее время: порядок "новые первыми" не зависит от разрешения таймера
func (s *Store) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func (s *Store) acquire(ctx context.Context) error {
	var timeout <-chan time.Time
	if s.lockTimeout > 0 {
		timer := time.NewTimer(s.lockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case s.sem <- struct{}{}:
		return nil
	case <-timeout:
		return apperr.Busy("resource is busy, try again")
	case <-ctx.Done():
		return apperr.Wrap(apperr.KindBusy, ctx.Err(), "resource is busy, try again")
	}
}

func (s *Store) release() { <-s.sem }

// do выполняет fn под замком хранилища; внутри транзакции замок уже взят
func (s *Store) do(ctx context.Context, fn func() error) error {
	if inTx(ctx) {
		return fn()
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return fn()
}

// WithinTx выполняет fn атомарно: при ошибке состояние откатывается к снимку
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	snap := s.snapshot()
	if err := fn(withTxMarker(ctx)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	users map[uuid.UUID]*model.User
	slots map[uuid.UUID]*model.Slot
	swaps map[uuid.UUID]*model.SwapRequest
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		users: make(map[uuid.UUID]*model.User, len(s.users)),
		slots: make(map[uuid.UUID]*model.Slot, len(s.slots)),
		swaps: make(map[uuid.UUID]*model.SwapRequest, len(s.swaps)),
	}
	for id, u := range s.users {
		snap.users[id] = cloneUser(u)
	}
	for id, sl := range s.slots {
		snap.slots[id] = cloneSlot(sl)
	}
	for id, sw := range s.swaps {
		snap.swaps[id] = cloneSwap(sw)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.slots = snap.slots
	s.swaps = snap.swaps
}

func cloneUser(u *model.User) *model.User {
	c := *u
	if u.TelegramID != nil {
		id := *u.TelegramID
		c.TelegramID = &id
	}
	return &c
}

func cloneSlot(s *model.Slot) *model.Slot {
	c := *s
	return &c
}

func cloneSwap(s *model.SwapRequest) *model.SwapRequest {
	c := *s
	if s.Message != nil {
		msg := *s.Message
		c.Message = &msg
	}
	return &c
}

func sortNewestFirst(swaps []*model.SwapRequest) {
	sort.Slice(swaps, func(i, j int) bool {
		return swaps[i].CreatedAt.After(swaps[j].CreatedAt)
	})
}
