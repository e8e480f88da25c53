package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
	"github.com/Freeeeeet/slot_swapper/internal/model"
)

// UserStore пользователи в памяти
type UserStore struct{ s *Store }

func (r *UserStore) Create(ctx context.Context, user *model.User) error {
	return r.s.do(ctx, func() error {
		for _, u := range r.s.users {
			if strings.EqualFold(u.Email, user.Email) {
				return apperr.Conflict("email already registered")
			}
		}
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		user.CreatedAt = r.s.clock()
		user.UpdatedAt = user.CreatedAt
		r.s.users[user.ID] = cloneUser(user)
		return nil
	})
}

func (r *UserStore) find(ctx context.Context, match func(*model.User) bool) (*model.User, error) {
	var found *model.User
	err := r.s.do(ctx, func() error {
		for _, u := range r.s.users {
			if match(u) {
				found = cloneUser(u)
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.find(ctx, func(u *model.User) bool { return u.ID == id })
}

func (r *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(ctx, func(u *model.User) bool { return u.Email == email })
}

func (r *UserStore) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return r.find(ctx, func(u *model.User) bool { return u.TelegramID != nil && *u.TelegramID == telegramID })
}

func (r *UserStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error) {
	var users []*model.User
	err := r.s.do(ctx, func() error {
		for _, id := range ids {
			if u, ok := r.s.users[id]; ok {
				users = append(users, cloneUser(u))
			}
		}
		return nil
	})
	return users, err
}

func (r *UserStore) SetTelegramID(ctx context.Context, id uuid.UUID, telegramID int64) error {
	return r.s.do(ctx, func() error {
		user, ok := r.s.users[id]
		if !ok {
			return apperr.NotFound("user not found")
		}
		for _, u := range r.s.users {
			if u.ID != id && u.TelegramID != nil && *u.TelegramID == telegramID {
				return apperr.Conflict("telegram account already linked to another user")
			}
		}
		user.TelegramID = &telegramID
		user.UpdatedAt = r.s.clock()
		return nil
	})
}

// SlotStore слоты в памяти
type SlotStore struct{ s *Store }

func (r *SlotStore) Create(ctx context.Context, slot *model.Slot) error {
	return r.s.do(ctx, func() error {
		if slot.ID == uuid.Nil {
			slot.ID = uuid.New()
		}
		slot.CreatedAt = r.s.clock()
		slot.UpdatedAt = slot.CreatedAt
		r.s.slots[slot.ID] = cloneSlot(slot)
		return nil
	})
}

func (r *SlotStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	var slot *model.Slot
	err := r.s.do(ctx, func() error {
		if s, ok := r.s.slots[id]; ok {
			slot = cloneSlot(s)
		}
		return nil
	})
	return slot, err
}

// LockByIDs замок хранилища уже сериализует транзакции, поэтому это просто чтение
func (r *SlotStore) LockByIDs(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*model.Slot, error) {
	locked := make(map[uuid.UUID]*model.Slot, len(ids))
	err := r.s.do(ctx, func() error {
		for _, id := range ids {
			if s, ok := r.s.slots[id]; ok {
				locked[id] = cloneSlot(s)
			}
		}
		return nil
	})
	return locked, err
}

func (r *SlotStore) List(ctx context.Context, filter model.SlotFilter) ([]*model.Slot, error) {
	var slots []*model.Slot
	err := r.s.do(ctx, func() error {
		for _, s := range r.s.slots {
			if filter.Matches(s) {
				slots = append(slots, cloneSlot(s))
			}
		}
		return nil
	})
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartTime.After(slots[j].StartTime)
	})
	return slots, err
}

func (r *SlotStore) mutate(ctx context.Context, id uuid.UUID, fn func(*model.Slot)) error {
	return r.s.do(ctx, func() error {
		slot, ok := r.s.slots[id]
		if !ok {
			return apperr.NotFound("slot not found")
		}
		fn(slot)
		slot.UpdatedAt = r.s.clock()
		return nil
	})
}

func (r *SlotStore) Update(ctx context.Context, slot *model.Slot) error {
	return r.s.do(ctx, func() error {
		s, ok := r.s.slots[slot.ID]
		if !ok {
			return apperr.NotFound("slot not found")
		}
		s.Title = slot.Title
		s.StartTime = slot.StartTime
		s.EndTime = slot.EndTime
		s.Status = slot.Status
		s.UpdatedAt = r.s.clock()
		slot.UpdatedAt = s.UpdatedAt
		return nil
	})
}

func (r *SlotStore) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.do(ctx, func() error {
		if _, ok := r.s.slots[id]; !ok {
			return apperr.NotFound("slot not found")
		}
		delete(r.s.slots, id)
		return nil
	})
}

func (r *SlotStore) SetOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	return r.mutate(ctx, id, func(s *model.Slot) { s.OwnerID = ownerID })
}

func (r *SlotStore) SetStatus(ctx context.Context, id uuid.UUID, status model.SlotStatus) error {
	return r.mutate(ctx, id, func(s *model.Slot) { s.Status = status })
}

func (r *SlotStore) ListReservedIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.s.do(ctx, func() error {
		for id, s := range r.s.slots {
			if s.IsReserved() {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}

// SwapRegistry заявки на обмен в памяти
type SwapRegistry struct{ s *Store }

func (r *SwapRegistry) Create(ctx context.Context, swap *model.SwapRequest) error {
	if swap.ID == uuid.Nil {
		swap.ID = uuid.New()
	}
	swap.Status = model.SwapStatusPending
	if err := swap.Validate(); err != nil {
		return err
	}

	return r.s.do(ctx, func() error {
		// то же, что swap_slot_reservations в Postgres: слот в одной PENDING заявке с любой стороны
		for _, existing := range r.s.swaps {
			if !existing.IsPending() {
				continue
			}
			for _, id := range swap.SlotIDs() {
				if existing.RequesterSlotID == id || existing.RequesteeSlotID == id {
					return apperr.Conflict("slot already has a pending swap")
				}
			}
		}
		swap.CreatedAt = r.s.clock()
		swap.UpdatedAt = swap.CreatedAt
		r.s.swaps[swap.ID] = cloneSwap(swap)
		return nil
	})
}

func (r *SwapRegistry) GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	var swap *model.SwapRequest
	err := r.s.do(ctx, func() error {
		if s, ok := r.s.swaps[id]; ok {
			swap = cloneSwap(s)
		}
		return nil
	})
	return swap, err
}

func (r *SwapRegistry) LockByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *SwapRegistry) Transition(ctx context.Context, id uuid.UUID, expected, next model.SwapStatus) (*model.SwapRequest, error) {
	if !model.CanTransition(expected, next) {
		return nil, apperr.InvalidState("cannot move swap from %s to %s", expected, next)
	}

	var updated *model.SwapRequest
	err := r.s.do(ctx, func() error {
		swap, ok := r.s.swaps[id]
		if !ok {
			return apperr.NotFound("swap request not found")
		}
		if swap.Status != expected {
			return apperr.Conflict("swap was already %s by a concurrent request", swap.Status)
		}
		swap.Status = next
		swap.UpdatedAt = r.s.clock()
		updated = cloneSwap(swap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *SwapRegistry) list(ctx context.Context, match func(*model.SwapRequest) bool) ([]*model.SwapRequest, error) {
	var swaps []*model.SwapRequest
	err := r.s.do(ctx, func() error {
		for _, s := range r.s.swaps {
			if match(s) {
				swaps = append(swaps, cloneSwap(s))
			}
		}
		return nil
	})
	sortNewestFirst(swaps)
	return swaps, err
}

func (r *SwapRegistry) ListPendingForRequestee(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return r.list(ctx, func(s *model.SwapRequest) bool { return s.RequesteeID == userID && s.IsPending() })
}

func (r *SwapRegistry) ListByRequester(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return r.list(ctx, func(s *model.SwapRequest) bool { return s.RequesterID == userID })
}

func (r *SwapRegistry) ListPendingSlotIDs(ctx context.Context) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	err := r.s.do(ctx, func() error {
		for _, s := range r.s.swaps {
			if !s.IsPending() {
				continue
			}
			for _, id := range s.SlotIDs() {
				if _, ok := seen[id]; !ok {
					seen[id] = struct{}{}
					ids = append(ids, id)
				}
			}
		}
		return nil
	})
	return ids, err
}
