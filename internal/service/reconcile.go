package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/model"
)

// ReleaseOrphanedReservations возвращает в SWAPPABLE слоты в статусе SWAP_PENDING,
// на которые не ссылается ни одна ожидающая заявка. Возвращает число освобождённых слотов.
func (s *SwapService) ReleaseOrphanedReservations(ctx context.Context) (int, error) {
	released := 0

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		reserved, err := s.slots.ListReservedIDs(ctx)
		if err != nil {
			return fmt.Errorf("list reserved slots: %w", err)
		}
		if len(reserved) == 0 {
			return nil
		}

		pending, err := s.swaps.ListPendingSlotIDs(ctx)
		if err != nil {
			return fmt.Errorf("list pending slot ids: %w", err)
		}
		referenced := make(map[uuid.UUID]struct{}, len(pending))
		for _, id := range pending {
			referenced[id] = struct{}{}
		}

		var orphaned []uuid.UUID
		for _, id := range reserved {
			if _, ok := referenced[id]; !ok {
				orphaned = append(orphaned, id)
			}
		}
		if len(orphaned) == 0 {
			return nil
		}

		locked, err := s.slots.LockByIDs(ctx, orphaned...)
		if err != nil {
			return fmt.Errorf("lock orphaned slots: %w", err)
		}

		// Под блокировкой перечитываем заявки: слот мог быть зарезервирован заново
		pending, err = s.swaps.ListPendingSlotIDs(ctx)
		if err != nil {
			return fmt.Errorf("list pending slot ids: %w", err)
		}
		for _, id := range pending {
			referenced[id] = struct{}{}
		}

		for id, slot := range locked {
			if _, ok := referenced[id]; ok || !slot.IsReserved() {
				continue
			}
			if err := s.slots.SetStatus(ctx, id, model.SlotStatusSwappable); err != nil {
				return fmt.Errorf("release slot: %w", err)
			}
			released++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if released > 0 {
		s.logger.Warn("Released orphaned slot reservations", zap.Int("count", released))
	}
	return released, nil
}
