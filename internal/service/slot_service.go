package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
	"github.com/Freeeeeet/slot_swapper/internal/model"
)

// SlotInput поля слота; nil - поле не меняется (для Update)
type SlotInput struct {
	Title     *string
	StartTime *time.Time
	EndTime   *time.Time
	Status    *model.SlotStatus
}

// ListSlotsInput фильтры выборки слотов
type ListSlotsInput struct {
	Status      *model.SlotStatus
	OnlyMine    bool
	ExcludeMine bool
}

type SlotService struct {
	tx     TxManager
	slots  SlotStore
	logger *zap.Logger
}

func NewSlotService(tx TxManager, slots SlotStore, logger *zap.Logger) *SlotService {
	return &SlotService{
		tx:     tx,
		slots:  slots,
		logger: logger,
	}
}

// Create создаёт слот пользователя, по умолчанию SWAPPABLE
func (s *SlotService) Create(ctx context.Context, actorID uuid.UUID, in SlotInput) (*model.Slot, error) {
	if in.Title == nil || in.StartTime == nil || in.EndTime == nil {
		return nil, apperr.Validation("title, start_time and end_time are required")
	}

	slot := &model.Slot{
		OwnerID:   actorID,
		Title:     strings.TrimSpace(*in.Title),
		StartTime: in.StartTime.UTC(),
		EndTime:   in.EndTime.UTC(),
		Status:    model.SlotStatusSwappable,
	}
	if in.Status != nil {
		slot.Status = *in.Status
	}

	if err := validateSlot(slot); err != nil {
		return nil, err
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.logger.Info("Slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("owner_id", actorID.String()),
		zap.Time("start_time", slot.StartTime),
	)

	return slot, nil
}

// Get получает слот по ID
func (s *SlotService) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, apperr.NotFound("slot not found")
	}
	return slot, nil
}

// List слоты по фильтру; ExcludeMine - витрина чужих слотов
func (s *SlotService) List(ctx context.Context, actorID uuid.UUID, in ListSlotsInput) ([]*model.Slot, error) {
	if in.OnlyMine && in.ExcludeMine {
		return nil, apperr.Validation("mine and exclude_mine cannot be combined")
	}

	filter := model.SlotFilter{Status: in.Status}
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperr.Validation("unknown slot status %q", *in.Status)
	}
	if in.OnlyMine {
		filter.OwnerID = &actorID
	}
	if in.ExcludeMine {
		filter.ExcludeID = &actorID
	}

	slots, err := s.slots.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// Update меняет слот владельца. Зарезервированный обменом слот менять нельзя.
func (s *SlotService) Update(ctx context.Context, actorID, id uuid.UUID, in SlotInput) (*model.Slot, error) {
	var slot *model.Slot

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.lockOwned(ctx, actorID, id, "update")
		if err != nil {
			return err
		}

		if in.Title != nil {
			locked.Title = strings.TrimSpace(*in.Title)
		}
		if in.StartTime != nil {
			locked.StartTime = in.StartTime.UTC()
		}
		if in.EndTime != nil {
			locked.EndTime = in.EndTime.UTC()
		}
		if in.Status != nil {
			locked.Status = *in.Status
		}

		if err := validateSlot(locked); err != nil {
			return err
		}

		if err := s.slots.Update(ctx, locked); err != nil {
			return fmt.Errorf("update slot: %w", err)
		}
		slot = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot updated",
		zap.String("slot_id", id.String()),
		zap.String("status", string(slot.Status)),
	)

	return slot, nil
}

// Delete удаляет слот владельца
func (s *SlotService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.lockOwned(ctx, actorID, id, "delete"); err != nil {
			return err
		}
		if err := s.slots.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Slot deleted", zap.String("slot_id", id.String()))
	return nil
}

func (s *SlotService) lockOwned(ctx context.Context, actorID, id uuid.UUID, action string) (*model.Slot, error) {
	locked, err := s.slots.LockByIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lock slot: %w", err)
	}

	slot := locked[id]
	if slot == nil {
		return nil, apperr.NotFound("slot not found")
	}
	if slot.OwnerID != actorID {
		return nil, apperr.Forbidden("you do not have permission to %s this slot", action)
	}
	if slot.IsReserved() {
		return nil, apperr.InvalidState("slot is reserved by a pending swap")
	}
	return slot, nil
}

func validateSlot(slot *model.Slot) error {
	if slot.Title == "" {
		return apperr.Validation("title is required")
	}
	if !slot.StartTime.Before(slot.EndTime) {
		return apperr.Validation("end time must be after start time")
	}
	if !slot.Status.UserSettable() {
		return apperr.Validation("status must be BUSY or SWAPPABLE")
	}
	return nil
}
