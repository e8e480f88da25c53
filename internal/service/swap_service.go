package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
	"github.com/Freeeeeet/slot_swapper/internal/model"
)

const MaxSwapMessageLength = 500

var tracer = otel.Tracer("github.com/Freeeeeet/slot_swapper/internal/service")

// ProposeInput параметры нового предложения обмена
type ProposeInput struct {
	RequesteeID     uuid.UUID
	MySlotID        uuid.UUID
	RequesteeSlotID uuid.UUID
	Message         string
}

// SwapService согласование обменов слотами. Не хранит состояния между вызовами:
// каждая операция - одна транзакция в хранилище.
type SwapService struct {
	tx     TxManager
	users  UserStore
	slots  SlotStore
	swaps  SwapRegistry
	logger *zap.Logger
}

func NewSwapService(
	tx TxManager,
	users UserStore,
	slots SlotStore,
	swaps SwapRegistry,
	logger *zap.Logger,
) *SwapService {
	return &SwapService{
		tx:     tx,
		users:  users,
		slots:  slots,
		swaps:  swaps,
		logger: logger,
	}
}

// Propose создаёт заявку на обмен и резервирует оба слота
func (s *SwapService) Propose(ctx context.Context, actorID uuid.UUID, in ProposeInput) (details *model.SwapDetails, err error) {
	ctx, span := tracer.Start(ctx, "swap.propose", trace.WithAttributes(
		attribute.String("actor_id", actorID.String()),
		attribute.String("requestee_id", in.RequesteeID.String()),
	))
	defer func() { endSpan(span, err) }()

	message, err := normalizeMessage(in.Message)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// 1. Получатель существует
		requestee, err := s.users.GetByID(ctx, in.RequesteeID)
		if err != nil {
			return fmt.Errorf("get requestee: %w", err)
		}
		if requestee == nil {
			return apperr.NotFound("requested user not found")
		}

		// 2. Нельзя меняться с самим собой
		if actorID == in.RequesteeID {
			return apperr.Validation("cannot swap with yourself")
		}

		// Блокируем оба слота в фиксированном порядке до любых проверок владельцев
		locked, err := s.slots.LockByIDs(ctx, in.MySlotID, in.RequesteeSlotID)
		if err != nil {
			return fmt.Errorf("lock slots: %w", err)
		}

		// 3. Свой слот
		mySlot := locked[in.MySlotID]
		if mySlot == nil || mySlot.OwnerID != actorID {
			return apperr.NotFound("your slot not found or not owned")
		}

		// 4. Слот получателя
		theirSlot := locked[in.RequesteeSlotID]
		if theirSlot == nil || theirSlot.OwnerID != in.RequesteeID {
			return apperr.NotFound("requested slot not found or not owned")
		}

		// 5. Оба слота доступны для обмена
		if err := ensureSwappable(mySlot, theirSlot); err != nil {
			return err
		}

		swap := &model.SwapRequest{
			ID:              uuid.New(),
			RequesterID:     actorID,
			RequesteeID:     in.RequesteeID,
			RequesterSlotID: mySlot.ID,
			RequesteeSlotID: theirSlot.ID,
			Status:          model.SwapStatusPending,
			Message:         message,
		}
		if err := s.swaps.Create(ctx, swap); err != nil {
			return fmt.Errorf("create swap: %w", err)
		}

		// Резервируем слоты до решения по заявке
		for _, slot := range []*model.Slot{mySlot, theirSlot} {
			if err := s.slots.SetStatus(ctx, slot.ID, model.SlotStatusSwapPending); err != nil {
				return fmt.Errorf("reserve slot: %w", err)
			}
			slot.Status = model.SlotStatusSwapPending
		}

		details = &model.SwapDetails{Swap: swap, RequesterSlot: mySlot, RequesteeSlot: theirSlot}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Swap proposed",
		zap.String("swap_id", details.Swap.ID.String()),
		zap.String("requester_id", actorID.String()),
		zap.String("requestee_id", in.RequesteeID.String()),
		zap.String("requester_slot_id", in.MySlotID.String()),
		zap.String("requestee_slot_id", in.RequesteeSlotID.String()),
	)

	return details, nil
}

// Accept принимает заявку: владельцы слотов меняются местами ровно один раз
func (s *SwapService) Accept(ctx context.Context, actorID, swapID uuid.UUID) (details *model.SwapDetails, err error) {
	ctx, span := tracer.Start(ctx, "swap.accept", trace.WithAttributes(
		attribute.String("actor_id", actorID.String()),
		attribute.String("swap_id", swapID.String()),
	))
	defer func() { endSpan(span, err) }()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		swap, err := s.loadForDecision(ctx, actorID, swapID, "accept")
		if err != nil {
			return err
		}

		requesterSlot, requesteeSlot, err := s.lockParticipants(ctx, swap)
		if err != nil {
			return err
		}

		// Владельцы могли измениться после создания заявки
		if requesterSlot == nil || requesteeSlot == nil {
			return apperr.Conflict("a slot of this swap no longer exists")
		}
		if requesterSlot.OwnerID != swap.RequesterID || requesteeSlot.OwnerID != swap.RequesteeID {
			return apperr.Conflict("slot ownership changed since the swap was proposed")
		}

		if err := s.slots.SetOwner(ctx, requesterSlot.ID, swap.RequesteeID); err != nil {
			return fmt.Errorf("set requester slot owner: %w", err)
		}
		if err := s.slots.SetOwner(ctx, requesteeSlot.ID, swap.RequesterID); err != nil {
			return fmt.Errorf("set requestee slot owner: %w", err)
		}
		for _, slot := range []*model.Slot{requesterSlot, requesteeSlot} {
			if err := s.slots.SetStatus(ctx, slot.ID, model.SlotStatusBusy); err != nil {
				return fmt.Errorf("finalize slot: %w", err)
			}
		}

		updated, err := s.swaps.Transition(ctx, swap.ID, model.SwapStatusPending, model.SwapStatusAccepted)
		if err != nil {
			return fmt.Errorf("transition swap: %w", err)
		}

		requesterSlot.OwnerID, requesteeSlot.OwnerID = swap.RequesteeID, swap.RequesterID
		requesterSlot.Status, requesteeSlot.Status = model.SlotStatusBusy, model.SlotStatusBusy

		details = &model.SwapDetails{Swap: updated, RequesterSlot: requesterSlot, RequesteeSlot: requesteeSlot}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Swap accepted",
		zap.String("swap_id", swapID.String()),
		zap.String("requester_id", details.Swap.RequesterID.String()),
		zap.String("requestee_id", actorID.String()),
	)

	return details, nil
}

// Reject отклоняет заявку и снимает резерв со слотов. Владельцы не меняются.
func (s *SwapService) Reject(ctx context.Context, actorID, swapID uuid.UUID) (details *model.SwapDetails, err error) {
	ctx, span := tracer.Start(ctx, "swap.reject", trace.WithAttributes(
		attribute.String("actor_id", actorID.String()),
		attribute.String("swap_id", swapID.String()),
	))
	defer func() { endSpan(span, err) }()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		swap, err := s.loadForDecision(ctx, actorID, swapID, "reject")
		if err != nil {
			return err
		}

		requesterSlot, requesteeSlot, err := s.lockParticipants(ctx, swap)
		if err != nil {
			return err
		}

		// Освобождаем только свой резерв: слот мог уйти другому владельцу
		release := []struct {
			slot  *model.Slot
			owner uuid.UUID
		}{
			{requesterSlot, swap.RequesterID},
			{requesteeSlot, swap.RequesteeID},
		}
		for _, r := range release {
			if r.slot == nil || !r.slot.IsReserved() || r.slot.OwnerID != r.owner {
				continue
			}
			if err := s.slots.SetStatus(ctx, r.slot.ID, model.SlotStatusSwappable); err != nil {
				return fmt.Errorf("release slot: %w", err)
			}
			r.slot.Status = model.SlotStatusSwappable
		}

		updated, err := s.swaps.Transition(ctx, swap.ID, model.SwapStatusPending, model.SwapStatusRejected)
		if err != nil {
			return fmt.Errorf("transition swap: %w", err)
		}

		details = &model.SwapDetails{Swap: updated, RequesterSlot: requesterSlot, RequesteeSlot: requesteeSlot}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Swap rejected",
		zap.String("swap_id", swapID.String()),
		zap.String("requestee_id", actorID.String()),
	)

	return details, nil
}

// ListPending входящие ожидающие заявки пользователя, новые первыми
func (s *SwapService) ListPending(ctx context.Context, actorID uuid.UUID) ([]*model.SwapRequest, error) {
	swaps, err := s.swaps.ListPendingForRequestee(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list pending swaps: %w", err)
	}
	return swaps, nil
}

// ListOutgoing заявки, созданные пользователем, новые первыми
func (s *SwapService) ListOutgoing(ctx context.Context, actorID uuid.UUID) ([]*model.SwapRequest, error) {
	swaps, err := s.swaps.ListByRequester(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list outgoing swaps: %w", err)
	}
	return swaps, nil
}

// GetDetails заявка со слотами; видна только участникам
func (s *SwapService) GetDetails(ctx context.Context, actorID, swapID uuid.UUID) (*model.SwapDetails, error) {
	swap, err := s.swaps.GetByID(ctx, swapID)
	if err != nil {
		return nil, fmt.Errorf("get swap: %w", err)
	}
	if swap == nil || (swap.RequesterID != actorID && swap.RequesteeID != actorID) {
		return nil, apperr.NotFound("swap request not found")
	}

	details := &model.SwapDetails{Swap: swap}
	if details.RequesterSlot, err = s.slots.GetByID(ctx, swap.RequesterSlotID); err != nil {
		return nil, fmt.Errorf("get requester slot: %w", err)
	}
	if details.RequesteeSlot, err = s.slots.GetByID(ctx, swap.RequesteeSlotID); err != nil {
		return nil, fmt.Errorf("get requestee slot: %w", err)
	}
	return details, nil
}

// loadForDecision общие проверки accept/reject: существование, право, статус
func (s *SwapService) loadForDecision(ctx context.Context, actorID, swapID uuid.UUID, action string) (*model.SwapRequest, error) {
	swap, err := s.swaps.GetByID(ctx, swapID)
	if err != nil {
		return nil, fmt.Errorf("get swap: %w", err)
	}
	if swap == nil {
		return nil, apperr.NotFound("swap request not found")
	}
	if swap.RequesteeID != actorID {
		return nil, apperr.Forbidden("you do not have permission to %s this swap", action)
	}
	if !swap.IsPending() {
		return nil, apperr.InvalidState("swap already %s", swap.Status)
	}
	return swap, nil
}

// lockParticipants блокирует слоты (по возрастанию id), затем саму заявку
func (s *SwapService) lockParticipants(ctx context.Context, swap *model.SwapRequest) (*model.Slot, *model.Slot, error) {
	locked, err := s.slots.LockByIDs(ctx, swap.SlotIDs()...)
	if err != nil {
		return nil, nil, fmt.Errorf("lock slots: %w", err)
	}
	if _, err := s.swaps.LockByID(ctx, swap.ID); err != nil {
		return nil, nil, fmt.Errorf("lock swap: %w", err)
	}
	return locked[swap.RequesterSlotID], locked[swap.RequesteeSlotID], nil
}

func ensureSwappable(slots ...*model.Slot) error {
	for _, slot := range slots {
		if slot.Status != model.SlotStatusSwappable {
			return apperr.Validation("both slots must be SWAPPABLE")
		}
	}
	return nil
}

func normalizeMessage(raw string) (*string, error) {
	msg := strings.TrimSpace(raw)
	if msg == "" {
		return nil, nil
	}
	if len([]rune(msg)) > MaxSwapMessageLength {
		return nil, apperr.Validation("message must be at most %d characters", MaxSwapMessageLength)
	}
	return &msg, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.KindOf(err)))
	}
	span.End()
}
