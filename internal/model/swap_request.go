package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
)

type SwapStatus string

// Статусы заявки на обмен
const (
	SwapStatusPending  SwapStatus = "PENDING"
	SwapStatusAccepted SwapStatus = "ACCEPTED"
	SwapStatusRejected SwapStatus = "REJECTED"
)

// допустимые переходы; у конечных статусов переходов нет
var swapTransitions = map[SwapStatus][]SwapStatus{
	SwapStatusPending:  {SwapStatusAccepted, SwapStatusRejected},
	SwapStatusAccepted: nil,
	SwapStatusRejected: nil,
}

// Valid проверяет что статус из закрытого набора
func (s SwapStatus) Valid() bool {
	_, ok := swapTransitions[s]
	return ok
}

// IsTerminal - дальнейших переходов нет
func (s SwapStatus) IsTerminal() bool {
	return s.Valid() && len(swapTransitions[s]) == 0
}

// CanTransition проверяет переход from -> to по таблице
func CanTransition(from, to SwapStatus) bool {
	for _, next := range swapTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SwapRequest предложение обменяться владением двух слотов
type SwapRequest struct {
	ID              uuid.UUID  `json:"id"`
	RequesterID     uuid.UUID  `json:"requester_id"`
	RequesteeID     uuid.UUID  `json:"requestee_id"`
	RequesterSlotID uuid.UUID  `json:"requester_slot_id"`
	RequesteeSlotID uuid.UUID  `json:"requestee_slot_id"`
	Status          SwapStatus `json:"status"`
	Message         *string    `json:"message"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Validate проверяет то, что верно для заявки на всём её сроке жизни
func (r *SwapRequest) Validate() error {
	if r.RequesterID == uuid.Nil || r.RequesteeID == uuid.Nil {
		return apperr.Validation("requester and requestee are required")
	}
	if r.RequesterID == r.RequesteeID {
		return apperr.Validation("cannot swap with yourself")
	}
	if r.RequesterSlotID == uuid.Nil || r.RequesteeSlotID == uuid.Nil {
		return apperr.Validation("both slots are required")
	}
	if r.RequesterSlotID == r.RequesteeSlotID {
		return apperr.Validation("cannot swap a slot with itself")
	}
	if !r.Status.Valid() {
		return apperr.Validation("unknown swap status %q", r.Status)
	}
	return nil
}

// IsPending - заявка ещё ждёт ответа получателя
func (r *SwapRequest) IsPending() bool {
	return r.Status == SwapStatusPending
}

// SlotIDs оба слота заявки
func (r *SwapRequest) SlotIDs() []uuid.UUID {
	return []uuid.UUID{r.RequesterSlotID, r.RequesteeSlotID}
}

// SwapDetails заявка вместе с текущим состоянием обоих слотов
type SwapDetails struct {
	Swap          *SwapRequest `json:"swap"`
	RequesterSlot *Slot        `json:"requester_slot,omitempty"`
	RequesteeSlot *Slot        `json:"requestee_slot,omitempty"`
}
