package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusBusy        SlotStatus = "BUSY"         // Занят, обмен невозможен
	SlotStatusSwappable   SlotStatus = "SWAPPABLE"    // Доступен для предложений обмена
	SlotStatusSwapPending SlotStatus = "SWAP_PENDING" // Зарезервирован активным предложением
)

// Valid проверяет что статус из закрытого набора
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotStatusBusy, SlotStatusSwappable, SlotStatusSwapPending:
		return true
	}
	return false
}

// UserSettable - статусы, которые владелец может выставить сам.
// SWAP_PENDING выставляет только движок обменов.
func (s SlotStatus) UserSettable() bool {
	return s == SlotStatusBusy || s == SlotStatusSwappable
}

type Slot struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Status    SlotStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsReserved - слот участвует в ожидающем обмене
func (s *Slot) IsReserved() bool {
	return s.Status == SlotStatusSwapPending
}

// DurationMinutes длительность слота в минутах
func (s *Slot) DurationMinutes() int {
	return int(s.EndTime.Sub(s.StartTime).Minutes())
}

// SlotFilter параметры выборки слотов
type SlotFilter struct {
	Status    *SlotStatus
	OwnerID   *uuid.UUID
	ExcludeID *uuid.UUID // исключить слоты этого владельца (витрина обменов)
}

// Matches применяет фильтр к слоту в памяти
func (f SlotFilter) Matches(s *Slot) bool {
	if f.Status != nil && s.Status != *f.Status {
		return false
	}
	if f.OwnerID != nil && s.OwnerID != *f.OwnerID {
		return false
	}
	if f.ExcludeID != nil && s.OwnerID == *f.ExcludeID {
		return false
	}
	return true
}
