package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Freeeeeet/slot_swapper/internal/model"
)

// TxManager выполняет fn в одной транзакции. Транзакция передаётся через ctx,
// любая ошибка из fn откатывает все изменения.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SlotStore хранилище слотов. Get-методы возвращают nil, nil если слота нет.
type SlotStore interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	// LockByIDs блокирует слоты в порядке возрастания id; отсутствующих в результате нет
	LockByIDs(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*model.Slot, error)
	List(ctx context.Context, filter model.SlotFilter) ([]*model.Slot, error)
	Update(ctx context.Context, slot *model.Slot) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetOwner(ctx context.Context, id, ownerID uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, status model.SlotStatus) error
	ListReservedIDs(ctx context.Context) ([]uuid.UUID, error)
}

// SwapRegistry хранилище заявок на обмен с compare-and-set переходами статусов
type SwapRegistry interface {
	Create(ctx context.Context, swap *model.SwapRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	Transition(ctx context.Context, id uuid.UUID, expected, next model.SwapStatus) (*model.SwapRequest, error)
	ListPendingForRequestee(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error)
	ListByRequester(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error)
	ListPendingSlotIDs(ctx context.Context) ([]uuid.UUID, error)
}

// UserStore хранилище пользователей
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error)
	SetTelegramID(ctx context.Context, id uuid.UUID, telegramID int64) error
}

// IdentityProvider превращает учётные данные вызывающего в id пользователя
type IdentityProvider interface {
	Resolve(ctx context.Context, credential string) (uuid.UUID, error)
}
