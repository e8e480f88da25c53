package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
)

// TelegramIdentity определяет пользователя по Telegram ID привязанного аккаунта.
// Credential - десятичный Telegram ID.
type TelegramIdentity struct {
	users UserStore
}

func NewTelegramIdentity(users UserStore) *TelegramIdentity {
	return &TelegramIdentity{users: users}
}

func (t *TelegramIdentity) Resolve(ctx context.Context, credential string) (uuid.UUID, error) {
	telegramID, err := strconv.ParseInt(credential, 10, 64)
	if err != nil || telegramID == 0 {
		return uuid.Nil, apperr.Unauthenticated("bad telegram id")
	}

	user, err := t.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	if user == nil {
		return uuid.Nil, apperr.Unauthenticated("telegram account is not linked")
	}
	return user.ID, nil
}
