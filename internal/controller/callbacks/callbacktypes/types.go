package callbacktypes

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/service"
)

// Callback data. Telegram ограничивает callback data 64 байтами,
// префикс + UUID (36 символов) в это укладывается.
const (
	AcceptSwap     = "swap_accept:" // swap_accept:<swap_id>
	RejectSwap     = "swap_reject:" // swap_reject:<swap_id>
	RefreshPending = "pending_refresh"
	Noop           = "noop"
)

// WithID собирает callback data вида "prefix<id>"
func WithID(prefix string, id uuid.UUID) string {
	return prefix + id.String()
}

// Handler содержит общие зависимости для всех callback handlers
type Handler struct {
	UserService *service.UserService
	SwapService *service.SwapService
	Identity    service.IdentityProvider
	Logger      *zap.Logger

	// Функции-хэндлеры из основного контроллера
	ShowPending func(ctx context.Context, b *bot.Bot, chatID int64, actorID uuid.UUID)
}
