package callbacks

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/slot_swapper/internal/service"
)

// Handler обертка для callbacktypes.Handler с методами
type Handler struct {
	*callbacktypes.Handler
}

// NewHandler создаёт новый обработчик callbacks с зависимостями
func NewHandler(
	userService *service.UserService,
	swapService *service.SwapService,
	identity service.IdentityProvider,
	logger *zap.Logger,
	showPending func(ctx context.Context, b *bot.Bot, chatID int64, actorID uuid.UUID),
) *Handler {
	inner := &callbacktypes.Handler{
		UserService: userService,
		SwapService: swapService,
		Identity:    identity,
		Logger:      logger,
		ShowPending: showPending,
	}
	return &Handler{Handler: inner}
}

// HandleCallbackQuery - главный обработчик callback queries
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	callback := update.CallbackQuery

	h.Logger.Debug("Callback received",
		zap.String("data", callback.Data),
		zap.Int64("telegram_id", callback.From.ID),
	)

	Route(ctx, b, callback, h.Handler)
}
