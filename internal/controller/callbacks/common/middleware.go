package common

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
	"github.com/Freeeeeet/slot_swapper/internal/controller/callbacks/callbacktypes"
)

// WithActor создаёт HandlerContext и определяет пользователя.
// При ошибке сам отвечает пользователю и handler не вызывается.
func WithActor(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	if err := hc.LoadActor(); err != nil {
		HandleError(hc, err, "resolve_actor")
		return
	}

	handler(hc)
}

// HandleError логирует ошибку и показывает пользователю alert.
// Ожидаемые отказы (конфликт, чужая заявка) пишутся в Warn, остальное в Error.
func HandleError(hc *HandlerContext, err error, operation string) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.Int64("telegram_id", hc.TelegramID),
		zap.Error(err),
	}
	if apperr.KindOf(err) == apperr.KindInternal {
		hc.Handler.Logger.Error("Operation failed", fields...)
	} else {
		hc.Handler.Logger.Warn("Operation refused", fields...)
	}
	hc.AnswerAlert(ErrorMessage(err))
}
