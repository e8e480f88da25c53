package callbacks

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/slot_swapper/internal/controller/callbacks/common"
)

// Route распределяет callback query по соответствующим обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data

	switch {
	case strings.HasPrefix(data, callbacktypes.AcceptSwap):
		HandleAcceptSwap(ctx, b, callback, h)
	case strings.HasPrefix(data, callbacktypes.RejectSwap):
		HandleRejectSwap(ctx, b, callback, h)
	case data == callbacktypes.RefreshPending:
		HandleRefreshPending(ctx, b, callback, h)
	case data == callbacktypes.Noop:
		// No operation - просто подтверждаем callback
		common.AnswerCallback(ctx, b, callback.ID, "")

	default:
		h.Logger.Warn("Unknown callback",
			zap.String("data", data),
			zap.Int64("telegram_id", callback.From.ID))
		common.AnswerCallback(ctx, b, callback.ID, "❌ Неизвестная команда")
	}
}
