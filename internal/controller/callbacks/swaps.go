package callbacks

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/slot_swapper/internal/controller/callbacks/common"
	"github.com/Freeeeeet/slot_swapper/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/slot_swapper/internal/model"
)

type decideFunc func(ctx context.Context, actorID, swapID uuid.UUID) (*model.SwapDetails, error)

// HandleAcceptSwap - получатель принимает заявку, владельцы слотов меняются
func HandleAcceptSwap(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	decide(ctx, b, callback, h, callbacktypes.AcceptSwap, "accept_swap", h.SwapService.Accept,
		"✅ Обмен выполнен. Слоты поменялись владельцами.")
}

// HandleRejectSwap - получатель отклоняет заявку, резерв со слотов снимается
func HandleRejectSwap(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	decide(ctx, b, callback, h, callbacktypes.RejectSwap, "reject_swap", h.SwapService.Reject,
		"🚫 Заявка отклонена. Слоты снова доступны для обмена.")
}

// HandleRefreshPending заново показывает список входящих заявок
func HandleRefreshPending(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithActor(ctx, b, callback, h, func(hc *common.HandlerContext) {
		if hc.Message == nil {
			common.HandleError(hc, common.ErrNoMessage, "refresh_pending")
			return
		}
		hc.Answer("")
		h.ShowPending(ctx, b, hc.ChatID, hc.ActorID)
	})
}

func decide(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	prefix, operation string,
	fn decideFunc,
	outcome string,
) {
	swapID, err := common.ParseIDFromCallback(callback.Data, prefix)
	if err != nil {
		h.Logger.Warn("Bad swap callback", zap.String("data", callback.Data), zap.Error(err))
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}

	common.WithActor(ctx, b, callback, h, func(hc *common.HandlerContext) {
		details, err := fn(ctx, hc.ActorID, swapID)
		if err != nil {
			common.HandleError(hc, err, operation)
			return
		}

		h.Logger.Info("Swap decided via bot",
			zap.String("operation", operation),
			zap.String("swap_id", swapID.String()),
			zap.String("user_id", hc.ActorID.String()),
		)

		names, err := h.UserService.Names(ctx, []uuid.UUID{details.Swap.RequesterID, details.Swap.RequesteeID})
		if err != nil {
			// Решение уже принято, карточка просто останется без имён
			h.Logger.Error("Failed to load participant names", zap.Error(err))
		}

		text := fmt.Sprintf("%s\n\n%s", formatting.SwapCard(details, names), outcome)
		if err := hc.EditMessage(text, nil); err != nil {
			h.Logger.Error("Failed to update swap message", zap.String("swap_id", swapID.String()), zap.Error(err))
		}
		hc.Answer(formatting.GetSwapStatusDisplay(details.Swap.Status).Text)
	})
}
