package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/slot_swapper/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/slot_swapper/internal/model"
	"github.com/Freeeeeet/slot_swapper/internal/service"
)

// Сколько заявок показываем отдельными карточками за один раз
const maxSwapCards = 10

// HandlePending обрабатывает команду /pending
func (h *Handlers) HandlePending(ctx context.Context, b *bot.Bot, update *models.Update) {
	userID, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	h.ShowPending(ctx, b, update.Message.Chat.ID, userID)
}

// ShowPending отправляет входящие заявки карточками с кнопками принять/отклонить
func (h *Handlers) ShowPending(ctx context.Context, b *bot.Bot, chatID int64, userID uuid.UUID) {
	swaps, err := h.swapService.ListPending(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to list pending swaps", zap.String("user_id", userID.String()), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось загрузить заявки. Попробуйте позже.")
		return
	}

	if len(swaps) == 0 {
		h.sendWithKeyboard(ctx, b, chatID, "📭 Входящих заявок на обмен нет.", keyboard.Refresh())
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("📬 У вас %d %s на обмен:", len(swaps), formatting.PluralizeRequests(len(swaps))))

	shown := swaps
	if len(shown) > maxSwapCards {
		shown = shown[:maxSwapCards]
	}

	cards, names := h.loadCards(ctx, userID, shown)
	for _, d := range cards {
		h.sendWithKeyboard(ctx, b, chatID, formatting.SwapCard(d, names), keyboard.SwapDecision(d.Swap.ID))
	}

	footer := "🔄 Обновить список"
	if rest := len(swaps) - len(shown); rest > 0 {
		footer = fmt.Sprintf("…и ещё %d %s. Ответьте на эти и обновите список.", rest, formatting.PluralizeRequests(rest))
	}
	h.sendWithKeyboard(ctx, b, chatID, footer, keyboard.Refresh())
}

// HandleOutgoing обрабатывает команду /outgoing
func (h *Handlers) HandleOutgoing(ctx context.Context, b *bot.Bot, update *models.Update) {
	userID, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	swaps, err := h.swapService.ListOutgoing(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to list outgoing swaps", zap.String("user_id", userID.String()), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось загрузить заявки. Попробуйте позже.")
		return
	}

	if len(swaps) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 Вы ещё не отправляли заявок на обмен.")
		return
	}

	if len(swaps) > maxSwapCards {
		swaps = swaps[:maxSwapCards]
	}
	cards, names := h.loadCards(ctx, userID, swaps)
	for _, d := range cards {
		h.sendMessage(ctx, b, chatID, formatting.SwapCard(d, names))
	}
}

// HandleMySlots обрабатывает команду /myslots
func (h *Handlers) HandleMySlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	userID, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	slots, err := h.slotService.List(ctx, userID, service.ListSlotsInput{OnlyMine: true})
	if err != nil {
		h.logger.Error("Failed to list slots", zap.String("user_id", userID.String()), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось загрузить слоты. Попробуйте позже.")
		return
	}

	h.sendMessage(ctx, b, chatID, FormatSlotList(slots))
}

// FormatSlotList текст списка слотов пользователя
func FormatSlotList(slots []*model.Slot) string {
	if len(slots) == 0 {
		return "📭 У вас пока нет слотов. Создайте их в приложении."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 У вас %d %s:\n", len(slots), formatting.PluralizeSlots(len(slots)))
	for _, slot := range slots {
		sb.WriteString("\n")
		sb.WriteString(formatting.SlotLine(slot))
	}
	return sb.String()
}

// loadCards подтягивает слоты и имена участников для карточек.
// Заявку, которую не удалось загрузить, пропускаем: список всё равно полезен.
func (h *Handlers) loadCards(ctx context.Context, userID uuid.UUID, swaps []*model.SwapRequest) ([]*model.SwapDetails, map[uuid.UUID]string) {
	cards := make([]*model.SwapDetails, 0, len(swaps))
	ids := make([]uuid.UUID, 0, 2*len(swaps))

	for _, swap := range swaps {
		d, err := h.swapService.GetDetails(ctx, userID, swap.ID)
		if err != nil {
			h.logger.Warn("Failed to load swap details", zap.String("swap_id", swap.ID.String()), zap.Error(err))
			continue
		}
		cards = append(cards, d)
		ids = append(ids, swap.RequesterID, swap.RequesteeID)
	}

	names, err := h.userService.Names(ctx, ids)
	if err != nil {
		h.logger.Error("Failed to load participant names", zap.Error(err))
	}
	return cards, names
}
