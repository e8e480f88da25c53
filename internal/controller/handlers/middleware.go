package handlers

import (
	"context"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/apperr"
)

const notLinkedText = "❌ Telegram не привязан к аккаунту.\n\n" +
	"Получите код в приложении (раздел профиля) и отправьте /link КОД"

// requireUser определяет пользователя по привязанному Telegram-аккаунту
// Возвращает id и true если OK, uuid.Nil и false если нет (ответ уже отправлен)
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (uuid.UUID, bool) {
	if update.Message == nil || update.Message.From == nil {
		return uuid.Nil, false
	}

	telegramID := update.Message.From.ID
	userID, err := h.identity.Resolve(ctx, strconv.FormatInt(telegramID, 10))
	if err != nil {
		if apperr.IsKind(err, apperr.KindUnauthenticated) {
			h.sendError(ctx, b, update.Message.Chat.ID, notLinkedText)
			return uuid.Nil, false
		}
		h.logger.Error("Failed to resolve user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return uuid.Nil, false
	}

	return userID, true
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	h.sendWithKeyboard(ctx, b, chatID, text, nil)
}

// sendWithKeyboard отправляет сообщение с inline клавиатурой
func (h *Handlers) sendWithKeyboard(ctx context.Context, b *bot.Bot, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
